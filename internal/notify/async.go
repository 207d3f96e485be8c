package notify

import (
	"sync"

	"github.com/tradeforge/matching-engine/internal/logger"
	"github.com/tradeforge/matching-engine/internal/types"
)

type eventKind int8

const (
	eventOrderPlaced eventKind = iota
	eventOrderModified
	eventOrderCancelled
	eventTradeExecuted
)

type event struct {
	kind  eventKind
	order *types.Order
	trade *types.Trade
}

// AsyncNotifier decouples event delivery from the matching path.
// Events go through a buffered channel to a single dispatcher
// goroutine; when the buffer is full the event is dropped rather than
// blocking the caller.
type AsyncNotifier struct {
	sink      Notifier
	events    chan event
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsync wraps a notifier with a buffered dispatcher
func NewAsync(sink Notifier, buffer int) *AsyncNotifier {
	if buffer <= 0 {
		buffer = 1024
	}
	n := &AsyncNotifier{
		sink:   sink,
		events: make(chan event, buffer),
		done:   make(chan struct{}),
	}
	go n.dispatch()
	return n
}

func (n *AsyncNotifier) dispatch() {
	defer close(n.done)
	for ev := range n.events {
		switch ev.kind {
		case eventOrderPlaced:
			n.sink.OrderPlaced(ev.order)
		case eventOrderModified:
			n.sink.OrderModified(ev.order)
		case eventOrderCancelled:
			n.sink.OrderCancelled(ev.order)
		case eventTradeExecuted:
			n.sink.TradeExecuted(ev.trade)
		}
	}
}

func (n *AsyncNotifier) enqueue(ev event) {
	select {
	case n.events <- ev:
	default:
		logger.Warn("Notification dropped, buffer full", map[string]interface{}{
			"kind": ev.kind,
		})
	}
}

func (n *AsyncNotifier) OrderPlaced(order *types.Order) {
	n.enqueue(event{kind: eventOrderPlaced, order: order})
}

func (n *AsyncNotifier) OrderModified(order *types.Order) {
	n.enqueue(event{kind: eventOrderModified, order: order})
}

func (n *AsyncNotifier) OrderCancelled(order *types.Order) {
	n.enqueue(event{kind: eventOrderCancelled, order: order})
}

func (n *AsyncNotifier) TradeExecuted(trade *types.Trade) {
	n.enqueue(event{kind: eventTradeExecuted, trade: trade})
}

// Close drains pending events and stops the dispatcher
func (n *AsyncNotifier) Close() error {
	n.closeOnce.Do(func() {
		close(n.events)
	})
	<-n.done
	return nil
}
