package notify

import "github.com/tradeforge/matching-engine/internal/types"

// Notifier consumes engine lifecycle events. Implementations are
// observers only: they can never veto a match, and the engine treats
// every call as fire-and-forget. Wrap with NewAsync when delivery must
// not block matching.
type Notifier interface {
	OrderPlaced(order *types.Order)
	OrderModified(order *types.Order)
	OrderCancelled(order *types.Order)
	TradeExecuted(trade *types.Trade)
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(*types.Order)    {}
func (nopNotifier) OrderModified(*types.Order)  {}
func (nopNotifier) OrderCancelled(*types.Order) {}
func (nopNotifier) TradeExecuted(*types.Trade)  {}

// Nop returns a notifier that discards every event
func Nop() Notifier {
	return nopNotifier{}
}

// MultiNotifier fans each event out to several sinks in order
type MultiNotifier struct {
	sinks []Notifier
}

// NewMulti combines multiple notifiers into one
func NewMulti(sinks ...Notifier) *MultiNotifier {
	return &MultiNotifier{sinks: sinks}
}

func (m *MultiNotifier) OrderPlaced(order *types.Order) {
	for _, sink := range m.sinks {
		sink.OrderPlaced(order)
	}
}

func (m *MultiNotifier) OrderModified(order *types.Order) {
	for _, sink := range m.sinks {
		sink.OrderModified(order)
	}
}

func (m *MultiNotifier) OrderCancelled(order *types.Order) {
	for _, sink := range m.sinks {
		sink.OrderCancelled(order)
	}
}

func (m *MultiNotifier) TradeExecuted(trade *types.Trade) {
	for _, sink := range m.sinks {
		sink.TradeExecuted(trade)
	}
}
