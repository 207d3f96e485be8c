package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tradeforge/matching-engine/internal/logger"
	"github.com/tradeforge/matching-engine/internal/types"
)

// KafkaConfig holds broker and topic settings for the Kafka sink
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// KafkaNotifier publishes lifecycle events as JSON messages: order
// events to <prefix>.orders, trades to <prefix>.trades. Messages are
// keyed by symbol so per-symbol ordering survives partitioning.
type KafkaNotifier struct {
	orders *kafka.Writer
	trades *kafka.Writer
}

// NewKafkaNotifier creates a notifier publishing to the given brokers
func NewKafkaNotifier(cfg KafkaConfig) *KafkaNotifier {
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "engine"
	}
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
			BatchTimeout: 10 * time.Millisecond,
		}
	}
	return &KafkaNotifier{
		orders: newWriter(prefix + ".orders"),
		trades: newWriter(prefix + ".trades"),
	}
}

type orderEvent struct {
	Event string       `json:"event"`
	Order *types.Order `json:"order"`
}

func (n *KafkaNotifier) publishOrder(eventName string, order *types.Order) {
	data, err := json.Marshal(orderEvent{Event: eventName, Order: order})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = n.orders.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.Symbol),
		Value: data,
	})
	if err != nil {
		logger.Warn("Kafka order event publish failed", map[string]interface{}{
			"event":    eventName,
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (n *KafkaNotifier) OrderPlaced(order *types.Order) {
	n.publishOrder("order_placed", order)
}

func (n *KafkaNotifier) OrderModified(order *types.Order) {
	n.publishOrder("order_modified", order)
}

func (n *KafkaNotifier) OrderCancelled(order *types.Order) {
	n.publishOrder("order_cancelled", order)
}

func (n *KafkaNotifier) TradeExecuted(trade *types.Trade) {
	data, err := json.Marshal(trade)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = n.trades.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%s:%s", trade.Symbol, strconv.FormatUint(trade.TradeID, 10))),
		Value: data,
	})
	if err != nil {
		logger.Warn("Kafka trade publish failed", map[string]interface{}{
			"trade_id": trade.TradeID,
			"error":    err.Error(),
		})
	}
}

// Close flushes and closes both topic writers
func (n *KafkaNotifier) Close() error {
	ordersErr := n.orders.Close()
	tradesErr := n.trades.Close()
	if ordersErr != nil {
		return ordersErr
	}
	return tradesErr
}
