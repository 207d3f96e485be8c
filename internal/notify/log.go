package notify

import (
	"github.com/tradeforge/matching-engine/internal/logger"
	"github.com/tradeforge/matching-engine/internal/types"
)

// LogNotifier writes every lifecycle event as a structured log line
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a notifier backed by the given logger, or the
// package default when nil
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) OrderPlaced(order *types.Order) {
	n.info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"symbol":   order.Symbol,
		"side":     order.Side.String(),
		"type":     order.OrderType.String(),
		"price":    order.Price,
		"quantity": order.Quantity,
		"status":   order.Status.String(),
	})
}

func (n *LogNotifier) OrderModified(order *types.Order) {
	n.info("Order modified", map[string]interface{}{
		"order_id":  order.ID,
		"symbol":    order.Symbol,
		"price":     order.Price,
		"remaining": order.Remaining,
		"status":    order.Status.String(),
	})
}

func (n *LogNotifier) OrderCancelled(order *types.Order) {
	n.info("Order cancelled", map[string]interface{}{
		"order_id":  order.ID,
		"symbol":    order.Symbol,
		"remaining": order.Remaining,
	})
}

func (n *LogNotifier) TradeExecuted(trade *types.Trade) {
	n.info("Trade executed", map[string]interface{}{
		"trade_id":      trade.TradeID,
		"symbol":        trade.Symbol,
		"price":         trade.Price,
		"quantity":      trade.Size,
		"buy_order_id":  trade.BuyOrderID,
		"sell_order_id": trade.SellOrderID,
	})
}

func (n *LogNotifier) info(message string, context map[string]interface{}) {
	if n.log != nil {
		n.log.Info(message, context)
		return
	}
	logger.Info(message, context)
}
