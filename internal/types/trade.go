package types

import "time"

// Trade represents a matched trade between a buy and sell order.
// Immutable once created; the engine appends trades to its tape in
// execution order and never mutates or deletes them.
type Trade struct {
	TradeID      uint64    `json:"trade_id"`
	Symbol       string    `json:"symbol"`
	BuyOrderID   uint64    `json:"buy_order_id"`
	SellOrderID  uint64    `json:"sell_order_id"`
	MakerOrderID uint64    `json:"maker_order_id"`
	TakerOrderID uint64    `json:"taker_order_id"`
	Price        float64   `json:"price"`
	Size         int       `json:"quantity"`
	Timestamp    time.Time `json:"timestamp"`
}
