package matching

import (
	"math"
	"sort"
	"time"

	"github.com/tradeforge/matching-engine/internal/types"
)

// OrderBook holds the resting liquidity for one symbol and runs
// price-time-priority matching against it. A price level exists in the
// side map if and only if at least one order rests there; levels are
// created lazily on insert and deleted when the last order leaves, so
// the best-price scan only ever visits live levels.
//
// The book is not safe for concurrent use; the engine serializes all
// access through a per-symbol lock.
type OrderBook struct {
	symbol string
	bids   map[float64]*PriceLevel
	asks   map[float64]*PriceLevel

	// every order this book has ever accepted, open or terminal, for
	// O(1) modify/cancel lookup and NotFound vs NotModifiable answers
	orders map[uint64]*types.Order

	nextTradeID func() uint64
}

// NewOrderBook creates an empty book for a symbol. The trade id
// generator is shared across books when the engine owns them.
func NewOrderBook(symbol string, nextTradeID func() uint64) *OrderBook {
	if nextTradeID == nil {
		var seq uint64
		nextTradeID = func() uint64 {
			seq++
			return seq
		}
	}
	return &OrderBook{
		symbol:      symbol,
		bids:        make(map[float64]*PriceLevel),
		asks:        make(map[float64]*PriceLevel),
		orders:      make(map[uint64]*types.Order),
		nextTradeID: nextTradeID,
	}
}

// Symbol returns the symbol this book trades
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

// Get returns an order previously accepted by this book, or nil
func (ob *OrderBook) Get(orderID uint64) *types.Order {
	return ob.orders[orderID]
}

// AllOrders returns every order the book has accepted, open or terminal
func (ob *OrderBook) AllOrders() []*types.Order {
	orders := make([]*types.Order, 0, len(ob.orders))
	for _, order := range ob.orders {
		orders = append(orders, order)
	}
	return orders
}

// BestBid returns the highest bid level, or nil if the side is empty
func (ob *OrderBook) BestBid() *PriceLevel {
	if len(ob.bids) == 0 {
		return nil
	}
	best := 0.0
	for price := range ob.bids {
		if price > best {
			best = price
		}
	}
	return ob.bids[best]
}

// BestAsk returns the lowest ask level, or nil if the side is empty
func (ob *OrderBook) BestAsk() *PriceLevel {
	if len(ob.asks) == 0 {
		return nil
	}
	best := math.MaxFloat64
	for price := range ob.asks {
		if price < best {
			best = price
		}
	}
	return ob.asks[best]
}

// Place matches the incoming order against the opposite side and rests
// any limit remainder. Market remainders are rejected. Returns the
// trades generated, in execution order.
func (ob *OrderBook) Place(order *types.Order) []*types.Trade {
	ob.orders[order.ID] = order

	trades := ob.match(order)

	if order.Remaining > 0 {
		switch order.OrderType {
		case types.LimitOrder:
			ob.rest(order)
		default:
			// fill what crossed, reject the unfilled remainder
			order.Status = types.Rejected
		}
	}

	return trades
}

// match runs the crossing loop: while the incoming order has quantity
// and the opposite best level crosses, trade FIFO against it at the
// resting (maker) price.
func (ob *OrderBook) match(taker *types.Order) []*types.Trade {
	var trades []*types.Trade

	for taker.Remaining > 0 {
		var level *PriceLevel
		if taker.Side == types.Buy {
			level = ob.BestAsk()
		} else {
			level = ob.BestBid()
		}
		if level == nil {
			break
		}
		if taker.OrderType == types.LimitOrder && !crosses(taker, level.Price) {
			break
		}

		maker := level.Peek()

		qty := taker.Remaining
		if maker.Remaining < qty {
			qty = maker.Remaining
		}

		maker.Fill(qty)
		taker.Fill(qty)
		level.Reduce(qty)

		trades = append(trades, ob.newTrade(taker, maker, qty))

		if maker.Remaining == 0 {
			level.RemoveHead()
			if level.Len() == 0 {
				ob.deleteLevel(maker.Side, level.Price)
			}
		}
	}

	return trades
}

func crosses(taker *types.Order, restingPrice float64) bool {
	if taker.Side == types.Buy {
		return taker.Price >= restingPrice
	}
	return taker.Price <= restingPrice
}

// Modify revokes the order's time priority by cancel-then-reinsert:
// the order leaves its level, takes the new price/quantity, and runs
// through the matching loop again as if freshly placed. A modify that
// now crosses the book executes immediately.
func (ob *OrderBook) Modify(orderID uint64, newPrice *float64, newQuantity *int) (*types.Order, []*types.Trade, error) {
	order, ok := ob.orders[orderID]
	if !ok {
		return nil, nil, types.ErrOrderNotFound
	}
	if !order.IsOpen() {
		return nil, nil, types.ErrOrderNotModifiable
	}
	if newPrice != nil && *newPrice <= 0 {
		return nil, nil, types.ErrInvalidPrice
	}
	if newQuantity != nil && *newQuantity <= 0 {
		return nil, nil, types.ErrInvalidQuantity
	}
	if newPrice == nil && newQuantity == nil {
		// nothing changes, priority is kept
		return order, nil, nil
	}

	ob.removeResting(order)

	if newPrice != nil {
		order.Price = *newPrice
	}
	if newQuantity != nil {
		filled := order.Quantity - order.Remaining
		order.Quantity = filled + *newQuantity
		order.Remaining = *newQuantity
	}
	if order.Remaining == order.Quantity {
		order.Status = types.Pending
	} else {
		order.Status = types.PartiallyFilled
	}
	order.Timestamp = time.Now().UTC()

	trades := ob.match(order)
	if order.Remaining > 0 {
		ob.rest(order)
	}

	return order, trades, nil
}

// Cancel removes an open order from its level and marks it CANCELLED.
// Returns false without mutating anything for unknown or terminal ids.
func (ob *OrderBook) Cancel(orderID uint64) bool {
	order, ok := ob.orders[orderID]
	if !ok || !order.IsOpen() {
		return false
	}

	ob.removeResting(order)
	order.Status = types.Cancelled
	return true
}

// Snapshot returns the per-level depth of both sides, best price first
func (ob *OrderBook) Snapshot() types.BookSnapshot {
	snapshot := types.BookSnapshot{
		Symbol: ob.symbol,
		Bids:   sideLevels(ob.bids, true),
		Asks:   sideLevels(ob.asks, false),
	}
	return snapshot
}

func sideLevels(side map[float64]*PriceLevel, descending bool) []types.LevelSnapshot {
	prices := make([]float64, 0, len(side))
	for price := range side {
		prices = append(prices, price)
	}
	if descending {
		sort.Sort(sort.Reverse(sort.Float64Slice(prices)))
	} else {
		sort.Float64s(prices)
	}

	levels := make([]types.LevelSnapshot, 0, len(prices))
	for _, price := range prices {
		level := side[price]
		levels = append(levels, types.LevelSnapshot{
			Price:      price,
			Quantity:   level.TotalQuantity(),
			OrderCount: level.Len(),
		})
	}
	return levels
}

// rest appends the order to the back of its price level, creating the
// level if it does not exist yet
func (ob *OrderBook) rest(order *types.Order) {
	side := ob.sideFor(order.Side)
	level, ok := side[order.Price]
	if !ok {
		level = NewPriceLevel(order.Price)
		side[order.Price] = level
	}
	level.Enqueue(order)
}

// removeResting takes an open order out of its price level, deleting
// the level if it empties
func (ob *OrderBook) removeResting(order *types.Order) {
	side := ob.sideFor(order.Side)
	level, ok := side[order.Price]
	if !ok {
		return
	}
	if level.Remove(order.ID) && level.Len() == 0 {
		delete(side, order.Price)
	}
}

func (ob *OrderBook) deleteLevel(side types.SideType, price float64) {
	delete(ob.sideFor(side), price)
}

func (ob *OrderBook) sideFor(side types.SideType) map[float64]*PriceLevel {
	if side == types.Buy {
		return ob.bids
	}
	return ob.asks
}

// newTrade records a match at the maker's price; price improvement goes
// to the taker
func (ob *OrderBook) newTrade(taker, maker *types.Order, qty int) *types.Trade {
	trade := &types.Trade{
		TradeID:      ob.nextTradeID(),
		Symbol:       ob.symbol,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		Price:        maker.Price,
		Size:         qty,
		Timestamp:    time.Now().UTC(),
	}

	if taker.Side == types.Buy {
		trade.BuyOrderID = taker.ID
		trade.SellOrderID = maker.ID
	} else {
		trade.BuyOrderID = maker.ID
		trade.SellOrderID = taker.ID
	}

	return trade
}
