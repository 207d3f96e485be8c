package matching

import "github.com/tradeforge/matching-engine/internal/types"

// PriceLevel holds all resting orders at one exact price, FIFO by
// arrival. Aggregate quantity and order count are maintained inline so
// depth snapshots never walk the queue.
//
// Invariant: every order in the queue is open with Remaining > 0. Orders
// leave the level the moment they fill or cancel, and the owning book
// deletes the level itself when the last order leaves.
type PriceLevel struct {
	Price    float64
	orders   []*types.Order
	totalQty int
}

func NewPriceLevel(price float64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Enqueue appends an order at the back of the FIFO queue
func (pl *PriceLevel) Enqueue(order *types.Order) {
	pl.orders = append(pl.orders, order)
	pl.totalQty += order.Remaining
}

// Peek returns the oldest order without removing it
func (pl *PriceLevel) Peek() *types.Order {
	if len(pl.orders) == 0 {
		return nil
	}
	return pl.orders[0]
}

// RemoveHead removes the oldest order from the queue
func (pl *PriceLevel) RemoveHead() {
	if len(pl.orders) == 0 {
		return
	}
	pl.totalQty -= pl.orders[0].Remaining
	pl.orders = pl.orders[1:]
}

// Remove deletes the order with the given id, preserving FIFO order of
// the rest. Returns false if the order is not in this level.
func (pl *PriceLevel) Remove(orderID uint64) bool {
	for i, order := range pl.orders {
		if order.ID == orderID {
			pl.totalQty -= order.Remaining
			pl.orders = append(pl.orders[:i], pl.orders[i+1:]...)
			return true
		}
	}
	return false
}

// Reduce lowers the aggregate quantity after a partial fill of an order
// that stays in the queue
func (pl *PriceLevel) Reduce(qty int) {
	pl.totalQty -= qty
	if pl.totalQty < 0 {
		pl.totalQty = 0
	}
}

// Len returns the number of resting orders at this level
func (pl *PriceLevel) Len() int {
	return len(pl.orders)
}

// TotalQuantity returns the aggregate remaining quantity at this level
func (pl *PriceLevel) TotalQuantity() int {
	return pl.totalQty
}
