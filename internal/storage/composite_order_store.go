package storage

import "github.com/tradeforge/matching-engine/internal/types"

// CompositeOrderStore layers multiple OrderStore implementations.
// Writes go to ALL stores; reads come from the FIRST store that
// answers. Example: memory (fast) in front of Redis (shared) in front
// of Postgres (durable).
type CompositeOrderStore struct {
	stores []OrderStore
}

// NewCompositeOrderStore creates a composite store from ordered layers
func NewCompositeOrderStore(stores ...OrderStore) *CompositeOrderStore {
	return &CompositeOrderStore{stores: stores}
}

func (c *CompositeOrderStore) Save(order *types.Order) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Save(order); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeOrderStore) Get(orderID uint64) (*types.Order, error) {
	var lastErr error
	for _, store := range c.stores {
		order, err := store.Get(orderID)
		if err == nil {
			return order, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *CompositeOrderStore) Remove(orderID uint64) error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Remove(orderID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *CompositeOrderStore) GetAll() []*types.Order {
	for _, store := range c.stores {
		if orders := store.GetAll(); len(orders) > 0 {
			return orders
		}
	}
	return nil
}

func (c *CompositeOrderStore) GetByUser(userID string) []*types.Order {
	for _, store := range c.stores {
		if orders := store.GetByUser(userID); len(orders) > 0 {
			return orders
		}
	}
	return nil
}

func (c *CompositeOrderStore) GetBySymbol(symbol string) []*types.Order {
	for _, store := range c.stores {
		if orders := store.GetBySymbol(symbol); len(orders) > 0 {
			return orders
		}
	}
	return nil
}

func (c *CompositeOrderStore) Close() error {
	var lastErr error
	for _, store := range c.stores {
		if err := store.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
