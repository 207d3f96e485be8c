package storage

import "github.com/tradeforge/matching-engine/internal/types"

// OrderStore mirrors the engine's order state for reads and audit.
// Save is an upsert: the engine writes the full order after every
// mutation. Implementations can be in-memory (map), Redis, PostgreSQL.
type OrderStore interface {
	// Save stores or replaces an order
	Save(order *types.Order) error

	// Get retrieves an order by ID
	Get(orderID uint64) (*types.Order, error)

	// Remove deletes an order from storage
	Remove(orderID uint64) error

	// GetAll returns all tracked orders
	GetAll() []*types.Order

	// GetByUser returns all orders for a specific user
	GetByUser(userID string) []*types.Order

	// GetBySymbol returns all orders for one symbol
	GetBySymbol(symbol string) []*types.Order

	// Close releases any resources held by the store
	Close() error
}

// TradeStore mirrors the engine's trade tape. Implementations can be an
// in-memory buffer, file log, Redis, PostgreSQL.
type TradeStore interface {
	// Save persists a single trade
	Save(trade *types.Trade) error

	// SaveBatch persists multiple trades (useful for database batch inserts)
	SaveBatch(trades []*types.Trade) error

	// GetRecent retrieves the N most recent trades
	GetRecent(limit int) ([]*types.Trade, error)

	// Close releases any resources held by the store
	Close() error
}
