package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradeforge/matching-engine/internal/types"
)

// PostgresOrderStore implements OrderStore using PostgreSQL
type PostgresOrderStore struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStore creates a new PostgreSQL-backed order store
func NewPostgresOrderStore(cfg PostgresConfig) (*PostgresOrderStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &PostgresOrderStore{pool: pool}, nil
}

const orderColumns = `order_id, user_id, symbol, order_type, side, price, quantity, remaining, status, created_at`

func (s *PostgresOrderStore) Save(order *types.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO orders (order_id, user_id, symbol, order_type, side, price, quantity, remaining, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (order_id) DO UPDATE SET
			price = EXCLUDED.price,
			quantity = EXCLUDED.quantity,
			remaining = EXCLUDED.remaining,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		order.ID, order.UserID, order.Symbol, order.OrderType.String(), order.Side.String(),
		order.Price, order.Quantity, order.Remaining, order.Status.String(),
		order.Timestamp, time.Now(),
	)

	return err
}

func (s *PostgresOrderStore) Get(orderID uint64) (*types.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	order, err := scanOrder(s.pool.QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *PostgresOrderStore) Remove(orderID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `DELETE FROM orders WHERE order_id = $1`
	_, err := s.pool.Exec(ctx, query, orderID)
	return err
}

func (s *PostgresOrderStore) GetAll() []*types.Order {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return s.queryOrders(query)
}

func (s *PostgresOrderStore) GetByUser(userID string) []*types.Order {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return s.queryOrders(query, userID)
}

func (s *PostgresOrderStore) GetBySymbol(symbol string) []*types.Order {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE symbol = $1 ORDER BY created_at DESC`
	return s.queryOrders(query, symbol)
}

func (s *PostgresOrderStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresOrderStore) queryOrders(query string, args ...interface{}) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return []*types.Order{}
	}
	defer rows.Close()

	var orders []*types.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders
}

func scanOrder(row pgx.Row) (*types.Order, error) {
	var order types.Order
	var orderType, side, status string

	err := row.Scan(
		&order.ID, &order.UserID, &order.Symbol, &orderType, &side,
		&order.Price, &order.Quantity, &order.Remaining, &status, &order.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	order.OrderType = types.ParseOrderType(orderType)
	order.Side = types.ParseSide(side)
	order.Status = types.ParseStatus(status)
	return &order, nil
}
