package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tradeforge/matching-engine/internal/types"
)

// PostgresTradeStore implements TradeStore using PostgreSQL
type PostgresTradeStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTradeStore creates a new PostgreSQL-backed trade store
func NewPostgresTradeStore(cfg PostgresConfig) (*PostgresTradeStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &PostgresTradeStore{pool: pool}, nil
}

const insertTradeQuery = `
	INSERT INTO trades (trade_id, symbol, buy_order_id, sell_order_id, maker_order_id, taker_order_id, price, quantity, executed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (trade_id) DO NOTHING
`

func (s *PostgresTradeStore) Save(trade *types.Trade) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertTradeQuery,
		trade.TradeID, trade.Symbol, trade.BuyOrderID, trade.SellOrderID,
		trade.MakerOrderID, trade.TakerOrderID, trade.Price, trade.Size, trade.Timestamp,
	)
	return err
}

func (s *PostgresTradeStore) SaveBatch(trades []*types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, trade := range trades {
		batch.Queue(insertTradeQuery,
			trade.TradeID, trade.Symbol, trade.BuyOrderID, trade.SellOrderID,
			trade.MakerOrderID, trade.TakerOrderID, trade.Price, trade.Size, trade.Timestamp,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range trades {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresTradeStore) GetRecent(limit int) ([]*types.Trade, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT trade_id, symbol, buy_order_id, sell_order_id, maker_order_id, taker_order_id, price, quantity, executed_at
		FROM trades
		ORDER BY executed_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*types.Trade
	for rows.Next() {
		var trade types.Trade
		err := rows.Scan(
			&trade.TradeID, &trade.Symbol, &trade.BuyOrderID, &trade.SellOrderID,
			&trade.MakerOrderID, &trade.TakerOrderID, &trade.Price, &trade.Size, &trade.Timestamp,
		)
		if err != nil {
			continue
		}
		trades = append(trades, &trade)
	}

	return trades, nil
}

func (s *PostgresTradeStore) Close() error {
	s.pool.Close()
	return nil
}
