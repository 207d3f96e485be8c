package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradeforge/matching-engine/internal/types"
)

const (
	orderKeyPrefix  = "order:"
	allOrdersKey    = "orders:all"
	userOrdersKey   = "orders:user:"
	symbolOrdersKey = "orders:symbol:"
)

// RedisOrderStore implements OrderStore using Redis string keys plus
// index sets by user and symbol. Orders expire after the configured
// TTL; the index sets are best-effort and may briefly reference
// expired keys.
type RedisOrderStore struct {
	client   *redis.Client
	orderTTL time.Duration
}

// NewRedisOrderStore creates a new Redis-backed order store
func NewRedisOrderStore(cfg RedisConfig) (*RedisOrderStore, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &RedisOrderStore{
		client:   client,
		orderTTL: cfg.OrderTTL,
	}, nil
}

func orderKey(orderID uint64) string {
	return orderKeyPrefix + strconv.FormatUint(orderID, 10)
}

func (s *RedisOrderStore) Save(order *types.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	id := strconv.FormatUint(order.ID, 10)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, orderKey(order.ID), data, s.orderTTL)
	pipe.SAdd(ctx, allOrdersKey, id)
	pipe.SAdd(ctx, userOrdersKey+order.UserID, id)
	pipe.SAdd(ctx, symbolOrdersKey+order.Symbol, id)

	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisOrderStore) Get(orderID uint64) (*types.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := s.client.Get(ctx, orderKey(orderID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	if err != nil {
		return nil, err
	}

	var order types.Order
	if err := json.Unmarshal([]byte(data), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *RedisOrderStore) Remove(orderID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	order, err := s.Get(orderID)
	id := strconv.FormatUint(orderID, 10)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, orderKey(orderID))
	pipe.SRem(ctx, allOrdersKey, id)
	if err == nil {
		pipe.SRem(ctx, userOrdersKey+order.UserID, id)
		pipe.SRem(ctx, symbolOrdersKey+order.Symbol, id)
	}

	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisOrderStore) GetAll() []*types.Order {
	return s.getByIndex(allOrdersKey)
}

func (s *RedisOrderStore) GetByUser(userID string) []*types.Order {
	return s.getByIndex(userOrdersKey + userID)
}

func (s *RedisOrderStore) GetBySymbol(symbol string) []*types.Order {
	return s.getByIndex(symbolOrdersKey + symbol)
}

func (s *RedisOrderStore) getByIndex(indexKey string) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil || len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = orderKeyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil
	}

	orders := make([]*types.Order, 0, len(values))
	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			continue // expired key still in the index
		}
		var order types.Order
		if err := json.Unmarshal([]byte(data), &order); err != nil {
			continue
		}
		orders = append(orders, &order)
	}
	return orders
}

func (s *RedisOrderStore) Close() error {
	return s.client.Close()
}
