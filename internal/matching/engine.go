package matching

import (
	"sync"
	"sync/atomic"

	"github.com/tradeforge/matching-engine/internal/logger"
	"github.com/tradeforge/matching-engine/internal/notify"
	"github.com/tradeforge/matching-engine/internal/storage"
	"github.com/tradeforge/matching-engine/internal/types"
)

// OrderRequest carries the parameters of a new order. The engine
// assigns the id at acceptance.
type OrderRequest struct {
	UserID    string
	Symbol    string
	OrderType types.OrderType
	Side      types.SideType
	Price     float64
	Quantity  int
}

// EngineConfig wires the engine's collaborators. Zero values give an
// engine with an unbounded default tape, no stores, and no notifier.
type EngineConfig struct {
	TradeHistorySize int
	OrderStore       storage.OrderStore
	TradeStore       storage.TradeStore
	Notifier         notify.Notifier
}

const defaultTradeHistorySize = 10000

// bookShard pairs one symbol's book with its exclusive lock. Mutation
// of a book is serialized through this lock; unrelated symbols proceed
// fully in parallel.
type bookShard struct {
	mu   sync.Mutex
	book *OrderBook
}

// Engine routes commands to per-symbol order books, assigns order and
// trade ids, keeps the global order-id index for O(1) modify/cancel
// routing, and owns the append-only trade tape.
type Engine struct {
	booksMu sync.RWMutex
	books   map[string]*bookShard

	indexMu sync.RWMutex
	index   map[uint64]string // order id -> symbol

	orderSeq atomic.Uint64
	tradeSeq atomic.Uint64

	tapeMu  sync.Mutex
	tape    []*types.Trade
	tapeCap int

	orderStore storage.OrderStore
	tradeStore storage.TradeStore
	sink       notify.Notifier
}

// NewEngine creates an engine with default configuration
func NewEngine() *Engine {
	return NewEngineWithConfig(&EngineConfig{})
}

// NewEngineWithStores creates an engine mirroring orders and trades
// into the given stores
func NewEngineWithStores(orderStore storage.OrderStore, tradeStore storage.TradeStore) *Engine {
	return NewEngineWithConfig(&EngineConfig{
		OrderStore: orderStore,
		TradeStore: tradeStore,
	})
}

// NewEngineWithConfig creates an engine from an explicit configuration
func NewEngineWithConfig(cfg *EngineConfig) *Engine {
	tapeCap := cfg.TradeHistorySize
	if tapeCap <= 0 {
		tapeCap = defaultTradeHistorySize
	}
	sink := cfg.Notifier
	if sink == nil {
		sink = notify.Nop()
	}
	return &Engine{
		books:      make(map[string]*bookShard),
		index:      make(map[uint64]string),
		tapeCap:    tapeCap,
		orderStore: cfg.OrderStore,
		tradeStore: cfg.TradeStore,
		sink:       sink,
	}
}

// GenerateOrderID returns the next order id in the global sequence
func (e *Engine) GenerateOrderID() uint64 {
	return e.orderSeq.Add(1)
}

func (e *Engine) nextTradeID() uint64 {
	return e.tradeSeq.Add(1)
}

// shard returns the book shard for a symbol, creating it lazily on
// first reference. Unknown symbols are never an error on the write
// path.
func (e *Engine) shard(symbol string) *bookShard {
	e.booksMu.RLock()
	shard, ok := e.books[symbol]
	e.booksMu.RUnlock()
	if ok {
		return shard
	}

	e.booksMu.Lock()
	defer e.booksMu.Unlock()
	if shard, ok = e.books[symbol]; ok {
		return shard
	}
	shard = &bookShard{book: NewOrderBook(symbol, e.nextTradeID)}
	e.books[symbol] = shard
	return shard
}

func (e *Engine) lookupShard(symbol string) *bookShard {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	return e.books[symbol]
}

// PlaceOrder validates, matches and (for limit remainders) rests a new
// order. Returns the order's final state plus the trades generated, in
// execution order. Typed validation failures come back as errors; a
// partially filled order is valid state, not a failure.
func (e *Engine) PlaceOrder(req OrderRequest) (*types.Order, []*types.Trade, error) {
	order, err := types.NewOrder(
		e.GenerateOrderID(),
		req.UserID,
		req.Symbol,
		req.OrderType,
		req.Side,
		req.Price,
		req.Quantity,
	)
	if err != nil {
		return nil, nil, err
	}

	shard := e.shard(req.Symbol)

	shard.mu.Lock()
	trades := shard.book.Place(order)
	snapshot := cloneOrder(order)
	makers := e.makersOf(shard.book, trades)
	shard.mu.Unlock()

	e.indexMu.Lock()
	e.index[order.ID] = req.Symbol
	e.indexMu.Unlock()

	e.recordTrades(trades)
	e.persistOrder(snapshot)
	e.persistOrders(makers)
	e.persistTrades(trades)

	e.sink.OrderPlaced(snapshot)
	for _, trade := range trades {
		e.sink.TradeExecuted(trade)
	}

	return order, trades, nil
}

// ModifyOrder applies a price and/or quantity change. The order loses
// its time priority: it is removed from its level and re-queued (or
// matched immediately if it now crosses).
func (e *Engine) ModifyOrder(orderID uint64, newPrice *float64, newQuantity *int) (*types.Order, []*types.Trade, error) {
	symbol, ok := e.symbolOf(orderID)
	if !ok {
		return nil, nil, types.ErrOrderNotFound
	}

	shard := e.lookupShard(symbol)
	if shard == nil {
		return nil, nil, types.ErrOrderNotFound
	}

	shard.mu.Lock()
	order, trades, err := shard.book.Modify(orderID, newPrice, newQuantity)
	var snapshot *types.Order
	var makers []*types.Order
	if err == nil {
		snapshot = cloneOrder(order)
		makers = e.makersOf(shard.book, trades)
	}
	shard.mu.Unlock()

	if err != nil {
		return nil, nil, err
	}

	e.recordTrades(trades)
	e.persistOrder(snapshot)
	e.persistOrders(makers)
	e.persistTrades(trades)

	e.sink.OrderModified(snapshot)
	for _, trade := range trades {
		e.sink.TradeExecuted(trade)
	}

	return order, trades, nil
}

// CancelOrder removes an open order from its book. Cancelling an
// unknown or already-terminal order returns false and mutates nothing.
func (e *Engine) CancelOrder(orderID uint64) bool {
	symbol, ok := e.symbolOf(orderID)
	if !ok {
		return false
	}

	shard := e.lookupShard(symbol)
	if shard == nil {
		return false
	}

	shard.mu.Lock()
	cancelled := shard.book.Cancel(orderID)
	var snapshot *types.Order
	if cancelled {
		snapshot = cloneOrder(shard.book.Get(orderID))
	}
	shard.mu.Unlock()

	if !cancelled {
		return false
	}

	e.persistOrder(snapshot)
	e.sink.OrderCancelled(snapshot)
	return true
}

// BookSnapshot returns the depth of one symbol's book, best price
// first on both sides. The snapshot is taken under the symbol lock and
// is immutable afterwards.
func (e *Engine) BookSnapshot(symbol string) (types.BookSnapshot, error) {
	shard := e.lookupShard(symbol)
	if shard == nil {
		return types.BookSnapshot{Symbol: symbol}, types.ErrUnknownSymbol
	}

	shard.mu.Lock()
	snapshot := shard.book.Snapshot()
	shard.mu.Unlock()
	return snapshot, nil
}

// GetOrder returns the current state of an order by id, or nil
func (e *Engine) GetOrder(orderID uint64) *types.Order {
	symbol, ok := e.symbolOf(orderID)
	if !ok {
		return nil
	}
	shard := e.lookupShard(symbol)
	if shard == nil {
		return nil
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.book.Get(orderID)
}

// GetAllOrders returns every order the engine has accepted
func (e *Engine) GetAllOrders() []*types.Order {
	var orders []*types.Order
	for _, shard := range e.shards() {
		shard.mu.Lock()
		orders = append(orders, shard.book.AllOrders()...)
		shard.mu.Unlock()
	}
	return orders
}

// GetOrdersByUser returns every order submitted by one user
func (e *Engine) GetOrdersByUser(userID string) []*types.Order {
	var orders []*types.Order
	for _, order := range e.GetAllOrders() {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders
}

// RecentTrades returns up to limit trades from the tail of the tape,
// most recent last
func (e *Engine) RecentTrades(limit int) []*types.Trade {
	e.tapeMu.Lock()
	defer e.tapeMu.Unlock()

	if limit <= 0 || limit > len(e.tape) {
		limit = len(e.tape)
	}
	trades := make([]*types.Trade, limit)
	copy(trades, e.tape[len(e.tape)-limit:])
	return trades
}

// Close releases the engine's stores
func (e *Engine) Close() error {
	var lastErr error
	if e.orderStore != nil {
		if err := e.orderStore.Close(); err != nil {
			lastErr = err
		}
	}
	if e.tradeStore != nil {
		if err := e.tradeStore.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (e *Engine) symbolOf(orderID uint64) (string, bool) {
	e.indexMu.RLock()
	defer e.indexMu.RUnlock()
	symbol, ok := e.index[orderID]
	return symbol, ok
}

func (e *Engine) shards() []*bookShard {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	shards := make([]*bookShard, 0, len(e.books))
	for _, shard := range e.books {
		shards = append(shards, shard)
	}
	return shards
}

// cloneOrder copies an order by value. Stores and notifiers receive
// clones, never the live struct: the book keeps mutating Price,
// Remaining and Status under the shard lock after it is released, and
// observers read their copy unsynchronized.
func cloneOrder(order *types.Order) *types.Order {
	if order == nil {
		return nil
	}
	clone := *order
	return &clone
}

// makersOf resolves the maker order of each trade as a clone. Must run
// under the shard lock so the copies are consistent with the trades.
func (e *Engine) makersOf(book *OrderBook, trades []*types.Trade) []*types.Order {
	if len(trades) == 0 {
		return nil
	}
	makers := make([]*types.Order, 0, len(trades))
	for _, trade := range trades {
		if maker := book.Get(trade.MakerOrderID); maker != nil {
			makers = append(makers, cloneOrder(maker))
		}
	}
	return makers
}

// recordTrades appends to the tape in execution order, trimming the
// oldest entries past the configured cap
func (e *Engine) recordTrades(trades []*types.Trade) {
	if len(trades) == 0 {
		return
	}
	e.tapeMu.Lock()
	defer e.tapeMu.Unlock()

	e.tape = append(e.tape, trades...)
	if len(e.tape) > e.tapeCap {
		e.tape = e.tape[len(e.tape)-e.tapeCap:]
	}
}

// Store writes happen after the symbol lock is released and never
// surface to the trading caller; the stores are read/audit mirrors,
// not the source of truth.

func (e *Engine) persistOrder(order *types.Order) {
	if e.orderStore == nil || order == nil {
		return
	}
	if err := e.orderStore.Save(order); err != nil {
		logger.Warn("Order mirror write failed", map[string]interface{}{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (e *Engine) persistOrders(orders []*types.Order) {
	for _, order := range orders {
		e.persistOrder(order)
	}
}

func (e *Engine) persistTrades(trades []*types.Trade) {
	if e.tradeStore == nil || len(trades) == 0 {
		return
	}

	var err error
	if len(trades) == 1 {
		err = e.tradeStore.Save(trades[0])
	} else {
		err = e.tradeStore.SaveBatch(trades)
	}
	if err != nil {
		logger.Warn("Trade mirror write failed", map[string]interface{}{
			"count":    len(trades),
			"first_id": trades[0].TradeID,
			"error":    err.Error(),
		})
	}
}
