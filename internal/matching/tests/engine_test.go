package matching

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tradeforge/matching-engine/internal/matching"
	"github.com/tradeforge/matching-engine/internal/storage/memory"
	"github.com/tradeforge/matching-engine/internal/types"
)

func limitReq(symbol string, side matching.SideType, price float64, qty int) matching.OrderRequest {
	return matching.OrderRequest{
		UserID:    "user_test",
		Symbol:    symbol,
		OrderType: matching.LimitOrder,
		Side:      side,
		Price:     price,
		Quantity:  qty,
	}
}

// TestPlaceOrderValidation covers the rejection taxonomy before any
// book is touched
func TestPlaceOrderValidation(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	cases := []struct {
		name string
		req  matching.OrderRequest
		want error
	}{
		{
			name: "zero quantity",
			req:  limitReq("AAPL", matching.Buy, 100.0, 0),
			want: types.ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			req:  limitReq("AAPL", matching.Buy, 100.0, -5),
			want: types.ErrInvalidQuantity,
		},
		{
			name: "zero limit price",
			req:  limitReq("AAPL", matching.Buy, 0, 10),
			want: types.ErrInvalidPrice,
		},
		{
			name: "negative limit price",
			req:  limitReq("AAPL", matching.Sell, -1.0, 10),
			want: types.ErrInvalidPrice,
		},
		{
			name: "market order with price",
			req: matching.OrderRequest{
				UserID:    "user_test",
				Symbol:    "AAPL",
				OrderType: matching.MarketOrder,
				Side:      matching.Buy,
				Price:     100.0,
				Quantity:  10,
			},
			want: types.ErrInvalidPrice,
		},
		{
			name: "unsupported order type",
			req: matching.OrderRequest{
				UserID:    "user_test",
				Symbol:    "AAPL",
				OrderType: matching.StopOrder,
				Side:      matching.Buy,
				Price:     100.0,
				Quantity:  10,
			},
			want: types.ErrInvalidOrderType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order, trades, err := engine.PlaceOrder(tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
			if order != nil || trades != nil {
				t.Errorf("Rejected request must not return an order or trades")
			}
		})
	}

	// Nothing should have been admitted
	if orders := engine.GetAllOrders(); len(orders) != 0 {
		t.Errorf("Expected no orders after rejected requests, got %d", len(orders))
	}
}

// TestSymbolIsolation verifies orders on different symbols never
// match each other
func TestSymbolIsolation(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	engine.PlaceOrder(limitReq("AAPL", matching.Buy, 100.0, 10))
	_, trades, err := engine.PlaceOrder(limitReq("MSFT", matching.Sell, 100.0, 10))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if len(trades) != 0 {
		t.Fatalf("Orders on different symbols must not match, got %d trades", len(trades))
	}

	aapl, err := engine.BookSnapshot("AAPL")
	if err != nil {
		t.Fatalf("BookSnapshot failed: %v", err)
	}
	if len(aapl.Bids) != 1 || len(aapl.Asks) != 0 {
		t.Errorf("AAPL book wrong: %d bids / %d asks", len(aapl.Bids), len(aapl.Asks))
	}
	msft, err := engine.BookSnapshot("MSFT")
	if err != nil {
		t.Fatalf("BookSnapshot failed: %v", err)
	}
	if len(msft.Bids) != 0 || len(msft.Asks) != 1 {
		t.Errorf("MSFT book wrong: %d bids / %d asks", len(msft.Bids), len(msft.Asks))
	}
}

// TestEngineRoutesByOrderID verifies modify and cancel find the right
// book without a symbol argument
func TestEngineRoutesByOrderID(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	order, _, err := engine.PlaceOrder(limitReq("MSFT", matching.Buy, 50.0, 10))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	engine.PlaceOrder(limitReq("AAPL", matching.Buy, 100.0, 10))

	price := 51.0
	updated, _, err := engine.ModifyOrder(order.ID, &price, nil)
	if err != nil {
		t.Fatalf("ModifyOrder failed: %v", err)
	}
	if updated.Symbol != "MSFT" || updated.Price != 51.0 {
		t.Errorf("Modify routed wrong: %+v", updated)
	}

	if !engine.CancelOrder(order.ID) {
		t.Error("CancelOrder should return true for open order")
	}
	if got := engine.GetOrder(order.ID); got == nil || got.Status != matching.Cancelled {
		t.Errorf("Expected CANCELLED, got %+v", got)
	}
}

// TestModifyUnknownOrder covers the engine-level not-found path
func TestModifyUnknownOrder(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	if _, _, err := engine.ModifyOrder(12345, nil, nil); !errors.Is(err, types.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
	if engine.CancelOrder(12345) {
		t.Error("CancelOrder of unknown id must return false")
	}
}

// TestBookSnapshotUnknownSymbol covers the read-side error for a
// symbol that never saw an order
func TestBookSnapshotUnknownSymbol(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	if _, err := engine.BookSnapshot("NOPE"); !errors.Is(err, types.ErrUnknownSymbol) {
		t.Errorf("Expected ErrUnknownSymbol, got %v", err)
	}
}

// TestRecentTrades verifies the tape keeps execution order and the
// limit returns the most recent tail
func TestRecentTrades(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	for i := 0; i < 5; i++ {
		engine.PlaceOrder(limitReq("AAPL", matching.Buy, 100.0, 1))
		engine.PlaceOrder(limitReq("AAPL", matching.Sell, 100.0, 1))
	}

	all := engine.RecentTrades(0)
	if len(all) != 5 {
		t.Fatalf("Expected 5 trades, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].TradeID <= all[i-1].TradeID {
			t.Errorf("Tape out of order at index %d: %d after %d", i, all[i].TradeID, all[i-1].TradeID)
		}
	}

	tail := engine.RecentTrades(2)
	if len(tail) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(tail))
	}
	if tail[0].TradeID != all[3].TradeID || tail[1].TradeID != all[4].TradeID {
		t.Errorf("Limit must return the most recent trades, got %+v", tail)
	}
}

// TestTradeHistoryBound verifies the tape drops oldest entries past
// its capacity
func TestTradeHistoryBound(t *testing.T) {
	engine := matching.NewEngineWithConfig(&matching.EngineConfig{TradeHistorySize: 3})
	defer engine.Close()

	for i := 0; i < 5; i++ {
		engine.PlaceOrder(limitReq("AAPL", matching.Buy, 100.0, 1))
		engine.PlaceOrder(limitReq("AAPL", matching.Sell, 100.0, 1))
	}

	trades := engine.RecentTrades(0)
	if len(trades) != 3 {
		t.Fatalf("Expected tape capped at 3, got %d", len(trades))
	}
	for i := 1; i < len(trades); i++ {
		if trades[i].TradeID <= trades[i-1].TradeID {
			t.Errorf("Tape out of order after trim at index %d", i)
		}
	}
}

// TestGetOrdersByUser verifies user-scoped lookups across symbols
func TestGetOrdersByUser(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	alice := limitReq("AAPL", matching.Buy, 100.0, 10)
	alice.UserID = "alice"
	engine.PlaceOrder(alice)

	aliceMsft := limitReq("MSFT", matching.Sell, 50.0, 5)
	aliceMsft.UserID = "alice"
	engine.PlaceOrder(aliceMsft)

	bob := limitReq("AAPL", matching.Buy, 99.0, 10)
	bob.UserID = "bob"
	engine.PlaceOrder(bob)

	orders := engine.GetOrdersByUser("alice")
	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders for alice, got %d", len(orders))
	}
	for _, order := range orders {
		if order.UserID != "alice" {
			t.Errorf("Foreign order in user scope: %+v", order)
		}
	}
	if len(engine.GetOrdersByUser("carol")) != 0 {
		t.Error("Expected no orders for unknown user")
	}
}

// TestConcurrentPlacement hammers several symbols from many
// goroutines and checks global consistency afterwards
func TestConcurrentPlacement(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN"}
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				symbol := symbols[(worker+i)%len(symbols)]
				side := matching.Buy
				if i%2 == 0 {
					side = matching.Sell
				}
				req := limitReq(symbol, side, 100.0, 1)
				req.UserID = fmt.Sprintf("user_%d", worker)
				if _, _, err := engine.PlaceOrder(req); err != nil {
					t.Errorf("PlaceOrder failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	orders := engine.GetAllOrders()
	if len(orders) != 8*perWorker {
		t.Fatalf("Expected %d orders, got %d", 8*perWorker, len(orders))
	}

	seen := make(map[uint64]bool, len(orders))
	for _, order := range orders {
		if seen[order.ID] {
			t.Fatalf("Duplicate order id %d", order.ID)
		}
		seen[order.ID] = true
	}

	// Every side's quantities must still be conserved per symbol
	for _, symbol := range symbols {
		snapshot, err := engine.BookSnapshot(symbol)
		if err != nil {
			t.Fatalf("BookSnapshot(%s) failed: %v", symbol, err)
		}
		bestBid, hasBid := snapshot.BestBid()
		bestAsk, hasAsk := snapshot.BestAsk()
		if hasBid && hasAsk && bestBid.Price >= bestAsk.Price {
			t.Errorf("%s crossed at rest: bid %f >= ask %f", symbol, bestBid.Price, bestAsk.Price)
		}
	}
}

// recordingSink captures notifier events synchronously for assertions
type recordingSink struct {
	mu        sync.Mutex
	placed    []*types.Order
	modified  []*types.Order
	cancelled []*types.Order
	trades    []*types.Trade
}

func (s *recordingSink) OrderPlaced(order *types.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placed = append(s.placed, order)
}

func (s *recordingSink) OrderModified(order *types.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modified = append(s.modified, order)
}

func (s *recordingSink) OrderCancelled(order *types.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, order)
}

func (s *recordingSink) TradeExecuted(trade *types.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
}

// TestNotifierEventsAreSnapshots verifies the sink receives value
// copies: a later modify of the live order must not rewrite the state
// an earlier event already carried
func TestNotifierEventsAreSnapshots(t *testing.T) {
	sink := &recordingSink{}
	engine := matching.NewEngineWithConfig(&matching.EngineConfig{Notifier: sink})
	defer engine.Close()

	order, _, err := engine.PlaceOrder(limitReq("AAPL", matching.Buy, 100.0, 10))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	price := 105.0
	qty := 20
	if _, _, err := engine.ModifyOrder(order.ID, &price, &qty); err != nil {
		t.Fatalf("ModifyOrder failed: %v", err)
	}
	if !engine.CancelOrder(order.ID) {
		t.Fatal("CancelOrder failed")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()

	if len(sink.placed) != 1 || len(sink.modified) != 1 || len(sink.cancelled) != 1 {
		t.Fatalf("Expected 1 event of each kind, got %d/%d/%d",
			len(sink.placed), len(sink.modified), len(sink.cancelled))
	}

	placed := sink.placed[0]
	if placed == engine.GetOrder(order.ID) {
		t.Error("Sink must receive a copy, not the live order")
	}
	if placed.Price != 100.0 || placed.Quantity != 10 || placed.Status != matching.Pending {
		t.Errorf("Placed event must keep placement-time state, got price=%f qty=%d status=%s",
			placed.Price, placed.Quantity, placed.Status)
	}
	if sink.modified[0].Price != 105.0 || sink.modified[0].Remaining != 20 {
		t.Errorf("Modified event wrong: price=%f remaining=%d",
			sink.modified[0].Price, sink.modified[0].Remaining)
	}
	if sink.cancelled[0].Status != matching.Cancelled {
		t.Errorf("Cancelled event wrong status: %s", sink.cancelled[0].Status)
	}
}

// TestStoreWritesAreSnapshots verifies the order store holds value
// copies that later matching cannot mutate in place
func TestStoreWritesAreSnapshots(t *testing.T) {
	store := memory.NewInMemoryOrderStore(10)
	engine := matching.NewEngineWithStores(store, memory.NewInMemoryTradeStore(10))
	defer engine.Close()

	order, _, err := engine.PlaceOrder(limitReq("AAPL", matching.Buy, 100.0, 10))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	mirrored, err := store.Get(order.ID)
	if err != nil {
		t.Fatalf("Store miss after place: %v", err)
	}

	price := 105.0
	if _, _, err := engine.ModifyOrder(order.ID, &price, nil); err != nil {
		t.Fatalf("ModifyOrder failed: %v", err)
	}

	if mirrored.Price != 100.0 {
		t.Errorf("Earlier mirror copy mutated in place: price=%f", mirrored.Price)
	}

	current, err := store.Get(order.ID)
	if err != nil {
		t.Fatalf("Store miss after modify: %v", err)
	}
	if current.Price != 105.0 {
		t.Errorf("Mirror not updated by modify: price=%f", current.Price)
	}
}

// failingOrderStore refuses every write, for error-path tests
type failingOrderStore struct{}

func (failingOrderStore) Save(*types.Order) error { return errors.New("store down") }
func (failingOrderStore) Get(uint64) (*types.Order, error) {
	return nil, errors.New("store down")
}
func (failingOrderStore) Remove(uint64) error               { return errors.New("store down") }
func (failingOrderStore) GetAll() []*types.Order            { return nil }
func (failingOrderStore) GetByUser(string) []*types.Order   { return nil }
func (failingOrderStore) GetBySymbol(string) []*types.Order { return nil }
func (failingOrderStore) Close() error                      { return nil }

type failingTradeStore struct{}

func (failingTradeStore) Save(*types.Trade) error        { return errors.New("store down") }
func (failingTradeStore) SaveBatch([]*types.Trade) error { return errors.New("store down") }
func (failingTradeStore) GetRecent(int) ([]*types.Trade, error) {
	return nil, errors.New("store down")
}
func (failingTradeStore) Close() error { return nil }

// TestStoreFailuresNeverSurface verifies the mirrors stay best-effort:
// a dead store must not fail the trading call
func TestStoreFailuresNeverSurface(t *testing.T) {
	engine := matching.NewEngineWithStores(failingOrderStore{}, failingTradeStore{})
	defer engine.Close()

	order, _, err := engine.PlaceOrder(limitReq("AAPL", matching.Buy, 100.0, 10))
	if err != nil {
		t.Fatalf("PlaceOrder must succeed with a dead store, got %v", err)
	}
	if _, trades, err := engine.PlaceOrder(limitReq("AAPL", matching.Sell, 100.0, 10)); err != nil || len(trades) != 1 {
		t.Fatalf("Crossing place must succeed with a dead store, got %v / %d trades", err, len(trades))
	}
	if engine.GetOrder(order.ID) == nil {
		t.Error("Engine state must be intact despite store failures")
	}
}

// TestGenerateOrderIDUnique verifies ids are unique under concurrency
func TestGenerateOrderIDUnique(t *testing.T) {
	engine := matching.NewEngine()
	defer engine.Close()

	const n = 1000
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n/10; i++ {
				ids <- engine.GenerateOrderID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("Duplicate order id %d", id)
		}
		seen[id] = true
	}
}
