package types

// LevelSnapshot aggregates one non-empty price level
type LevelSnapshot struct {
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	OrderCount int     `json:"order_count"`
}

// BookSnapshot is a read-only projection of one symbol's book.
// Bids are ordered highest price first, asks lowest price first.
type BookSnapshot struct {
	Symbol string          `json:"symbol"`
	Bids   []LevelSnapshot `json:"bids"`
	Asks   []LevelSnapshot `json:"asks"`
}

// BestBid returns the top bid level, or false if the side is empty
func (s *BookSnapshot) BestBid() (LevelSnapshot, bool) {
	if len(s.Bids) == 0 {
		return LevelSnapshot{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the top ask level, or false if the side is empty
func (s *BookSnapshot) BestAsk() (LevelSnapshot, bool) {
	if len(s.Asks) == 0 {
		return LevelSnapshot{}, false
	}
	return s.Asks[0], true
}
