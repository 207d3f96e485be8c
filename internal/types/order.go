package types

import (
	"fmt"
	"strings"
	"time"
)

// SideType represents which side of the book an order belongs to
type SideType int8

const (
	NoActionSide SideType = iota
	Buy
	Sell
)

func (s SideType) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book
func (s SideType) Opposite() SideType {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	default:
		return NoActionSide
	}
}

// ParseSide converts a string to a SideType (case-insensitive)
func ParseSide(side string) SideType {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "buy":
		return Buy
	case "sell":
		return Sell
	default:
		return NoActionSide
	}
}

// OrderType represents how an order interacts with resting liquidity
type OrderType int8

const (
	NoActionOrder OrderType = iota
	MarketOrder
	LimitOrder
	// StopOrder is recognized in the taxonomy but not accepted by the
	// engine; validation rejects it until triggering semantics exist.
	StopOrder
)

func (t OrderType) String() string {
	switch t {
	case MarketOrder:
		return "MARKET"
	case LimitOrder:
		return "LIMIT"
	case StopOrder:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// ParseOrderType converts a string to an OrderType (case-insensitive)
func ParseOrderType(orderType string) OrderType {
	switch strings.ToLower(strings.TrimSpace(orderType)) {
	case "market":
		return MarketOrder
	case "limit":
		return LimitOrder
	case "stop":
		return StopOrder
	default:
		return NoActionOrder
	}
}

// OrderStatus tracks an order through its lifecycle
type OrderStatus int8

const (
	Pending OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus converts a status string back to an OrderStatus
func ParseStatus(status string) OrderStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "PARTIALLY_FILLED":
		return PartiallyFilled
	case "FILLED":
		return Filled
	case "CANCELLED":
		return Cancelled
	case "REJECTED":
		return Rejected
	default:
		return Pending
	}
}

// Order is a single buy/sell instruction. Identity fields (ID, UserID,
// Symbol, Side, Type, Quantity, Timestamp) never change after acceptance;
// Price, Remaining and Status mutate under the owning book's lock.
type Order struct {
	ID        uint64      `json:"order_id"`
	UserID    string      `json:"user_id"`
	Symbol    string      `json:"symbol"`
	OrderType OrderType   `json:"order_type"`
	Side      SideType    `json:"side"`
	Price     float64     `json:"price"`
	Quantity  int         `json:"quantity"`
	Remaining int         `json:"remaining"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewOrder validates and constructs an order in Pending state.
// Market orders must not carry a price; limit orders require price > 0.
func NewOrder(id uint64, userID, symbol string, orderType OrderType, side SideType, price float64, quantity int) (*Order, error) {
	if side != Buy && side != Sell {
		return nil, fmt.Errorf("invalid side %d: %w", side, ErrInvalidSide)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", quantity, ErrInvalidQuantity)
	}
	switch orderType {
	case LimitOrder:
		if price <= 0 {
			return nil, fmt.Errorf("limit price %f: %w", price, ErrInvalidPrice)
		}
	case MarketOrder:
		if price != 0 {
			return nil, fmt.Errorf("market order carries price %f: %w", price, ErrInvalidPrice)
		}
	default:
		return nil, fmt.Errorf("order type %s not supported: %w", orderType, ErrInvalidOrderType)
	}

	return &Order{
		ID:        id,
		UserID:    userID,
		Symbol:    symbol,
		OrderType: orderType,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
		Status:    Pending,
		Timestamp: time.Now().UTC(),
	}, nil
}

// IsOpen reports whether the order can still rest, fill, or be cancelled
func (o *Order) IsOpen() bool {
	return o.Status == Pending || o.Status == PartiallyFilled
}

// IsTerminal reports whether the order has reached a final state
func (o *Order) IsTerminal() bool {
	return !o.IsOpen()
}

// Fill reduces the remaining quantity by qty and advances the status.
// Caller must hold the owning book's lock and ensure qty <= Remaining.
func (o *Order) Fill(qty int) {
	o.Remaining -= qty
	if o.Remaining == 0 {
		o.Status = Filled
	} else {
		o.Status = PartiallyFilled
	}
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%d symbol=%s %s %s qty=%d/%d price=%.2f status=%s}",
		o.ID, o.Symbol, o.Side, o.OrderType, o.Remaining, o.Quantity, o.Price, o.Status)
}
