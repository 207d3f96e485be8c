package types

import "errors"

// Failure taxonomy for the matching core. Every bad order is rejected
// with one of these; the engine never aborts the book over a single
// invalid request.
var (
	// ErrInvalidQuantity is returned for quantities <= 0
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice is returned for limit orders without a positive
	// price, or market orders that carry one
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidSide is returned when the side is not buy or sell
	ErrInvalidSide = errors.New("invalid order side")

	// ErrInvalidOrderType is returned for order types outside the
	// supported {market, limit} set
	ErrInvalidOrderType = errors.New("unsupported order type")

	// ErrOrderNotFound is returned by modify/cancel lookups on ids the
	// engine has never seen
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotModifiable is returned when the target order is already
	// filled, cancelled, or rejected
	ErrOrderNotModifiable = errors.New("order is not modifiable")

	// ErrUnknownSymbol is returned by read-side lookups only; placing an
	// order on a new symbol creates the book instead
	ErrUnknownSymbol = errors.New("unknown symbol")
)
