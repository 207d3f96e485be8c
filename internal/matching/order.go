package matching

import "github.com/tradeforge/matching-engine/internal/types"

// Re-export core types so callers of the engine only need this package
type (
	OrderType   = types.OrderType
	SideType    = types.SideType
	OrderStatus = types.OrderStatus
	Order       = types.Order
	Trade       = types.Trade
)

// Re-export constants
const (
	NoActionOrder = types.NoActionOrder
	MarketOrder   = types.MarketOrder
	LimitOrder    = types.LimitOrder
	StopOrder     = types.StopOrder

	NoActionSide = types.NoActionSide
	Buy          = types.Buy
	Sell         = types.Sell

	Pending         = types.Pending
	PartiallyFilled = types.PartiallyFilled
	Filled          = types.Filled
	Cancelled       = types.Cancelled
	Rejected        = types.Rejected
)

// Re-export constructor
var NewOrder = types.NewOrder
