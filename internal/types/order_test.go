package types

import (
	"errors"
	"testing"
)

func TestNewOrderValidation(t *testing.T) {
	cases := []struct {
		name      string
		orderType OrderType
		side      SideType
		price     float64
		quantity  int
		wantErr   error
	}{
		{"valid limit buy", LimitOrder, Buy, 100.0, 10, nil},
		{"valid limit sell", LimitOrder, Sell, 100.0, 10, nil},
		{"valid market buy", MarketOrder, Buy, 0, 10, nil},
		{"zero quantity", LimitOrder, Buy, 100.0, 0, ErrInvalidQuantity},
		{"negative quantity", LimitOrder, Buy, 100.0, -1, ErrInvalidQuantity},
		{"zero limit price", LimitOrder, Buy, 0, 10, ErrInvalidPrice},
		{"negative limit price", LimitOrder, Sell, -10.0, 10, ErrInvalidPrice},
		{"market with price", MarketOrder, Buy, 100.0, 10, ErrInvalidPrice},
		{"no side", LimitOrder, NoActionSide, 100.0, 10, ErrInvalidSide},
		{"stop order", StopOrder, Buy, 100.0, 10, ErrInvalidOrderType},
		{"no order type", NoActionOrder, Buy, 100.0, 10, ErrInvalidOrderType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order, err := NewOrder(1, "user_test", "AAPL", tc.orderType, tc.side, tc.price, tc.quantity)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("Expected %v, got %v", tc.wantErr, err)
				}
				if order != nil {
					t.Error("Invalid input must not produce an order")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if order.Status != Pending {
				t.Errorf("New order must be PENDING, got %s", order.Status)
			}
			if order.Remaining != tc.quantity {
				t.Errorf("Remaining must equal quantity, got %d", order.Remaining)
			}
		})
	}
}

func TestOrderFillTransitions(t *testing.T) {
	order, err := NewOrder(1, "user_test", "AAPL", LimitOrder, Buy, 100.0, 10)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}

	order.Fill(4)
	if order.Status != PartiallyFilled || order.Remaining != 6 {
		t.Errorf("Expected PARTIALLY_FILLED / 6, got %s / %d", order.Status, order.Remaining)
	}
	if !order.IsOpen() || order.IsTerminal() {
		t.Error("Partially filled order must be open and non-terminal")
	}

	order.Fill(6)
	if order.Status != Filled || order.Remaining != 0 {
		t.Errorf("Expected FILLED / 0, got %s / %d", order.Status, order.Remaining)
	}
	if order.IsOpen() || !order.IsTerminal() {
		t.Error("Filled order must be terminal and not open")
	}
}

func TestTerminalStatuses(t *testing.T) {
	cases := []struct {
		status   OrderStatus
		terminal bool
	}{
		{Pending, false},
		{PartiallyFilled, false},
		{Filled, true},
		{Cancelled, true},
		{Rejected, true},
	}

	for _, tc := range cases {
		order := &Order{Status: tc.status, Remaining: 1}
		if order.IsTerminal() != tc.terminal {
			t.Errorf("%s: expected terminal=%v", tc.status, tc.terminal)
		}
	}
}

func TestSideHelpers(t *testing.T) {
	if Buy.Opposite() != Sell || Sell.Opposite() != Buy {
		t.Error("Opposite() must swap Buy and Sell")
	}
	if Buy.String() != "BUY" || Sell.String() != "SELL" {
		t.Errorf("Unexpected side strings: %s / %s", Buy, Sell)
	}
}

func TestParseRoundTrips(t *testing.T) {
	for _, side := range []SideType{Buy, Sell} {
		if got := ParseSide(side.String()); got != side {
			t.Errorf("ParseSide(%s) = %v", side, got)
		}
	}
	if got := ParseSide("SIDEWAYS"); got != NoActionSide {
		t.Errorf("ParseSide of unknown input must return NoActionSide, got %v", got)
	}

	for _, ot := range []OrderType{MarketOrder, LimitOrder, StopOrder} {
		if got := ParseOrderType(ot.String()); got != ot {
			t.Errorf("ParseOrderType(%s) = %v", ot, got)
		}
	}
	if got := ParseOrderType("iceberg"); got != NoActionOrder {
		t.Errorf("ParseOrderType of unknown input must return NoActionOrder, got %v", got)
	}

	for _, st := range []OrderStatus{Pending, PartiallyFilled, Filled, Cancelled, Rejected} {
		if got := ParseStatus(st.String()); got != st {
			t.Errorf("ParseStatus(%s) = %v", st, got)
		}
	}
}
