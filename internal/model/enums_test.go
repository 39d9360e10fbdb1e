package model

import "testing"

func TestCanonOrderType_DisplayVariants(t *testing.T) {
	cases := []struct {
		display string
		want    OrderType
		ok      bool
	}{
		{"LIMIT", OrderTypeLimit, true},
		{"MARKET", OrderTypeMarket, true},
		{"STOPLOSS", OrderTypeStopLoss, true},
		{"SL MARKET", OrderTypeSLMarket, true},
		{"SL_MARKET", OrderTypeSLMarket, true},
		{"limit", "", false},
		{"AMO", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonOrderType(tc.display)
		if ok != tc.ok || got != tc.want {
			t.Errorf("CanonOrderType(%q) = %q, %v; want %q, %v", tc.display, got, ok, tc.want, tc.ok)
		}
	}
}

func TestOrderType_FieldRequirements(t *testing.T) {
	cases := []struct {
		ot      OrderType
		price   bool
		trigger bool
	}{
		{OrderTypeLimit, true, false},
		{OrderTypeMarket, false, false},
		{OrderTypeStopLoss, true, true},
		{OrderTypeSLMarket, false, true},
	}
	for _, tc := range cases {
		if got := tc.ot.RequiresPrice(); got != tc.price {
			t.Errorf("%s RequiresPrice = %v, want %v", tc.ot, got, tc.price)
		}
		if got := tc.ot.RequiresTrigger(); got != tc.trigger {
			t.Errorf("%s RequiresTrigger = %v, want %v", tc.ot, got, tc.trigger)
		}
		if got := tc.ot.IsStop(); got != tc.trigger {
			t.Errorf("%s IsStop = %v, want %v", tc.ot, got, tc.trigger)
		}
	}
}
