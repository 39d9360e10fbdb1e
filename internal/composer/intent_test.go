package composer

import (
	"testing"

	"orderdesk/internal/model"
)

func TestDefaultIntent(t *testing.T) {
	i := DefaultIntent()
	if i.Action != model.ActionBuy {
		t.Errorf("expected BUY, got %v", i.Action)
	}
	if i.ProductType != model.ProductValuePlus {
		t.Errorf("expected VALUEPLUS, got %v", i.ProductType)
	}
	if i.OrderType != model.OrderTypeLimit {
		t.Errorf("expected LIMIT, got %v", i.OrderType)
	}
	if i.Quantity != 1 {
		t.Errorf("expected qty 1, got %d", i.Quantity)
	}
	if i.Exchange != model.ExchangeNSE {
		t.Errorf("expected NSE, got %v", i.Exchange)
	}
	if i.Duration != model.DurationDay {
		t.Errorf("expected DAY, got %v", i.Duration)
	}
	if i.SelectedClients == nil || i.SelectedGroups == nil {
		t.Error("selected collections must be non-nil")
	}
}

func TestDecodeSnapshot_EmptyAndMalformed(t *testing.T) {
	def := DefaultIntent()

	for _, data := range [][]byte{nil, {}, []byte("not json"), []byte("[1,2]")} {
		got := DecodeSnapshot(data)
		if got.Action != def.Action || got.Quantity != def.Quantity || got.OrderType != def.OrderType {
			t.Errorf("snapshot %q: expected defaults, got %+v", data, got)
		}
	}
}

func TestDecodeSnapshot_RoundTrip(t *testing.T) {
	want := DefaultIntent()
	want.Action = model.ActionSell
	want.OrderType = model.OrderTypeStopLoss
	want.Quantity = 25
	want.Price = 101.5
	want.TriggerPrice = 100.25
	want.GroupAcc = true
	want.DiffQty = true
	want.Symbol = model.SymbolRef{Value: "RELIANCE-EQ", Label: "RELIANCE"}
	want.SelectedGroups = []string{"alpha"}
	want.PerGroupQty = map[string]int64{"alpha": 10}

	data, err := EncodeSnapshot(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got := DecodeSnapshot(data)

	if got.Action != want.Action || got.OrderType != want.OrderType {
		t.Errorf("enum round trip mismatch: %+v", got)
	}
	if got.Quantity != 25 || got.Price != 101.5 || got.TriggerPrice != 100.25 {
		t.Errorf("numeric round trip mismatch: %+v", got)
	}
	if !got.GroupAcc || !got.DiffQty {
		t.Errorf("toggle round trip mismatch: %+v", got)
	}
	if got.Symbol != want.Symbol {
		t.Errorf("symbol round trip mismatch: %+v", got.Symbol)
	}
	if len(got.SelectedGroups) != 1 || got.SelectedGroups[0] != "alpha" {
		t.Errorf("groups round trip mismatch: %v", got.SelectedGroups)
	}
	if got.PerGroupQty["alpha"] != 10 {
		t.Errorf("per-group qty round trip mismatch: %v", got.PerGroupQty)
	}
}

func TestDecodeSnapshot_LegacyStringNumbers(t *testing.T) {
	got := DecodeSnapshot([]byte(`{"qty":"15","price":"99.5","trigPrice":"98"}`))
	if got.Quantity != 15 {
		t.Errorf("expected qty 15, got %d", got.Quantity)
	}
	if got.Price != 99.5 {
		t.Errorf("expected price 99.5, got %v", got.Price)
	}
	if got.TriggerPrice != 98 {
		t.Errorf("expected trigger 98, got %v", got.TriggerPrice)
	}
}

func TestDecodeSnapshot_InvalidValuesKeepDefaults(t *testing.T) {
	got := DecodeSnapshot([]byte(`{"action":"HOLD","orderType":"ICEBERG","exchange":"NYSE","qty":"-3","timeForce":"GTC"}`))
	def := DefaultIntent()
	if got.Action != def.Action {
		t.Errorf("unknown action must keep default, got %v", got.Action)
	}
	if got.OrderType != def.OrderType {
		t.Errorf("unknown order type must keep default, got %v", got.OrderType)
	}
	if got.Exchange != def.Exchange {
		t.Errorf("unknown exchange must keep default, got %v", got.Exchange)
	}
	if got.Quantity != def.Quantity {
		t.Errorf("non-positive qty must keep default, got %d", got.Quantity)
	}
	if got.Duration != def.Duration {
		t.Errorf("unknown duration must keep default, got %v", got.Duration)
	}
}

func TestDecodeSnapshot_DisplayOrderType(t *testing.T) {
	got := DecodeSnapshot([]byte(`{"orderType":"SL MARKET"}`))
	if got.OrderType != model.OrderTypeSLMarket {
		t.Errorf("expected SL_MARKET, got %v", got.OrderType)
	}
}

func TestDecodeSnapshot_PartialOverlay(t *testing.T) {
	// A patch touching one field must leave everything else intact.
	base := DefaultIntent()
	base.Quantity = 40
	base.Symbol = model.SymbolRef{Value: "TCS-EQ", Label: "TCS"}

	got := mergeSnapshot(base, []byte(`{"action":"sell"}`))
	if got.Action != model.ActionSell {
		t.Errorf("expected SELL, got %v", got.Action)
	}
	if got.Quantity != 40 {
		t.Errorf("patch must not reset qty, got %d", got.Quantity)
	}
	if got.Symbol.Value != "TCS-EQ" {
		t.Errorf("patch must not reset symbol, got %+v", got.Symbol)
	}
}

func TestSingleQtyActive(t *testing.T) {
	cases := []struct {
		name     string
		groupAcc bool
		diffQty  bool
		clients  []string
		want     bool
	}{
		{"clients no diff", false, false, []string{"C1"}, true},
		{"clients diff with selection", false, true, []string{"C1"}, false},
		{"clients diff empty selection", false, true, nil, true},
		{"groups no diff", true, false, nil, true},
		{"groups diff", true, true, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			i := DefaultIntent()
			i.GroupAcc = tc.groupAcc
			i.DiffQty = tc.diffQty
			i.SelectedClients = tc.clients
			if got := i.singleQtyActive(); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
