package model

import (
	"encoding/json"
	"testing"
)

func TestRowID_FallbackChain(t *testing.T) {
	cases := []struct {
		name string
		rec  OrderRecord
		idx  int
		want string
	}{
		{"order id", OrderRecord{Name: "A", Symbol: "RELIANCE", OrderID: "123", Status: "Pending"}, 0, "A-RELIANCE-123"},
		{"status fallback", OrderRecord{Name: "A", Symbol: "RELIANCE", Status: "Rejected"}, 0, "A-RELIANCE-Rejected"},
		{"index fallback", OrderRecord{Name: "A", Symbol: "RELIANCE"}, 4, "A-RELIANCE-4"},
		{"index zero", OrderRecord{Name: "B", Symbol: "TCS"}, 0, "B-TCS-0"},
		{"multi digit index", OrderRecord{Name: "B", Symbol: "TCS"}, 12, "B-TCS-12"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.RowID(tc.idx); got != tc.want {
				t.Errorf("RowID = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOrderBook_NormalizeAndBucket(t *testing.T) {
	var book OrderBook
	book.Normalize()
	for _, name := range BucketNames {
		if book.Bucket(name) == nil {
			t.Errorf("bucket %s nil after Normalize", name)
		}
	}
	if book.Bucket("nope") != nil {
		t.Error("unknown bucket must return nil")
	}
	if book.Total() != 0 {
		t.Errorf("empty book total = %d", book.Total())
	}
}

func TestOrderBook_Equal(t *testing.T) {
	rec := OrderRecord{Name: "A", Symbol: "RELIANCE", OrderID: "1", Status: "Pending", Quantity: 5}
	a := &OrderBook{Pending: []OrderRecord{rec}}
	b := &OrderBook{Pending: []OrderRecord{rec}}
	a.Normalize()
	b.Normalize()

	if !a.Equal(b) {
		t.Error("identical books must be equal")
	}
	if !a.Equal(&OrderBook{Pending: []OrderRecord{rec}}) {
		t.Error("nil and empty buckets must compare equal")
	}
	if a.Equal(nil) {
		t.Error("nil book must not be equal")
	}

	b.Pending[0].Price = 101.5
	if a.Equal(b) {
		t.Error("changed field must break equality")
	}

	c := &OrderBook{Pending: []OrderRecord{rec}, Traded: []OrderRecord{rec}}
	if a.Equal(c) {
		t.Error("extra traded row must break equality")
	}
}

func TestMessage_StringOrArray(t *testing.T) {
	var single Message
	if err := json.Unmarshal([]byte(`"done"`), &single); err != nil {
		t.Fatalf("scalar decode: %v", err)
	}
	if single.String() != "done" {
		t.Errorf("scalar message = %q", single.String())
	}

	var many Message
	if err := json.Unmarshal([]byte(`["a","b"]`), &many); err != nil {
		t.Fatalf("array decode: %v", err)
	}
	if many.String() != "a\nb" {
		t.Errorf("array message = %q", many.String())
	}

	var bad Message
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Error("numeric message must fail to decode")
	}
}
