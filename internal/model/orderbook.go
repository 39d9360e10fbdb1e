package model

import "strconv"

// OrderRecord is one broker-reported order row. The backend assigns each
// record to a status bucket; the client never recomputes bucket membership.
type OrderRecord struct {
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	TransactionType string  `json:"transaction_type"` // BUY, SELL
	Quantity        int64   `json:"quantity"`
	Price           float64 `json:"price"`
	Status          string  `json:"status"`
	OrderID         string  `json:"order_id"`
}

// RowID derives the stable row identity used for selection:
// "name-symbol-orderID", falling back to status and finally the row index
// when the broker omits an order id. idx is the record's position within
// its bucket.
func (r OrderRecord) RowID(idx int) string {
	tail := r.OrderID
	if tail == "" {
		tail = r.Status
	}
	if tail == "" {
		tail = strconv.Itoa(idx)
	}
	return r.Name + "-" + r.Symbol + "-" + tail
}

// OrderBook is the five status buckets fetched together in one poll.
// A nil slice and an empty slice are equivalent: a missing bucket in the
// broker response is treated as empty, never as an error.
type OrderBook struct {
	Pending   []OrderRecord `json:"pending"`
	Traded    []OrderRecord `json:"traded"`
	Rejected  []OrderRecord `json:"rejected"`
	Cancelled []OrderRecord `json:"cancelled"`
	Others    []OrderRecord `json:"others"`
}

// Bucket names in display order.
var BucketNames = []string{"pending", "traded", "rejected", "cancelled", "others"}

// Bucket returns the named bucket. Unknown names return nil.
func (b *OrderBook) Bucket(name string) []OrderRecord {
	switch name {
	case "pending":
		return b.Pending
	case "traded":
		return b.Traded
	case "rejected":
		return b.Rejected
	case "cancelled":
		return b.Cancelled
	case "others":
		return b.Others
	}
	return nil
}

// Normalize replaces nil buckets with empty slices so that two books with
// the same contents compare equal regardless of how they were decoded.
func (b *OrderBook) Normalize() {
	if b.Pending == nil {
		b.Pending = []OrderRecord{}
	}
	if b.Traded == nil {
		b.Traded = []OrderRecord{}
	}
	if b.Rejected == nil {
		b.Rejected = []OrderRecord{}
	}
	if b.Cancelled == nil {
		b.Cancelled = []OrderRecord{}
	}
	if b.Others == nil {
		b.Others = []OrderRecord{}
	}
}

// Equal reports full structural equality of two books, bucket by bucket.
// Used by the monitor to suppress redundant snapshot replacement.
func (b *OrderBook) Equal(other *OrderBook) bool {
	if other == nil {
		return false
	}
	return recordsEqual(b.Pending, other.Pending) &&
		recordsEqual(b.Traded, other.Traded) &&
		recordsEqual(b.Rejected, other.Rejected) &&
		recordsEqual(b.Cancelled, other.Cancelled) &&
		recordsEqual(b.Others, other.Others)
}

func recordsEqual(a, b []OrderRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Total returns the number of records across all buckets.
func (b *OrderBook) Total() int {
	return len(b.Pending) + len(b.Traded) + len(b.Rejected) + len(b.Cancelled) + len(b.Others)
}
