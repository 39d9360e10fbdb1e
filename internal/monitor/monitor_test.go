package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"orderdesk/internal/model"
)

// fakeBroker serves queued order books and records cancel/modify calls.
// The n-th GetOrders call serves the n-th book; the last book repeats.
type fakeBroker struct {
	mu       sync.Mutex
	books    []*model.OrderBook
	ordersN  int
	err      error
	cancels  [][]model.CancelOrderItem
	modifies []model.ModifyPatch
	ltp      float64

	// block, when set, holds the first GetOrders call until released or
	// cancelled. ltpBlock does the same for the first LTP call.
	block    chan struct{}
	ltpBlock chan struct{}
}

func (f *fakeBroker) GetOrders(ctx context.Context) (*model.OrderBook, error) {
	f.mu.Lock()
	f.ordersN++
	n := f.ordersN
	block := f.block
	f.block = nil
	err := f.err
	var book *model.OrderBook
	if len(f.books) > 0 {
		idx := n - 1
		if idx >= len(f.books) {
			idx = len(f.books) - 1
		}
		book = f.books[idx]
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	book.Normalize()
	return book, nil
}

func (f *fakeBroker) ordersCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ordersN
}

func (f *fakeBroker) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeBroker) PlaceOrder(ctx context.Context, p model.PlaceOrderPayload) (*model.PlaceOrderAck, error) {
	return nil, nil
}

func (f *fakeBroker) CancelOrders(ctx context.Context, orders []model.CancelOrderItem) (model.Message, error) {
	f.cancels = append(f.cancels, orders)
	return model.Message{"Cancelled"}, nil
}

func (f *fakeBroker) ModifyOrder(ctx context.Context, patch model.ModifyPatch) (model.Message, error) {
	f.modifies = append(f.modifies, patch)
	return model.Message{"Modified"}, nil
}

func (f *fakeBroker) GetClients(ctx context.Context) ([]model.Client, error) { return nil, nil }
func (f *fakeBroker) GetGroups(ctx context.Context) ([]model.Group, error)   { return nil, nil }

func (f *fakeBroker) SearchSymbols(ctx context.Context, query, exchange string) ([]model.SymbolRef, error) {
	return nil, nil
}

func (f *fakeBroker) LTP(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	block := f.ltpBlock
	f.ltpBlock = nil
	ltp := f.ltp
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return ltp, nil
}

func pendingBook(orders ...model.OrderRecord) *model.OrderBook {
	b := &model.OrderBook{Pending: orders}
	b.Normalize()
	return b
}

func rec(name, symbol, orderID string) model.OrderRecord {
	return model.OrderRecord{
		Name: name, Symbol: symbol, OrderID: orderID,
		TransactionType: "BUY", Quantity: 1, Status: "Pending",
	}
}

func TestPoll_AppliesSnapshot(t *testing.T) {
	brk := &fakeBroker{books: []*model.OrderBook{pendingBook(rec("A", "RELIANCE", "1"))}}
	m := New(brk)

	m.Poll(context.Background(), false)

	book, lastUpdated := m.Snapshot()
	if book == nil || len(book.Pending) != 1 {
		t.Fatalf("expected applied snapshot, got %+v", book)
	}
	if lastUpdated.IsZero() {
		t.Error("lastUpdated must be set on apply")
	}
}

func TestPoll_UnchangedKeepsLastUpdated(t *testing.T) {
	book := pendingBook(rec("A", "RELIANCE", "1"))
	brk := &fakeBroker{books: []*model.OrderBook{book, pendingBook(rec("A", "RELIANCE", "1"))}}
	m := New(brk)

	m.Poll(context.Background(), false)
	_, first := m.Snapshot()

	time.Sleep(5 * time.Millisecond)
	m.Poll(context.Background(), false)
	_, second := m.Snapshot()

	if !second.Equal(first) {
		t.Errorf("identical snapshot must not bump lastUpdated: %v vs %v", first, second)
	}
}

func TestPoll_HiddenSkipsTimerPolls(t *testing.T) {
	brk := &fakeBroker{books: []*model.OrderBook{pendingBook()}}
	m := New(brk)
	m.SetVisible(false)

	m.Poll(context.Background(), false)
	if brk.ordersCalls() != 0 {
		t.Errorf("hidden timer poll must not hit the broker, got %d calls", brk.ordersCalls())
	}

	// A forced refresh still goes through.
	m.Poll(context.Background(), true)
	if brk.ordersCalls() != 1 {
		t.Errorf("forced poll must hit the broker, got %d calls", brk.ordersCalls())
	}
}

func TestPoll_ErrorKeepsStaleSnapshot(t *testing.T) {
	brk := &fakeBroker{books: []*model.OrderBook{pendingBook(rec("A", "RELIANCE", "1"))}}
	m := New(brk)
	m.Poll(context.Background(), false)

	brk.setErr(errors.New("backend down"))
	m.Poll(context.Background(), false)

	book, _ := m.Snapshot()
	if book == nil || len(book.Pending) != 1 {
		t.Errorf("failed poll must keep the previous snapshot, got %+v", book)
	}
}

func TestPoll_ForcedPollSupersedesInFlight(t *testing.T) {
	staleBook := pendingBook(rec("A", "STALE", "1"))
	freshBook := pendingBook(rec("A", "FRESH", "2"))
	release := make(chan struct{})
	brk := &fakeBroker{books: []*model.OrderBook{staleBook, freshBook}, block: release}
	m := New(brk)

	done := make(chan struct{})
	go func() {
		m.Poll(context.Background(), false)
		close(done)
	}()

	// Wait for the first poll to be in flight.
	deadline := time.After(2 * time.Second)
	for {
		m.mu.Lock()
		inFlight := m.inFlight
		m.mu.Unlock()
		if inFlight {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first poll never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	m.Poll(context.Background(), true)
	close(release)
	<-done

	book, _ := m.Snapshot()
	if book == nil || len(book.Pending) != 1 || book.Pending[0].Symbol != "FRESH" {
		t.Errorf("forced poll must win, got %+v", book)
	}
}

func TestPoll_RejectedNotifications(t *testing.T) {
	seed := &model.OrderBook{Rejected: []model.OrderRecord{rec("A", "OLD", "1")}}
	seed.Normalize()
	next := &model.OrderBook{
		Pending:  []model.OrderRecord{rec("A", "RELIANCE", "3")},
		Rejected: []model.OrderRecord{rec("A", "OLD", "1"), rec("B", "NEW", "2")},
	}
	next.Normalize()
	brk := &fakeBroker{books: []*model.OrderBook{seed, next}}

	m := New(brk)
	var fired [][]model.OrderRecord
	m.OnRejected = func(orders []model.OrderRecord) { fired = append(fired, orders) }

	// First snapshot seeds only.
	m.Poll(context.Background(), false)
	if len(fired) != 0 {
		t.Fatalf("startup rejections must not notify, got %v", fired)
	}

	m.Poll(context.Background(), false)
	if len(fired) != 1 {
		t.Fatalf("expected one notification, got %d", len(fired))
	}
	if len(fired[0]) != 1 || fired[0][0].Symbol != "NEW" {
		t.Errorf("expected only the new rejection, got %v", fired[0])
	}
}
