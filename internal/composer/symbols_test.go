package composer

import (
	"context"
	"errors"
	"testing"
	"time"

	"orderdesk/internal/model"
)

// gateBroker blocks the first search until released so a second search
// can overtake it.
type gateBroker struct {
	fakeBroker
	entered chan struct{}
	release chan struct{}
	calls   int
}

func (g *gateBroker) SearchSymbols(ctx context.Context, query, exchange string) ([]model.SymbolRef, error) {
	g.calls++
	if g.calls == 1 {
		close(g.entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []model.SymbolRef{{Value: query + "-EQ", Label: query}}, nil
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	brk := &fakeBroker{}
	s := NewSymbolSearcher(brk)

	refs, err := s.Search(context.Background(), "   ", model.ExchangeNSE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refs == nil || len(refs) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", refs)
	}
	if brk.searchN != 0 {
		t.Errorf("empty query must not hit the broker, got %d calls", brk.searchN)
	}
}

func TestSearch_ReturnsResults(t *testing.T) {
	brk := &fakeBroker{searchRefs: []model.SymbolRef{{Value: "TCS-EQ", Label: "TCS"}}}
	s := NewSymbolSearcher(brk)

	refs, err := s.Search(context.Background(), "TCS", model.ExchangeNSE)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 1 || refs[0].Value != "TCS-EQ" {
		t.Errorf("unexpected results: %v", refs)
	}
}

func TestSearch_NewerQuerySupersedesOlder(t *testing.T) {
	brk := &gateBroker{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewSymbolSearcher(brk)

	type result struct {
		refs []model.SymbolRef
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		refs, err := s.Search(context.Background(), "RELI", model.ExchangeNSE)
		firstDone <- result{refs, err}
	}()

	<-brk.entered

	refs, err := s.Search(context.Background(), "RELIANCE", model.ExchangeNSE)
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}
	if len(refs) != 1 || refs[0].Label != "RELIANCE" {
		t.Errorf("unexpected second results: %v", refs)
	}

	close(brk.release)
	select {
	case got := <-firstDone:
		if !errors.Is(got.err, ErrSuperseded) {
			t.Errorf("expected ErrSuperseded for stale search, got %v %v", got.refs, got.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first search never settled")
	}
}
