package composer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"orderdesk/internal/model"
)

// ErrSuperseded reports that a newer search was issued while this one was
// in flight. Not a failure: the caller drops the result silently.
var ErrSuperseded = errors.New("symbol search superseded")

// SymbolSearcher resolves symbol queries with most-recent-wins semantics.
// Issuing a new search cancels the in-flight one, and a stale response
// arriving after a newer request never overwrites fresher results: each
// request carries a generation token checked on settlement.
type SymbolSearcher struct {
	broker model.Broker

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewSymbolSearcher creates a searcher over the given broker.
func NewSymbolSearcher(brk model.Broker) *SymbolSearcher {
	return &SymbolSearcher{broker: brk}
}

// Search resolves query on the given exchange. Empty or whitespace-only
// input short-circuits to an empty list without a network call and
// without disturbing any in-flight search.
func (s *SymbolSearcher) Search(ctx context.Context, query string, exchange model.Exchange) ([]model.SymbolRef, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.SymbolRef{}, nil
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	refs, err := s.broker.SearchSymbols(reqCtx, query, string(exchange))

	s.mu.Lock()
	stale := gen != s.gen
	if !stale {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()

	if stale {
		return nil, ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	return refs, nil
}
