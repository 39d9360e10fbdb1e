// Package monitor keeps a read-only view of remote order state fresh and
// forwards user-initiated cancel/modify intents. One timer-driven poll
// loop, at most one request in flight, most-recent-wins on overlap.
package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"orderdesk/internal/metrics"
	"orderdesk/internal/model"
)

// DefaultInterval is the auto-refresh period.
const DefaultInterval = 3000 * time.Millisecond

// Monitor polls the broker order book, diffs snapshots, and owns row
// selection and the modify draft. The exposed OrderBook is replaced
// atomically and only when its contents actually changed.
type Monitor struct {
	broker   model.Broker
	journal  model.ActionJournal // may be nil
	met      *metrics.Metrics    // may be nil
	interval time.Duration

	// OnUpdate, if set, fires after a changed snapshot is applied.
	// Called without the monitor lock held.
	OnUpdate func(book *model.OrderBook, lastUpdated time.Time)

	// OnRejected, if set, fires with orders newly seen in the rejected
	// bucket. Called without the monitor lock held.
	OnRejected func(orders []model.OrderRecord)

	mu          sync.Mutex
	book        *model.OrderBook
	lastUpdated time.Time
	visible     bool
	inFlight    bool
	gen         uint64
	cancel      context.CancelFunc
	selection   map[string]bool
	draft       *ModifyDraft
	seenOrders  map[string]bool // order ids already reported rejected
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithJournal attaches an action journal.
func WithJournal(j model.ActionJournal) Option {
	return func(m *Monitor) { m.journal = j }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Monitor) { m.met = met }
}

// New creates a Monitor. The view starts visible with an empty snapshot.
func New(brk model.Broker, opts ...Option) *Monitor {
	m := &Monitor{
		broker:     brk,
		interval:   DefaultInterval,
		visible:    true,
		selection:  make(map[string]bool),
		seenOrders: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run polls immediately, then on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.Poll(ctx, false)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			if m.cancel != nil {
				m.cancel()
			}
			m.mu.Unlock()
			return
		case <-ticker.C:
			m.Poll(ctx, false)
		}
	}
}

// SetVisible reports whether the viewing surface is currently visible.
// Timer polls are skipped while hidden to bound resource use.
func (m *Monitor) SetVisible(v bool) {
	m.mu.Lock()
	m.visible = v
	m.mu.Unlock()
}

// Snapshot returns the last applied order book (read-only; never mutate)
// and the time it last changed. The book is nil before the first
// successful poll.
func (m *Monitor) Snapshot() (*model.OrderBook, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book, m.lastUpdated
}

// Poll issues one fetch of the order book. Timer polls (force=false) are
// skipped while a previous poll is in flight or the surface is hidden.
// Forced polls (user refresh, post-mutation) cancel the in-flight request
// instead: most recent wins, never queued. A superseded poll's eventual
// settlement is discarded by generation check and is not an error.
func (m *Monitor) Poll(ctx context.Context, force bool) {
	m.mu.Lock()
	if !force {
		if m.inFlight {
			m.mu.Unlock()
			m.skip("in_flight")
			return
		}
		if !m.visible {
			m.mu.Unlock()
			m.skip("hidden")
			return
		}
	} else if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	gen := m.gen
	reqCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.inFlight = true
	m.mu.Unlock()

	book, err := m.broker.GetOrders(reqCtx)
	cancel()

	m.mu.Lock()
	if gen != m.gen {
		// Superseded while we were out. The winner owns the state now.
		m.mu.Unlock()
		if m.met != nil {
			m.met.PollsCancelled.Inc()
		}
		return
	}
	m.inFlight = false
	m.cancel = nil

	if err != nil {
		m.mu.Unlock()
		if errors.Is(err, context.Canceled) {
			if m.met != nil {
				m.met.PollsCancelled.Inc()
			}
			return
		}
		// Stale-but-valid beats empty: keep the previous snapshot.
		log.Printf("[monitor] orders refresh failed: %v", err)
		if m.met != nil {
			m.met.PollsFailed.Inc()
		}
		return
	}

	if m.book != nil && m.book.Equal(book) {
		m.mu.Unlock()
		if m.met != nil {
			m.met.PollsUnchanged.Inc()
		}
		return
	}

	first := m.book == nil
	m.book = book
	m.lastUpdated = time.Now().UTC()
	updated := m.lastUpdated
	newlyRejected := m.markRejectedLocked(book)
	if first {
		// Seed only: rejections that predate startup are old news.
		newlyRejected = nil
	}
	m.mu.Unlock()

	if m.met != nil {
		m.met.PollsApplied.Inc()
		for _, name := range model.BucketNames {
			m.met.BucketSize.WithLabelValues(name).Set(float64(len(book.Bucket(name))))
		}
	}
	if m.OnUpdate != nil {
		m.OnUpdate(book, updated)
	}
	if m.OnRejected != nil && len(newlyRejected) > 0 {
		m.OnRejected(newlyRejected)
	}
}

func (m *Monitor) skip(reason string) {
	if m.met != nil {
		m.met.PollsSkipped.WithLabelValues(reason).Inc()
	}
}

// markRejectedLocked returns rejected orders not seen before. Caller
// holds the lock.
func (m *Monitor) markRejectedLocked(book *model.OrderBook) []model.OrderRecord {
	var fresh []model.OrderRecord
	for i, r := range book.Rejected {
		id := r.RowID(i)
		if !m.seenOrders[id] {
			m.seenOrders[id] = true
			fresh = append(fresh, r)
		}
	}
	return fresh
}
