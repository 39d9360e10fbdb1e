package model

import (
	"context"
	"time"
)

// ── Port Interfaces ──
// These interfaces decouple the composer and monitor from concrete
// implementations (broker HTTP client, Redis snapshot store, SQLite
// journal). Each implementation satisfies one or more of these.

// Broker is the brokerage backend as seen by this service. Every call is
// context-aware so an in-flight request can be cancelled and superseded.
type Broker interface {
	// GetOrders fetches the current five-bucket order book. Missing
	// buckets decode as empty, never as an error.
	GetOrders(ctx context.Context) (*OrderBook, error)

	// PlaceOrder submits one normalized order payload.
	PlaceOrder(ctx context.Context, payload PlaceOrderPayload) (*PlaceOrderAck, error)

	// CancelOrders submits one batched cancel for the given pending orders.
	CancelOrders(ctx context.Context, orders []CancelOrderItem) (Message, error)

	// ModifyOrder submits one sparse modify patch.
	ModifyOrder(ctx context.Context, patch ModifyPatch) (Message, error)

	// GetClients lists targetable client accounts.
	GetClients(ctx context.Context) ([]Client, error)

	// GetGroups lists client groups, normalized from the broker's loose shape.
	GetGroups(ctx context.Context) ([]Group, error)

	// SearchSymbols resolves a free-text query on the given exchange.
	SearchSymbols(ctx context.Context, query, exchange string) ([]SymbolRef, error)

	// LTP fetches the last traded price for a symbol. Best-effort only.
	LTP(ctx context.Context, symbol string) (float64, error)
}

// SnapshotStore persists the composer's form snapshot as raw JSON.
// Using []byte keeps the store ignorant of the intent schema.
// Writes are best-effort: callers swallow errors and degrade to
// non-persistent operation.
type SnapshotStore interface {
	// Load returns the stored snapshot, or nil, nil when none exists.
	Load(ctx context.Context) ([]byte, error)

	// Save overwrites the stored snapshot.
	Save(ctx context.Context, data []byte) error

	// Clear removes the stored snapshot.
	Clear(ctx context.Context) error
}

// Audit outcomes recorded in the journal.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// AuditAction is one user-initiated order action recorded in the journal.
type AuditAction struct {
	ID      int64     `json:"id"`
	Kind    string    `json:"kind"` // place, cancel, modify
	Detail  string    `json:"detail"`
	Outcome string    `json:"outcome"` // ok, error
	At      time.Time `json:"at"`
}

// ActionJournal records dispatched order actions for audit.
type ActionJournal interface {
	// Record appends one action. Failures are logged, never fatal.
	Record(ctx context.Context, a AuditAction) error

	// Recent returns the latest n actions, newest first.
	Recent(ctx context.Context, n int) ([]AuditAction, error)

	// Close releases underlying resources.
	Close() error
}
