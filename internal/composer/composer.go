package composer

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"orderdesk/internal/model"
)

// ValidationError is a local, synchronous rejection of the current intent.
// It blocks submission and is surfaced to the user as-is; form state stays
// untouched so the user can correct and retry.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Composer maintains the order-entry Intent, persists it after every
// mutation, and turns it into a wire payload on submit. Single writer:
// all mutations go through Apply/Reset under the mutex.
type Composer struct {
	store   model.SnapshotStore
	broker  model.Broker
	journal model.ActionJournal // may be nil

	mu     sync.Mutex
	intent Intent
}

// New creates a Composer and restores the persisted intent snapshot.
// Any read or parse failure silently falls back to defaults.
func New(ctx context.Context, store model.SnapshotStore, brk model.Broker, jnl model.ActionJournal) *Composer {
	c := &Composer{store: store, broker: brk, journal: jnl, intent: DefaultIntent()}
	c.Restore(ctx)
	return c
}

// Restore loads the persisted snapshot and merges it onto defaults.
func (c *Composer) Restore(ctx context.Context) {
	data, err := c.store.Load(ctx)
	if err != nil {
		log.Printf("[composer] snapshot load failed, using defaults: %v", err)
		return
	}
	c.mu.Lock()
	c.intent = DecodeSnapshot(data)
	c.mu.Unlock()
	if len(data) > 0 {
		log.Printf("[composer] restored form snapshot (%d bytes)", len(data))
	}
}

// Intent returns a copy of the current form state.
func (c *Composer) Intent() Intent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneIntent(c.intent)
}

// Apply merges a sparse field patch onto the current intent and persists
// the result. Unknown or malformed fields are ignored, matching the
// defensive snapshot merge.
func (c *Composer) Apply(ctx context.Context, patch json.RawMessage) Intent {
	c.mu.Lock()
	c.intent = mergeSnapshot(c.intent, patch)
	next := cloneIntent(c.intent)
	c.mu.Unlock()

	c.persist(ctx, next)
	return next
}

// Reset clears the persisted snapshot and restores defaults.
func (c *Composer) Reset(ctx context.Context) Intent {
	if err := c.store.Clear(ctx); err != nil {
		log.Printf("[composer] snapshot clear failed: %v", err)
	}
	c.mu.Lock()
	c.intent = DefaultIntent()
	next := cloneIntent(c.intent)
	c.mu.Unlock()
	return next
}

// persist writes the snapshot best-effort. Storage trouble degrades the
// form to non-persistent, it never blocks or surfaces.
func (c *Composer) persist(ctx context.Context, intent Intent) {
	data, err := EncodeSnapshot(intent)
	if err != nil {
		log.Printf("[composer] snapshot encode failed: %v", err)
		return
	}
	if err := c.store.Save(ctx, data); err != nil {
		log.Printf("[composer] snapshot save failed: %v", err)
	}
}

// Validate checks the intent and returns the first applicable error:
// entities, then symbol, then trigger price for stop types, then quantity
// on the non-stop single-quantity path. Market orders are not failed for
// a stray price; Normalize coerces it to zero.
func Validate(i Intent) error {
	if i.GroupAcc {
		if len(i.SelectedGroups) == 0 {
			return &ValidationError{Msg: "Please select at least one group."}
		}
	} else if len(i.SelectedClients) == 0 {
		return &ValidationError{Msg: "Please select at least one client."}
	}

	if i.Symbol.IsZero() {
		return &ValidationError{Msg: "Please select a symbol."}
	}

	if i.OrderType.IsStop() {
		if i.TriggerPrice <= 0 {
			return &ValidationError{Msg: "Trigger price must be greater than zero for stop orders."}
		}
	} else if i.singleQtyActive() && i.Quantity <= 0 {
		return &ValidationError{Msg: "Quantity must be a positive integer."}
	}

	return nil
}

// Normalize deterministically maps a validated intent to the wire payload.
// Pure: same intent in, same payload out.
func Normalize(i Intent) model.PlaceOrderPayload {
	price := i.Price
	if i.OrderType == model.OrderTypeMarket {
		price = 0
	}

	// Shared quantity carries the effective value on the single-qty path,
	// and a safe 1 otherwise so downstream fallbacks never see zero.
	qty := int64(1)
	if i.singleQtyActive() && i.Quantity > 0 {
		qty = i.Quantity
	}

	perClient := map[string]int64{}
	if !i.GroupAcc && i.DiffQty {
		for _, cid := range i.SelectedClients {
			perClient[cid] = positiveOr(i.PerClientQty[cid], 1)
		}
	}
	perGroup := map[string]int64{}
	if i.GroupAcc && i.DiffQty {
		for _, gn := range i.SelectedGroups {
			perGroup[gn] = positiveOr(i.PerGroupQty[gn], 1)
		}
	}

	amo := "N"
	if i.AMO {
		amo = "Y"
	}

	return model.PlaceOrderPayload{
		GroupAcc:          i.GroupAcc,
		Groups:            append([]string{}, i.SelectedGroups...),
		Clients:           append([]string{}, i.SelectedClients...),
		Action:            string(i.Action),
		OrderType:         string(i.OrderType),
		ProductType:       string(i.ProductType),
		OrderDuration:     string(i.Duration),
		Exchange:          string(i.Exchange),
		Symbol:            i.Symbol.Value,
		Price:             price,
		TriggerPrice:      i.TriggerPrice,
		DisclosedQuantity: i.DisclosedQty,
		AMOOrder:          amo,
		QtySelection:      string(i.QtySelection),
		QuantityInLot:     qty,
		PerClientQty:      perClient,
		PerGroupQty:       perGroup,
		DiffQty:           i.DiffQty,
		Multiplier:        i.Multiplier,
	}
}

// Submit validates, normalizes and dispatches the current intent as one
// create-order request. Validation failures and backend errors come back
// as errors carrying the user-facing message; the form is never reset on
// success.
func (c *Composer) Submit(ctx context.Context) (*model.PlaceOrderAck, error) {
	intent := c.Intent()

	if err := Validate(intent); err != nil {
		return nil, err
	}

	payload := Normalize(intent)
	ack, err := c.broker.PlaceOrder(ctx, payload)
	if err != nil {
		c.record(ctx, "place", payload.Symbol, model.OutcomeError)
		return nil, err
	}
	c.record(ctx, "place", payload.Symbol, model.OutcomeOK)
	log.Printf("[composer] order placed: %s %s x%d on %s", payload.Action, payload.Symbol, payload.QuantityInLot, payload.Exchange)
	return ack, nil
}

func (c *Composer) record(ctx context.Context, kind, detail, outcome string) {
	if c.journal == nil {
		return
	}
	err := c.journal.Record(ctx, model.AuditAction{
		Kind:    kind,
		Detail:  detail,
		Outcome: outcome,
		At:      time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[composer] journal write failed: %v", err)
	}
}

func positiveOr(n, fallback int64) int64 {
	if n > 0 {
		return n
	}
	return fallback
}

func cloneIntent(i Intent) Intent {
	out := i
	out.SelectedClients = append([]string{}, i.SelectedClients...)
	out.SelectedGroups = append([]string{}, i.SelectedGroups...)
	out.PerClientQty = cloneQtyMap(i.PerClientQty)
	out.PerGroupQty = cloneQtyMap(i.PerGroupQty)
	return out
}

func cloneQtyMap(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
