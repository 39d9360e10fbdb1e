package monitor

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"orderdesk/internal/model"
)

// ActionError is a user-facing rejection of a selection-driven action.
// Surfaced as a dismissible message; selection and draft state stay
// intact for retry.
type ActionError struct {
	Msg string
}

func (e *ActionError) Error() string { return e.Msg }

// NoChange is the modify draft's "keep server order type" sentinel.
const NoChange = "NO_CHANGE"

// LTPPlaceholder is shown until a last-traded-price lookup succeeds.
const LTPPlaceholder = "—"

// ModifyDraft captures one target pending order plus edited fields.
// Blank inputs mean "keep the server value" and are omitted from the
// patch, never sent as zero.
type ModifyDraft struct {
	Target model.CancelOrderItem `json:"target"`

	// User inputs, kept as entered. Blank = unchanged.
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	TriggerPrice string `json:"trigger_price"`
	OrderType    string `json:"order_type"` // NO_CHANGE or a display label

	// Display-only last traded price; placeholder until resolved.
	LTP string `json:"ltp"`
}

// ToggleSelection flips one row's selected state and returns the new
// state. Row identities are unique across buckets because they embed the
// order id or status.
func (m *Monitor) ToggleSelection(rowID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection[rowID] = !m.selection[rowID]
	return m.selection[rowID]
}

// ClearSelection drops every selected row.
func (m *Monitor) ClearSelection() {
	m.mu.Lock()
	m.selection = make(map[string]bool)
	m.mu.Unlock()
}

// Selection returns a copy of the current row selection.
func (m *Monitor) Selection() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.selection))
	for k, v := range m.selection {
		if v {
			out[k] = true
		}
	}
	return out
}

// selectedPendingLocked resolves the selection against the pending
// bucket. Selection outside pending is not actionable. Caller holds the
// lock.
func (m *Monitor) selectedPendingLocked() []model.OrderRecord {
	if m.book == nil {
		return nil
	}
	var rows []model.OrderRecord
	for i, r := range m.book.Pending {
		if m.selection[r.RowID(i)] {
			rows = append(rows, r)
		}
	}
	return rows
}

// CancelSelected sends one batched cancel for every selected pending row.
// On success the selection is cleared and a fresh poll is forced; on
// failure the selection stays for retry.
func (m *Monitor) CancelSelected(ctx context.Context) (model.Message, error) {
	m.mu.Lock()
	rows := m.selectedPendingLocked()
	m.mu.Unlock()

	if len(rows) == 0 {
		return nil, &ActionError{Msg: "No orders selected."}
	}

	items := make([]model.CancelOrderItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, model.CancelOrderItem{Name: r.Name, Symbol: r.Symbol, OrderID: r.OrderID})
	}

	msg, err := m.broker.CancelOrders(ctx, items)
	if err != nil {
		m.record(ctx, "cancel", strconv.Itoa(len(items))+" orders", model.OutcomeError)
		return nil, err
	}
	m.record(ctx, "cancel", strconv.Itoa(len(items))+" orders", model.OutcomeOK)
	if m.met != nil {
		m.met.OrdersCancelled.Inc()
	}

	m.ClearSelection()
	m.Poll(ctx, true)
	return msg, nil
}

// OpenModify seeds a ModifyDraft from the single selected pending row.
// Exactly one row must be selected. The row's price pre-fills when
// positive; quantity and trigger start blank meaning "unchanged". A
// best-effort LTP lookup runs in the background for display only; the
// returned draft is a snapshot, Draft serves the price once it lands.
func (m *Monitor) OpenModify(ctx context.Context) (*ModifyDraft, error) {
	m.mu.Lock()
	rows := m.selectedPendingLocked()
	m.mu.Unlock()

	if len(rows) == 0 {
		return nil, &ActionError{Msg: "Select one pending order to modify."}
	}
	if len(rows) > 1 {
		return nil, &ActionError{Msg: "Please select only one order to modify."}
	}

	row := rows[0]
	draft := &ModifyDraft{
		Target:    model.CancelOrderItem{Name: row.Name, Symbol: row.Symbol, OrderID: row.OrderID},
		OrderType: NoChange,
		LTP:       LTPPlaceholder,
	}
	if row.Price > 0 {
		draft.Price = strconv.FormatFloat(row.Price, 'f', -1, 64)
	}

	m.mu.Lock()
	m.draft = draft
	m.mu.Unlock()

	if row.Symbol != "" {
		go m.fetchLTP(ctx, draft, row.Symbol)
	}
	out := *draft
	return &out, nil
}

// fetchLTP resolves the last traded price for display. Failure is silent:
// the draft keeps its placeholder. The write lands on the monitor's live
// draft under the lock; callers only ever hold copies.
func (m *Monitor) fetchLTP(ctx context.Context, draft *ModifyDraft, symbol string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ltp, err := m.broker.LTP(ctx, symbol)
	if err != nil || ltp <= 0 {
		return
	}
	m.mu.Lock()
	if m.draft == draft {
		draft.LTP = strconv.FormatFloat(ltp, 'f', 2, 64)
	}
	m.mu.Unlock()
}

// Draft returns a copy of the open modify draft, or nil.
func (m *Monitor) Draft() *ModifyDraft {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil
	}
	out := *m.draft
	return &out
}

// CloseDraft discards the open modify draft.
func (m *Monitor) CloseDraft() {
	m.mu.Lock()
	m.draft = nil
	m.mu.Unlock()
}

// UpdateDraft overwrites the draft's edited fields.
func (m *Monitor) UpdateDraft(quantity, price, trigger, orderType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return &ActionError{Msg: "No modify in progress."}
	}
	m.draft.Quantity = quantity
	m.draft.Price = price
	m.draft.TriggerPrice = trigger
	if orderType != "" {
		m.draft.OrderType = orderType
	}
	return nil
}

// buildPatch validates the draft and produces the sparse modify patch.
// Validation order: field parses, then required fields for the chosen
// type, then the nothing-to-update check.
func buildPatch(d *ModifyDraft) (model.ModifyPatch, error) {
	patch := model.ModifyPatch{
		Name:    d.Target.Name,
		Symbol:  d.Target.Symbol,
		OrderID: d.Target.OrderID,
	}

	qtyStr := strings.TrimSpace(d.Quantity)
	priceStr := strings.TrimSpace(d.Price)
	trigStr := strings.TrimSpace(d.TriggerPrice)

	if qtyStr != "" {
		n, err := strconv.ParseInt(qtyStr, 10, 64)
		if err != nil || n <= 0 {
			return patch, &ActionError{Msg: "Quantity must be a positive integer."}
		}
		patch.Quantity = &n
	}
	if priceStr != "" {
		f, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || f <= 0 {
			return patch, &ActionError{Msg: "Price must be a positive number."}
		}
		patch.Price = &f
	}
	if trigStr != "" {
		f, err := strconv.ParseFloat(trigStr, 64)
		if err != nil || f <= 0 {
			return patch, &ActionError{Msg: "Trigger price must be a positive number."}
		}
		patch.TriggerPrice = &f
	}

	if d.OrderType != NoChange {
		canon, ok := model.CanonOrderType(d.OrderType)
		if !ok {
			return patch, &ActionError{Msg: "Unknown order type."}
		}
		if canon.RequiresPrice() && patch.Price == nil {
			return patch, &ActionError{Msg: "Selected Order Type requires Price."}
		}
		if canon.RequiresTrigger() && patch.TriggerPrice == nil {
			return patch, &ActionError{Msg: "Selected Order Type requires Trigger Price."}
		}
		ot := string(canon)
		patch.OrderType = &ot
	}

	if patch.OrderType == nil && patch.Quantity == nil && patch.Price == nil && patch.TriggerPrice == nil {
		return patch, &ActionError{Msg: "Nothing to update. Change Qty / Price / Trigger Price / Order Type."}
	}
	return patch, nil
}

// SubmitModify validates the open draft and sends one sparse modify
// request. On success the draft closes, the selection clears, and a
// fresh poll is forced; on failure the draft stays open for correction.
func (m *Monitor) SubmitModify(ctx context.Context) (model.Message, error) {
	m.mu.Lock()
	var draft *ModifyDraft
	if m.draft != nil {
		d := *m.draft
		draft = &d
	}
	m.mu.Unlock()
	if draft == nil {
		return nil, &ActionError{Msg: "No modify in progress."}
	}

	patch, err := buildPatch(draft)
	if err != nil {
		return nil, err
	}

	msg, err := m.broker.ModifyOrder(ctx, patch)
	if err != nil {
		m.record(ctx, "modify", patch.OrderID, model.OutcomeError)
		return nil, err
	}
	m.record(ctx, "modify", patch.OrderID, model.OutcomeOK)
	if m.met != nil {
		m.met.OrdersModified.Inc()
	}

	m.CloseDraft()
	m.ClearSelection()
	m.Poll(ctx, true)
	return msg, nil
}

func (m *Monitor) record(ctx context.Context, kind, detail, outcome string) {
	if m.journal == nil {
		return
	}
	err := m.journal.Record(ctx, model.AuditAction{
		Kind:    kind,
		Detail:  detail,
		Outcome: outcome,
		At:      time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[monitor] journal write failed: %v", err)
	}
}
