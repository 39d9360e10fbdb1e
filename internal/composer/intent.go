// Package composer owns the order-entry form state: one mutable Intent
// rebuilt on every field edit, persisted best-effort after each change,
// validated and normalized into a single wire payload on submit.
package composer

import (
	"encoding/json"

	"orderdesk/internal/model"
)

// Intent is the full order-entry form state. It outlives a single
// submission: created on startup from the restored snapshot or defaults,
// mutated field by field, reset only on explicit request.
//
// The JSON tags match the storage snapshot written by earlier revisions of
// this system, so legacy snapshots restore cleanly.
type Intent struct {
	Action       model.Action       `json:"action"`
	ProductType  model.ProductType  `json:"productType"`
	OrderType    model.OrderType    `json:"orderType"`
	QtySelection model.QuantityMode `json:"qtySelection"`

	GroupAcc   bool `json:"groupAcc"` // entity mode: true = groups
	DiffQty    bool `json:"diffQty"`  // per-entity quantity override
	Multiplier bool `json:"multiplier"`

	Quantity     int64           `json:"qty"`
	Exchange     model.Exchange  `json:"exchange"`
	Symbol       model.SymbolRef `json:"symbol"`
	Price        float64         `json:"price"`
	TriggerPrice float64         `json:"trigPrice"`
	DisclosedQty int64           `json:"disclosedQty"`

	Duration model.Duration `json:"timeForce"`
	AMO      bool           `json:"amo"`

	SelectedClients []string `json:"selectedClients"`
	SelectedGroups  []string `json:"selectedGroups"`

	PerClientQty map[string]int64 `json:"perClientQty"`
	PerGroupQty  map[string]int64 `json:"perGroupQty"`
}

// DefaultIntent returns the hard-coded form defaults.
func DefaultIntent() Intent {
	return Intent{
		Action:          model.ActionBuy,
		ProductType:     model.ProductValuePlus,
		OrderType:       model.OrderTypeLimit,
		QtySelection:    model.QuantityManual,
		Quantity:        1,
		Exchange:        model.ExchangeNSE,
		Duration:        model.DurationDay,
		SelectedClients: []string{},
		SelectedGroups:  []string{},
		PerClientQty:    map[string]int64{},
		PerGroupQty:     map[string]int64{},
	}
}

// EntityMode derives the active targeting mode from the GroupAcc toggle.
func (i *Intent) EntityMode() model.EntityMode {
	if i.GroupAcc {
		return model.EntityGroups
	}
	return model.EntityClients
}

// singleQtyActive reports whether one shared quantity applies to every
// selected entity. With DiffQty on, the shared field is inert (for groups
// always; for clients only once clients are selected).
func (i *Intent) singleQtyActive() bool {
	if i.GroupAcc {
		return !i.DiffQty
	}
	return !(i.DiffQty && len(i.SelectedClients) > 0)
}

// DecodeSnapshot restores an Intent from a stored snapshot, merging
// field by field onto the defaults. Absent or malformed fields keep their
// default; a partial or legacy snapshot is never rejected wholesale.
func DecodeSnapshot(data []byte) Intent {
	return mergeSnapshot(DefaultIntent(), data)
}

// mergeSnapshot overlays the fields present in data onto base. Also used
// for sparse field patches coming from the form surface.
func mergeSnapshot(base Intent, data []byte) Intent {
	intent := base
	if len(data) == 0 {
		return intent
	}

	// Pointer shadow: only fields present in the snapshot overwrite.
	var s struct {
		Action       *string          `json:"action"`
		ProductType  *string          `json:"productType"`
		OrderType    *string          `json:"orderType"`
		QtySelection *string          `json:"qtySelection"`
		GroupAcc     *bool            `json:"groupAcc"`
		DiffQty      *bool            `json:"diffQty"`
		Multiplier   *bool            `json:"multiplier"`
		Quantity     *flexInt         `json:"qty"`
		Exchange     *string          `json:"exchange"`
		Symbol       *model.SymbolRef `json:"symbol"`
		Price        *flexFloat       `json:"price"`
		TriggerPrice *flexFloat       `json:"trigPrice"`
		DisclosedQty *flexInt         `json:"disclosedQty"`
		Duration     *string          `json:"timeForce"`
		AMO          *bool            `json:"amo"`
		Clients      []string         `json:"selectedClients"`
		Groups       []string         `json:"selectedGroups"`
		PerClientQty map[string]int64 `json:"perClientQty"`
		PerGroupQty  map[string]int64 `json:"perGroupQty"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return intent
	}

	if s.Action != nil {
		if a := model.Action(normalizeUpper(*s.Action)); a == model.ActionBuy || a == model.ActionSell {
			intent.Action = a
		}
	}
	if s.ProductType != nil {
		for _, pt := range model.ProductTypes {
			if model.ProductType(normalizeUpper(*s.ProductType)) == pt {
				intent.ProductType = pt
				break
			}
		}
	}
	if s.OrderType != nil {
		if ot, ok := model.CanonOrderType(normalizeUpper(*s.OrderType)); ok {
			intent.OrderType = ot
		}
	}
	if s.QtySelection != nil {
		if qm := model.QuantityMode(*s.QtySelection); qm == model.QuantityManual || qm == model.QuantityAuto {
			intent.QtySelection = qm
		}
	}
	if s.GroupAcc != nil {
		intent.GroupAcc = *s.GroupAcc
	}
	if s.DiffQty != nil {
		intent.DiffQty = *s.DiffQty
	}
	if s.Multiplier != nil {
		intent.Multiplier = *s.Multiplier
	}
	if s.Quantity != nil && int64(*s.Quantity) > 0 {
		intent.Quantity = int64(*s.Quantity)
	}
	if s.Exchange != nil {
		for _, ex := range model.Exchanges {
			if model.Exchange(normalizeUpper(*s.Exchange)) == ex {
				intent.Exchange = ex
				break
			}
		}
	}
	if s.Symbol != nil && !s.Symbol.IsZero() {
		intent.Symbol = *s.Symbol
	}
	if s.Price != nil {
		intent.Price = float64(*s.Price)
	}
	if s.TriggerPrice != nil {
		intent.TriggerPrice = float64(*s.TriggerPrice)
	}
	if s.DisclosedQty != nil {
		intent.DisclosedQty = int64(*s.DisclosedQty)
	}
	if s.Duration != nil {
		if d := model.Duration(normalizeUpper(*s.Duration)); d == model.DurationDay || d == model.DurationIOC {
			intent.Duration = d
		}
	}
	if s.AMO != nil {
		intent.AMO = *s.AMO
	}
	if s.Clients != nil {
		intent.SelectedClients = s.Clients
	}
	if s.Groups != nil {
		intent.SelectedGroups = s.Groups
	}
	if s.PerClientQty != nil {
		intent.PerClientQty = s.PerClientQty
	}
	if s.PerGroupQty != nil {
		intent.PerGroupQty = s.PerGroupQty
	}
	return intent
}

// EncodeSnapshot serializes the full intent for the snapshot store.
func EncodeSnapshot(intent Intent) ([]byte, error) {
	return json.Marshal(intent)
}
