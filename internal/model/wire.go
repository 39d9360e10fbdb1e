package model

import (
	"encoding/json"
	"strings"
)

// Message is a broker response message that may arrive as a single string
// or as an array of per-client strings. It always decodes to a slice.
type Message []string

func (m *Message) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = Message{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*m = Message(many)
	return nil
}

// String joins multi-line broker messages for display.
func (m Message) String() string { return strings.Join([]string(m), "\n") }

// PlaceOrderPayload is the normalized order intent on the wire, produced by
// the composer and posted to /place_order.
type PlaceOrderPayload struct {
	GroupAcc          bool             `json:"groupacc"`
	Groups            []string         `json:"groups"`
	Clients           []string         `json:"clients"`
	Action            string           `json:"action"`       // BUY | SELL
	OrderType         string           `json:"ordertype"`    // LIMIT | MARKET | STOPLOSS | SL_MARKET
	ProductType       string           `json:"producttype"`
	OrderDuration     string           `json:"orderduration"` // DAY | IOC
	Exchange          string           `json:"exchange"`
	Symbol            string           `json:"symbol"`
	Price             float64          `json:"price"`
	TriggerPrice      float64          `json:"triggerprice"`
	DisclosedQuantity int64            `json:"disclosedquantity"`
	AMOOrder          string           `json:"amoorder"` // Y | N
	QtySelection      string           `json:"qtySelection"` // manual | auto
	QuantityInLot     int64            `json:"quantityinlot"`
	PerClientQty      map[string]int64 `json:"perClientQty"`
	PerGroupQty       map[string]int64 `json:"perGroupQty"`
	DiffQty           bool             `json:"diffQty"`
	Multiplier        bool             `json:"multiplier"`
}

// PlaceOrderAck is the broker acknowledgement for a placed order. Extra
// ack fields beyond the message are carried through untouched.
type PlaceOrderAck struct {
	Message Message         `json:"message"`
	Raw     json.RawMessage `json:"-"`
}

// CancelOrderItem identifies one pending order in a batched cancel request.
type CancelOrderItem struct {
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	OrderID string `json:"order_id"`
}

// ModifyPatch is a sparse modify request: nil fields are omitted from the
// wire and mean "keep the server value", never zero.
type ModifyPatch struct {
	Name         string   `json:"name"`
	Symbol       string   `json:"symbol"`
	OrderID      string   `json:"order_id"`
	OrderType    *string  `json:"ordertype,omitempty"`
	Quantity     *int64   `json:"quantity,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	TriggerPrice *float64 `json:"triggerprice,omitempty"`
}
