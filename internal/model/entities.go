package model

// Client is one brokerage client account an order can target.
type Client struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// Group is a named set of clients, normalized from the broker's loose
// group shape ({name|group_name|id, members|clients, multiplier}).
type Group struct {
	GroupName   string   `json:"group_name"`
	NoOfClients int      `json:"no_of_clients"`
	Multiplier  float64  `json:"multiplier"`
	ClientNames []string `json:"client_names"`
}

// SymbolRef is a resolved tradeable symbol: the machine value sent to the
// broker plus the label shown to the user.
type SymbolRef struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// IsZero reports whether no symbol has been resolved.
func (s SymbolRef) IsZero() bool { return s.Value == "" && s.Label == "" }

// Position is one open position row from the broker, with client-side P&L.
type Position struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Product  string  `json:"product"`
	Quantity int64   `json:"quantity"` // signed: negative = net short
	BuyAvg   float64 `json:"buy_avg"`
	SellAvg  float64 `json:"sell_avg"`
	LTP      float64 `json:"ltp"`
	BookedPL float64 `json:"booked_pl"`
	NetPL    float64 `json:"net_pl"`
}

// Holding is one demat holding row from the broker.
type Holding struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Quantity int64   `json:"quantity"`
	BuyAvg   float64 `json:"buy_avg"`
	LTP      float64 `json:"ltp"`
	PnL      float64 `json:"pnl"`
}
