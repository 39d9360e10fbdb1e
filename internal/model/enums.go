package model

// Canonical enum values for the order wire payload. The UI shows a few
// display variants ("INTRADAY" for VALUEPLUS, "SL MARKET" for SL_MARKET);
// those are mapped through explicit finite tables, never ad-hoc string
// munging.

// Action is the order side.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// OrderType is the canonical order type code.
type OrderType string

const (
	OrderTypeLimit    OrderType = "LIMIT"
	OrderTypeMarket   OrderType = "MARKET"
	OrderTypeStopLoss OrderType = "STOPLOSS"
	OrderTypeSLMarket OrderType = "SL_MARKET"
)

// orderTypeDisplay maps every accepted display variant to its canonical
// code. Exactly one canonical counterpart per variant.
var orderTypeDisplay = map[string]OrderType{
	"LIMIT":     OrderTypeLimit,
	"MARKET":    OrderTypeMarket,
	"STOPLOSS":  OrderTypeStopLoss,
	"SL MARKET": OrderTypeSLMarket,
	"SL_MARKET": OrderTypeSLMarket,
}

// CanonOrderType resolves a display label or stored value to the canonical
// order type. Returns false for unknown labels.
func CanonOrderType(display string) (OrderType, bool) {
	ot, ok := orderTypeDisplay[display]
	return ot, ok
}

// RequiresPrice reports whether the order type needs a limit price.
func (t OrderType) RequiresPrice() bool {
	return t == OrderTypeLimit || t == OrderTypeStopLoss
}

// RequiresTrigger reports whether the order type needs a trigger price.
func (t OrderType) RequiresTrigger() bool {
	return t == OrderTypeStopLoss || t == OrderTypeSLMarket
}

// IsStop reports whether the order type is trigger-driven.
func (t OrderType) IsStop() bool { return t.RequiresTrigger() }

// ProductType is the brokerage product code.
type ProductType string

const (
	ProductValuePlus  ProductType = "VALUEPLUS" // shown as INTRADAY
	ProductDelivery   ProductType = "DELIVERY"
	ProductNormal     ProductType = "NORMAL"
	ProductSellFromDP ProductType = "SELLFROMDP"
	ProductBTST       ProductType = "BTST"
	ProductMTF        ProductType = "MTF"
)

// ProductTypes lists the supported products in display order.
var ProductTypes = []ProductType{
	ProductValuePlus, ProductDelivery, ProductNormal,
	ProductSellFromDP, ProductBTST, ProductMTF,
}

// Duration is the order time-in-force.
type Duration string

const (
	DurationDay Duration = "DAY"
	DurationIOC Duration = "IOC"
)

// QuantityMode selects manual entry or auto-calculated quantity.
type QuantityMode string

const (
	QuantityManual QuantityMode = "manual"
	QuantityAuto   QuantityMode = "auto"
)

// Exchange is a supported trading venue.
type Exchange string

const (
	ExchangeNSE   Exchange = "NSE"
	ExchangeBSE   Exchange = "BSE"
	ExchangeNSEFO Exchange = "NSEFO"
	ExchangeNSECD Exchange = "NSECD"
	ExchangeNCDEX Exchange = "NCDEX"
	ExchangeMCX   Exchange = "MCX"
	ExchangeBSEFO Exchange = "BSEFO"
	ExchangeBSECD Exchange = "BSECD"
)

// Exchanges lists the supported venues in display order.
var Exchanges = []Exchange{
	ExchangeNSE, ExchangeBSE, ExchangeNSEFO, ExchangeNSECD,
	ExchangeNCDEX, ExchangeMCX, ExchangeBSEFO, ExchangeBSECD,
}

// EntityMode says whether an order targets individual clients or groups.
type EntityMode string

const (
	EntityClients EntityMode = "clients"
	EntityGroups  EntityMode = "groups"
)
