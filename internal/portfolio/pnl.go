package portfolio

import "orderdesk/internal/model"

// EnrichPosition fills net P&L from the row's averages and last traded
// price. Booked P&L comes from the broker; net P&L adds mark-to-market
// on the open quantity, long against buy average, short against sell
// average.
func EnrichPosition(p *model.Position) {
	switch {
	case p.Quantity > 0:
		p.NetPL = p.BookedPL + (p.LTP-p.BuyAvg)*float64(p.Quantity)
	case p.Quantity < 0:
		p.NetPL = p.BookedPL + (p.SellAvg-p.LTP)*float64(-p.Quantity)
	default:
		p.NetPL = p.BookedPL
	}
}

// EnrichHolding fills P&L from buy average and LTP.
func EnrichHolding(h *model.Holding) {
	h.PnL = (h.LTP - h.BuyAvg) * float64(h.Quantity)
}

// Summary aggregates P&L across the account.
type Summary struct {
	PositionsNetPL    float64 `json:"positions_net_pl"`
	PositionsBookedPL float64 `json:"positions_booked_pl"`
	HoldingsPnL       float64 `json:"holdings_pnl"`
	HoldingsValue     float64 `json:"holdings_value"`
	TotalPnL          float64 `json:"total_pnl"`
	OpenPositions     int     `json:"open_positions"`
}

// Summarize folds enriched positions and holdings into one Summary.
func Summarize(positions []model.Position, holdings []model.Holding) Summary {
	var s Summary
	for _, p := range positions {
		s.PositionsNetPL += p.NetPL
		s.PositionsBookedPL += p.BookedPL
		if p.Quantity != 0 {
			s.OpenPositions++
		}
	}
	for _, h := range holdings {
		s.HoldingsPnL += h.PnL
		s.HoldingsValue += h.LTP * float64(h.Quantity)
	}
	s.TotalPnL = s.PositionsNetPL + s.HoldingsPnL
	return s
}
