package portfolio

import (
	"context"
	"log"

	"orderdesk/internal/model"
)

// Source is the slice of the broker this package needs.
type Source interface {
	GetPositions(ctx context.Context) ([]model.Position, error)
	ClosePositions(ctx context.Context, positions []model.Position) (model.Message, error)
	GetHoldings(ctx context.Context) ([]model.Holding, error)
}

// Service fetches positions and holdings and fills in client-side P&L
// where the broker leaves it blank.
type Service struct {
	src Source
}

// New creates a portfolio Service over the given broker.
func New(src Source) *Service {
	return &Service{src: src}
}

// Positions returns open positions with booked and net P&L computed.
func (s *Service) Positions(ctx context.Context) ([]model.Position, error) {
	positions, err := s.src.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range positions {
		EnrichPosition(&positions[i])
	}
	return positions, nil
}

// Holdings returns demat holdings with P&L computed against LTP.
func (s *Service) Holdings(ctx context.Context) ([]model.Holding, error) {
	holdings, err := s.src.GetHoldings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range holdings {
		EnrichHolding(&holdings[i])
	}
	return holdings, nil
}

// CloseAll squares off every open position with a market order per row.
func (s *Service) CloseAll(ctx context.Context) (model.Message, error) {
	positions, err := s.src.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	open := positions[:0]
	for _, p := range positions {
		if p.Quantity != 0 {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return model.Message{"No open positions."}, nil
	}
	msg, err := s.src.ClosePositions(ctx, open)
	if err != nil {
		log.Printf("[portfolio] close positions failed: %v", err)
		return nil, err
	}
	return msg, nil
}

// Summary returns aggregate P&L across positions and holdings.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	positions, err := s.Positions(ctx)
	if err != nil {
		return Summary{}, err
	}
	holdings, err := s.Holdings(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(positions, holdings), nil
}
