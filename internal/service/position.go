package service

import (
	"context"

	"github.com/efreitasn/simmatch/internal/domain"
	"github.com/efreitasn/simmatch/internal/engine"
	"github.com/efreitasn/simmatch/internal/ledger"
)

// maxDepth bounds the number of book levels returned per side.
const maxDepth = 50

// BookDepth is an aggregated view of one symbol's resting orders.
type BookDepth struct {
	Symbol string
	Bids   []engine.PriceLevel
	Asks   []engine.PriceLevel
}

// PositionService reads live matching state through the worker.
type PositionService struct {
	manager *engine.Manager
}

// NewPositionService creates a new PositionService.
func NewPositionService(manager *engine.Manager) *PositionService {
	return &PositionService{manager: manager}
}

// Positions returns an account's position snapshot after every event queued
// so far has been applied.
func (s *PositionService) Positions(ctx context.Context, accountID string) ([]ledger.Position, error) {
	if err := validateAccountID(accountID); err != nil {
		return nil, err
	}
	var positions []ledger.Position
	var err error
	if qerr := s.manager.Query(ctx, func(v *engine.Venue) {
		positions, err = v.Positions(accountID)
	}); qerr != nil {
		return nil, qerr
	}
	return positions, err
}

// WorkingOrders returns an account's resting orders, oldest first.
func (s *PositionService) WorkingOrders(ctx context.Context, accountID string) ([]domain.Order, error) {
	if err := validateAccountID(accountID); err != nil {
		return nil, err
	}
	var orders []domain.Order
	var err error
	if qerr := s.manager.Query(ctx, func(v *engine.Venue) {
		orders, err = v.WorkingOrders(accountID)
	}); qerr != nil {
		return nil, qerr
	}
	return orders, err
}

// Depth returns up to levels aggregated price levels per side of symbol's
// resting book. The book is empty in quote mode.
func (s *PositionService) Depth(ctx context.Context, symbol string, levels int) (BookDepth, error) {
	if err := validateSymbol(symbol); err != nil {
		return BookDepth{}, err
	}
	if levels < 1 || levels > maxDepth {
		return BookDepth{}, &domain.ValidationError{Message: "levels must be between 1 and 50"}
	}
	depth := BookDepth{Symbol: symbol}
	if err := s.manager.Query(ctx, func(v *engine.Venue) {
		depth.Bids, depth.Asks = v.Depth(symbol, levels)
	}); err != nil {
		return BookDepth{}, err
	}
	return depth, nil
}
