package stock

import (
	"context"
	"fmt"
	"time"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
	"tradebook/pkg/logger"
)

// Service provides business operations for the stock register.
// All mutations are expected to run inside the caller's transaction;
// the sale and purchase services own the transaction boundary.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Adjustment is one signed counter change attributed to a document.
type Adjustment struct {
	ProductID  id.ID
	Branch     branch.Branch
	Delta      types.Quantity
	SourceID   id.ID
	SourceType string
	Period     time.Time
}

// Apply adjusts counters and journals the movements. Deltas are applied
// unconditionally; negative balances are tolerated and surface in
// downstream displays rather than failing here.
func (s *Service) Apply(ctx context.Context, adjustments []Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	movements := make([]Movement, 0, len(adjustments))
	for i, a := range adjustments {
		if !a.Branch.Valid() {
			return apperror.NewValidation(fmt.Sprintf("adjustment %d: unknown branch", i)).
				WithDetail("branch", string(a.Branch))
		}
		if id.IsNil(a.SourceID) {
			return apperror.NewValidation(fmt.Sprintf("adjustment %d: source is required", i))
		}
		if a.Delta.IsZero() {
			continue
		}
		movements = append(movements, NewMovement(a.SourceID, a.SourceType, a.Period, a.Branch, a.ProductID, a.Delta))
	}

	for _, a := range adjustments {
		if a.Delta.IsZero() {
			continue
		}
		if err := s.repo.AdjustBalance(ctx, a.ProductID, a.Branch, a.Delta); err != nil {
			return fmt.Errorf("adjust balance: %w", err)
		}
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Debug(ctx, "stock adjusted", "count", len(movements))
	return nil
}

// Requirement is one line of an availability check.
type Requirement struct {
	ProductID id.ID
	Branch    branch.Branch
	Quantity  types.Quantity
}

// CheckAvailability verifies each requirement against the current counter,
// holding a row lock so the subsequent expense cannot race a concurrent
// writer. Fails on the first shortage, naming the offending item.
func (s *Service) CheckAvailability(ctx context.Context, requirements []Requirement) error {
	for _, req := range requirements {
		bal, err := s.repo.GetBalanceForUpdate(ctx, req.ProductID, req.Branch)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", req.ProductID, err)
		}
		if bal.Quantity < req.Quantity {
			return apperror.NewInsufficientStock(
				req.ProductID.String(),
				req.Branch.String(),
				req.Quantity.Int64(),
				bal.Quantity.Int64(),
			)
		}
	}
	return nil
}

// Counters returns the four named branch counters of a product.
func (s *Service) Counters(ctx context.Context, productID id.ID) (Counters, error) {
	balances, err := s.repo.GetBalancesByProduct(ctx, productID)
	if err != nil {
		return Counters{}, fmt.Errorf("get balances: %w", err)
	}

	var c Counters
	for _, b := range balances {
		switch b.Branch {
		case branch.Main:
			c.Main = b.Quantity
		case branch.Branch1:
			c.Branch1 = b.Quantity
		case branch.Branch2:
			c.Branch2 = b.Quantity
		case branch.Branch3:
			c.Branch3 = b.Quantity
		}
	}
	return c, nil
}

// BranchStock returns all products with stock at a branch.
func (s *Service) BranchStock(ctx context.Context, b branch.Branch) ([]Balance, error) {
	if !b.Valid() {
		return nil, apperror.NewValidation("unknown branch").WithDetail("branch", string(b))
	}
	return s.repo.GetBalancesByBranch(ctx, b)
}

// MovementHistory returns the journal for a product.
func (s *Service) MovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	return s.repo.GetMovements(ctx, productID, filter)
}

// GetTurnover generates a turnover report for the period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}
