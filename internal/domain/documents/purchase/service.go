package purchase

import (
	"context"
	"fmt"
	"time"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/tx"
	"tradebook/internal/core/types"
	"tradebook/internal/domain"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
	"tradebook/pkg/logger"
	"tradebook/pkg/numerator"
)

// Service manages the purchase order lifecycle. Orders carry no stock or
// ledger effect until Receive; receipt is exactly-once, guarded by the
// pending status check inside the receiving transaction.
type Service struct {
	repo      Repository
	stock     *stock.Service
	ledger    *ledger.Service
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	stockService *stock.Service,
	ledgerService *ledger.Service,
	numeratorService *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		stock:     stockService,
		ledger:    ledgerService,
		numerator: numeratorService,
		txManager: txManager,
	}
}

// Create records a pending purchase order. No register is touched here.
func (s *Service) Create(ctx context.Context, order *Order) error {
	if err := order.Validate(ctx); err != nil {
		return err
	}
	order.Status = StatusPending

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// The sequence increment rides this transaction; a rollback
		// releases the number.
		if order.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PO"), nil, order.Date)
			if err != nil {
				return fmt.Errorf("generate order number: %w", err)
			}
			order.Number = number
		}

		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		if err := s.repo.SaveLines(ctx, order.ID, order.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"id", order.ID,
		"number", order.Number,
		"supplier", order.Supplier,
	)
	return nil
}

// GetByID retrieves an order with lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	order.Lines = lines

	return order, nil
}

// Update edits a pending order. Completed and cancelled orders are
// immutable.
func (s *Service) Update(ctx context.Context, order *Order) error {
	original, err := s.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := original.CanModify(); err != nil {
		return err
	}
	if err := order.Validate(ctx); err != nil {
		return err
	}
	order.Number = original.Number
	order.Status = StatusPending

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order.Touch()
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		if err := s.repo.SaveLines(ctx, order.ID, order.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order updated", "id", order.ID, "number", order.Number)
	return nil
}

// Receive confirms delivery of a pending order into the destination
// branch. Confirmed quantities are keyed by product and override the
// ordered ones; products absent from the override receive the ordered
// quantity, and a zero confirmation skips the line entirely.
//
// Stock increments, the outbound ledger entry for the confirmed total
// and the completed status are written in one transaction. A second
// Receive finds the order already completed and is rejected, so the
// stock effect lands exactly once.
func (s *Service) Receive(ctx context.Context, orderID id.ID, confirmed map[id.ID]types.Quantity, dest branch.Branch) (*Order, error) {
	if !dest.Valid() {
		return nil, apperror.NewValidation("unknown branch").
			WithDetail("branch", string(dest))
	}

	var order *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != StatusPending {
			return apperror.NewOrderClosed(order.ID.String(), string(order.Status))
		}

		receivedAt := time.Now().UTC()
		adjustments := make([]stock.Adjustment, 0, len(order.Lines))
		for i := range order.Lines {
			line := &order.Lines[i]

			quantity := line.Quantity
			if override, ok := confirmed[line.ProductID]; ok {
				if override.IsNegative() {
					return apperror.NewValidation("confirmed quantity must not be negative").
						WithDetail("lineNo", line.LineNo)
				}
				quantity = override
			}
			line.ReceivedQuantity = quantity
			if quantity.IsZero() {
				continue
			}

			adjustments = append(adjustments, stock.Adjustment{
				ProductID:  line.ProductID,
				Branch:     dest,
				Delta:      quantity,
				SourceID:   order.ID,
				SourceType: DocumentType,
				Period:     receivedAt,
			})
		}

		if err := s.stock.Apply(ctx, adjustments); err != nil {
			return err
		}

		entry := ledger.NewOutbound(
			ledger.EntryTypePurchase,
			receivedAt,
			fmt.Sprintf("Purchase %s from %s", order.Number, order.Supplier),
			order.ReceivedTotal(),
			dest,
		).WithSource(order.ID, DocumentType)
		if err := s.ledger.Append(ctx, entry); err != nil {
			return apperror.NewPartialFailure("ledger_append", err)
		}

		order.MarkReceived(dest, receivedAt)
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		if err := s.repo.SaveLines(ctx, order.ID, order.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order received",
		"id", order.ID,
		"number", order.Number,
		"branch", dest,
		"total", order.ReceivedTotal(),
	)
	return order, nil
}

// Cancel voids a pending order. Cancelled orders never touched stock, so
// there is nothing to revert.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != StatusPending {
			return apperror.NewOrderClosed(order.ID.String(), string(order.Status))
		}

		order.MarkCancelled()
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order cancelled", "id", orderID)
	return nil
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}
