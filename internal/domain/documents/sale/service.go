package sale

import (
	"context"
	"fmt"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/tx"
	"tradebook/internal/domain"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
	"tradebook/pkg/logger"
	"tradebook/pkg/numerator"
)

// Service translates sale records into stock register deltas and
// financial ledger entries.
//
// Every mutation runs the stock adjustment and the ledger append inside
// one transaction, so a crash mid-sequence rolls both back together.
type Service struct {
	repo      Repository
	stock     *stock.Service
	ledger    *ledger.Service
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new sale service.
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

// Create records a new sale and applies its stock and ledger effects.
// For direction=sale each line is checked against the available stock at
// the branch before anything is written.
func (s *Service) Create(ctx context.Context, doc *Sale) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stock.CheckAvailability(ctx, doc.StockRequirements()); err != nil {
			return err
		}

		// The sequence increment rides this transaction; a rollback
		// releases the number.
		if doc.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.InvoiceConfig(), nil, doc.Date)
			if err != nil {
				return fmt.Errorf("generate invoice number: %w", err)
			}
			doc.Number = number
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		if err := s.stock.Apply(ctx, doc.StockAdjustments(+1)); err != nil {
			return err
		}

		if entry := doc.LedgerEntry(); entry != nil {
			if err := s.ledger.Append(ctx, entry); err != nil {
				return apperror.NewPartialFailure("ledger_append", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale created",
		"id", doc.ID,
		"number", doc.Number,
		"direction", doc.Direction,
		"branch", doc.Branch,
	)
	return nil
}

// GetByID retrieves a sale with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update edits a sale. The stock register is moved from the original
// record's effect to the new one via revert-then-apply; applying the new
// deltas without the revert would double-count the change.
//
// No new ledger entry is written on edit. The ledger keeps the entry of
// the original record; see DESIGN.md for the recorded gap.
func (s *Service) Update(ctx context.Context, doc *Sale) error {
	original, err := s.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if err := original.CanModify(); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.Number = original.Number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.reapplyStock(ctx, original, doc); err != nil {
			return err
		}

		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale updated", "id", doc.ID, "number", doc.Number)
	return nil
}

// reapplyStock moves the register from old's effect to new's effect:
// revert old first, then check availability against the restored
// counters, then apply new. Caller owns the transaction.
func (s *Service) reapplyStock(ctx context.Context, old, new *Sale) error {
	if err := s.stock.Apply(ctx, old.StockAdjustments(-1)); err != nil {
		return fmt.Errorf("revert original: %w", err)
	}

	if err := s.stock.CheckAvailability(ctx, new.StockRequirements()); err != nil {
		return err
	}

	if err := s.stock.Apply(ctx, new.StockAdjustments(+1)); err != nil {
		return fmt.Errorf("apply new: %w", err)
	}
	return nil
}

// Delete reverts the sale's stock effect, appends a reversing ledger
// entry (the original entry is never removed) and soft-deletes the
// record.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := doc.CanModify(); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stock.Apply(ctx, doc.StockAdjustments(-1)); err != nil {
			return fmt.Errorf("revert stock: %w", err)
		}

		if entry := doc.ReversalEntry(); entry != nil {
			if err := s.ledger.Append(ctx, entry); err != nil {
				return apperror.NewPartialFailure("ledger_append", err)
			}
		}

		if err := s.repo.SetDeletionMark(ctx, docID, true); err != nil {
			return fmt.Errorf("mark deleted: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale deleted", "id", docID, "number", doc.Number)
	return nil
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}
