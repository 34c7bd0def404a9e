package ledger

import (
	"context"
	"fmt"

	"tradebook/internal/core/id"
	"tradebook/pkg/logger"
)

// Service provides operations on the financial ledger. The document
// services write through Append inside their own transactions; reads
// feed reporting only and never drive business decisions.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append validates and records an entry.
func (s *Service) Append(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	logger.Debug(ctx, "ledger entry appended",
		"id", entry.ID,
		"type", entry.Type,
	)
	return nil
}

// List retrieves entries for reporting.
func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return s.repo.List(ctx, filter)
}

// EntriesFor returns the entries back-referencing a document.
func (s *Service) EntriesFor(ctx context.Context, sourceID id.ID) ([]Entry, error) {
	return s.repo.GetBySource(ctx, sourceID)
}

// Totals sums cash movement over the filtered entries.
func (s *Service) Totals(ctx context.Context, filter Filter) (Totals, error) {
	return s.repo.GetTotals(ctx, filter)
}
