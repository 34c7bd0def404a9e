package reports

import (
	"context"
	"fmt"

	"tradebook/internal/core/types"
	"tradebook/internal/domain/catalogs/product"
	"tradebook/internal/domain/registers/ledger"
)

// Service composes the dashboards from the report aggregates, the
// product catalog and the financial ledger.
type Service struct {
	repo     Repository
	products product.Repository
	ledger   *ledger.Service
}

// NewService creates a new reports service.
func NewService(repo Repository, products product.Repository, ledgerService *ledger.Service) *Service {
	return &Service{
		repo:     repo,
		products: products,
		ledger:   ledgerService,
	}
}

// SalesSummary returns per-branch sale and return totals for a period.
func (s *Service) SalesSummary(ctx context.Context, period Period) ([]BranchSales, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return s.repo.SalesByBranch(ctx, period)
}

// Profit returns the profit dashboard. Cost of goods is computed from
// each product's current purchase price at report time.
func (s *Service) Profit(ctx context.Context, period Period) (*ProfitReport, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	sold, err := s.repo.ProductSales(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("product sales: %w", err)
	}

	report := &ProfitReport{
		Period:      period,
		Lines:       make([]ProfitLine, 0, len(sold)),
		Revenue:     types.ZeroMoney(),
		CostOfGoods: types.ZeroMoney(),
		Profit:      types.ZeroMoney(),
	}
	for _, line := range sold {
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}

		cost := p.PurchasePrice.Mul(line.QuantitySold.Decimal())
		profit := line.Revenue.Sub(cost)

		report.Lines = append(report.Lines, ProfitLine{
			ProductSales: line,
			CostOfGoods:  cost,
			Profit:       profit,
		})
		report.Revenue = report.Revenue.Add(line.Revenue)
		report.CostOfGoods = report.CostOfGoods.Add(cost)
		report.Profit = report.Profit.Add(profit)
	}
	return report, nil
}

// CashFlow returns ledger in/out totals for a period.
func (s *Service) CashFlow(ctx context.Context, period Period) (ledger.Totals, error) {
	if err := period.Validate(); err != nil {
		return ledger.Totals{}, err
	}
	return s.ledger.Totals(ctx, ledger.Filter{
		FromDate: &period.From,
		ToDate:   &period.To,
	})
}
