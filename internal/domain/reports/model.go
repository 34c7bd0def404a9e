// Package reports builds the read-only dashboards: per-branch sales,
// profit and cash flow.
package reports

import (
	"time"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

// Period is a half-open reporting interval [From, To).
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate rejects empty or inverted periods.
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return apperror.NewValidation("report period is required")
	}
	if !p.To.After(p.From) {
		return apperror.NewValidation("period end must be after period start")
	}
	return nil
}

// BranchSales is one branch's line in the sales summary.
type BranchSales struct {
	Branch       branch.Branch `db:"branch" json:"branch"`
	SalesCount   int64         `db:"sales_count" json:"salesCount"`
	SalesTotal   types.Money   `db:"sales_total" json:"salesTotal"`
	ReturnsTotal types.Money   `db:"returns_total" json:"returnsTotal"`
}

// Net returns sales minus returns.
func (b BranchSales) Net() types.Money {
	return b.SalesTotal.Sub(b.ReturnsTotal)
}

// ProductSales aggregates what was sold of one product over a period.
type ProductSales struct {
	ProductID    id.ID          `db:"product_id" json:"productId"`
	ProductName  string         `db:"product_name" json:"productName"`
	QuantitySold types.Quantity `db:"quantity_sold" json:"quantitySold"`
	Revenue      types.Money    `db:"revenue" json:"revenue"`
}

// ProfitLine extends ProductSales with cost and margin. Cost of goods is
// quantity sold times the product's current purchase price, not the
// price that was current at sale time.
type ProfitLine struct {
	ProductSales
	CostOfGoods types.Money `json:"costOfGoods"`
	Profit      types.Money `json:"profit"`
}

// ProfitReport is the profit dashboard over a period.
type ProfitReport struct {
	Period Period       `json:"period"`
	Lines  []ProfitLine `json:"lines"`

	Revenue     types.Money `json:"revenue"`
	CostOfGoods types.Money `json:"costOfGoods"`
	Profit      types.Money `json:"profit"`
}
