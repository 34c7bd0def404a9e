// Package export renders report data as XLSX workbooks.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
	"tradebook/internal/domain/reports"
)

const defaultSheet = "Sheet1"

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func finish(f *excelize.File) (*bytes.Buffer, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	_ = f.Close()
	return buf, nil
}

// LedgerWorkbook renders ledger entries as a workbook, newest first as
// the repository returns them.
func LedgerWorkbook(entries []ledger.Entry) (*bytes.Buffer, error) {
	const sheet = "Ledger"
	f, err := newWorkbook(sheet)
	if err != nil {
		return nil, err
	}

	header := []any{"Date", "Type", "Description", "In", "Out", "Branch"}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}

	for i, e := range entries {
		row := []any{
			e.Date.Format("2006-01-02"),
			string(e.Type),
			e.Description,
			e.AmountIn.InexactFloat64(),
			e.AmountOut.InexactFloat64(),
			string(e.Branch),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return finish(f)
}

// StockWorkbook renders branch balances as a workbook.
func StockWorkbook(balances []stock.Balance) (*bytes.Buffer, error) {
	const sheet = "Stock"
	f, err := newWorkbook(sheet)
	if err != nil {
		return nil, err
	}

	header := []any{"Product", "Branch", "Quantity"}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}

	for i, b := range balances {
		row := []any{
			b.ProductID.String(),
			string(b.Branch),
			b.Quantity.Int64(),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	return finish(f)
}

// ProfitWorkbook renders the profit dashboard as a workbook with a
// totals row at the bottom.
func ProfitWorkbook(report *reports.ProfitReport) (*bytes.Buffer, error) {
	const sheet = "Profit"
	f, err := newWorkbook(sheet)
	if err != nil {
		return nil, err
	}

	header := []any{"Product", "Quantity Sold", "Revenue", "Cost of Goods", "Profit"}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}

	row := 2
	for _, line := range report.Lines {
		values := []any{
			line.ProductName,
			line.QuantitySold.Int64(),
			line.Revenue.InexactFloat64(),
			line.CostOfGoods.InexactFloat64(),
			line.Profit.InexactFloat64(),
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return nil, err
		}
		row++
	}

	totals := []any{
		"Total",
		"",
		report.Revenue.InexactFloat64(),
		report.CostOfGoods.InexactFloat64(),
		report.Profit.InexactFloat64(),
	}
	if err := writeRow(f, sheet, row, totals); err != nil {
		return nil, err
	}
	return finish(f)
}
