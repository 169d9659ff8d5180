package exporter

import (
	"fmt"
	"io"

	"finpanel/internal/panel"
	"finpanel/pkg/contracts/domain"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX export
const (
	SheetPanel   = "panel"
	SheetSummary = "summary"
)

// SummaryHeaders are the columns of the summary sheet
var SummaryHeaders = []string{
	"sector", "company", "ticker", "period",
	"revenue", "net_income", "fcf",
	"gross_margin", "net_margin", "roe", "current_ratio", "debt_to_equity",
}

// WritePanelXLSX writes a workbook with the raw panel and a formatted
// latest-period summary per company.
func WritePanelXLSX(w io.Writer, rows []domain.PanelRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPanel); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writePanelSheet(f, rows); err != nil {
		return err
	}
	if err := writeSummarySheet(f, rows); err != nil {
		return err
	}
	for _, sheet := range []string{SheetPanel, SheetSummary} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writePanelSheet(f *excelize.File, rows []domain.PanelRow) error {
	if err := setRow(f, SheetPanel, 1, toCells(PanelHeaders())); err != nil {
		return err
	}
	for i, r := range rows {
		cells := make([]interface{}, 0, len(domain.PanelColumns))
		for _, col := range domain.PanelColumns {
			switch col {
			case "sector":
				cells = append(cells, r.Sector)
			case "company":
				cells = append(cells, r.Company)
			case "ticker":
				cells = append(cells, r.Ticker)
			case "Year":
				cells = append(cells, r.Year)
			case "Quarter":
				cells = append(cells, r.Quarter)
			case "period_end":
				cells = append(cells, r.PeriodEnd.Format(domain.PeriodEndLayout))
			default:
				v, _ := r.Metric(col)
				cells = append(cells, cellValue(v))
			}
		}
		if err := setRow(f, SheetPanel, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

// writeSummarySheet lists the latest row of every company, sectors in
// first-appearance order.
func writeSummarySheet(f *excelize.File, rows []domain.PanelRow) error {
	if err := setRow(f, SheetSummary, 1, toCells(SummaryHeaders)); err != nil {
		return err
	}

	var sectors []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if !seen[r.Sector] {
			seen[r.Sector] = true
			sectors = append(sectors, r.Sector)
		}
	}

	line := 2
	for _, sector := range sectors {
		for _, r := range panel.SectorLatest(rows, sector) {
			cells := []interface{}{
				r.Sector, r.Company, r.Ticker, fmt.Sprintf("%d-Q%d", r.Year, r.Quarter),
				panel.FormatMoney(r.Revenue), panel.FormatMoney(r.NetIncome), panel.FormatMoney(r.FCF),
				panel.FormatPct(r.GrossMargin, 1), panel.FormatPct(r.NetMargin, 1), panel.FormatPct(r.ROE, 1),
				panel.FormatRatio(r.CurrentRatio, 2, panel.Missing), panel.FormatRatio(r.DebtToEquity, 2, panel.Missing),
			}
			if err := setRow(f, SheetSummary, line, cells); err != nil {
				return err
			}
			line++
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
