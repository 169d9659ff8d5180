package statements

import (
	"finpanel/internal/periods"
	"finpanel/pkg/contracts/domain"

	"github.com/tidwall/gjson"
)

// PeriodFilter selects which bucketed periods are kept
type PeriodFilter func(p periods.Period) bool

// AllPeriods keeps every period.
func AllPeriods() PeriodFilter {
	return func(periods.Period) bool { return true }
}

// Years keeps periods whose calendar year is listed. No years means all.
func Years(years ...int) PeriodFilter {
	if len(years) == 0 {
		return AllPeriods()
	}
	set := make(map[int]bool, len(years))
	for _, y := range years {
		set[y] = true
	}
	return func(p periods.Period) bool { return set[p.Year] }
}

// Filing is one dated, cleaned statement set
type Filing struct {
	FiscalDate string
	Annual     bool
	Period     domain.CleanedPeriod
}

// Skip is a filing that could not be used
type Skip struct {
	FiscalDate string
	Err        error
}

// Extraction is what an adapter produces for one company
type Extraction struct {
	Filings []Filing
	Skipped []Skip
	Stats   Stats
}

// Adapter hides one provider layout behind a common extraction contract
type Adapter interface {
	Name() string
	Extract(filter PeriodFilter) Extraction
}

// Adapter names
const (
	AdapterReports  = "report-list"
	AdapterConcepts = "xbrl-concepts"
)

// detectAdapter picks the adapter by probing what the documents can do.
// It returns nil when no document carries a usable report list.
func detectAdapter(raw Statements) Adapter {
	for _, doc := range [][]byte{raw.Financials, raw.BalanceSheet, raw.IncomeStatement, raw.CashFlow} {
		if hasConceptData(doc) {
			return &conceptAdapter{doc: gjson.ParseBytes(doc)}
		}
	}
	if hasReportList(raw.BalanceSheet) {
		return &reportAdapter{
			balance:  gjson.ParseBytes(raw.BalanceSheet),
			income:   parseOrEmpty(raw.IncomeStatement),
			cashFlow: parseOrEmpty(raw.CashFlow),
		}
	}
	return nil
}

func hasConceptData(doc []byte) bool {
	if len(doc) == 0 {
		return false
	}
	data := gjson.GetBytes(doc, "data")
	if !data.IsArray() {
		return false
	}
	items := data.Array()
	if len(items) == 0 {
		return true
	}
	for _, item := range items {
		if item.Get("report").IsObject() {
			return true
		}
	}
	return false
}

func hasReportList(doc []byte) bool {
	if len(doc) == 0 {
		return false
	}
	return gjson.GetBytes(doc, reportsQuarterly).IsArray() || gjson.GetBytes(doc, reportsAnnual).IsArray()
}

func parseOrEmpty(doc []byte) gjson.Result {
	if len(doc) == 0 {
		return gjson.Result{}
	}
	return gjson.ParseBytes(doc)
}
