package statements

import (
	"errors"
	"fmt"
	"math"

	"finpanel/pkg/contracts/domain"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// ErrNoReports means the provider documents lack the minimal report list
// for the company. It is distinct from a company with some unknown periods.
var ErrNoReports = errors.New("statements: no report list in provider documents")

// Statements is the raw provider payload for one company. Any field may be
// empty when the provider did not deliver that document.
type Statements struct {
	BalanceSheet    []byte
	IncomeStatement []byte
	CashFlow        []byte
	Overview        []byte
	Financials      []byte // single-document XBRL concept layout
}

// Result is the normalized output for one company
type Result struct {
	Adapter string
	Profile domain.CompanyProfile
	Ratios  domain.RatiosBlock
	Filings []Filing
	Skipped []Skip
	Stats   Stats
}

// Normalize converts one company's raw statements into cleaned periods.
// It has no side effects; identical input yields identical output.
func Normalize(raw Statements, filter PeriodFilter) (*Result, error) {
	if filter == nil {
		filter = AllPeriods()
	}
	docs := []struct {
		name string
		data []byte
	}{
		{"balance sheet", raw.BalanceSheet},
		{"income statement", raw.IncomeStatement},
		{"cash flow", raw.CashFlow},
		{"overview", raw.Overview},
		{"financials", raw.Financials},
	}
	for _, doc := range docs {
		if len(doc.data) > 0 && !gjson.ValidBytes(doc.data) {
			return nil, fmt.Errorf("statements: %s is not valid JSON", doc.name)
		}
	}

	adapter := detectAdapter(raw)
	if adapter == nil {
		return nil, ErrNoReports
	}

	ex := adapter.Extract(filter)
	res := &Result{
		Adapter: adapter.Name(),
		Filings: ex.Filings,
		Skipped: ex.Skipped,
		Stats:   ex.Stats,
	}

	var overviewStats Stats
	res.Profile, res.Ratios = parseOverview(raw.Overview, &overviewStats)
	res.Stats.merge(overviewStats)
	return res, nil
}

// derive fills FreeCashFlow and EarningsQuality from fields already on the
// period, never from provider fields.
func derive(p *domain.CleanedPeriod) {
	cf := &p.CashFlow
	cf.FreeCashFlow = nil
	cf.EarningsQuality = nil

	if cf.OperatingCashFlow != nil && cf.CapEx != nil {
		cf.FreeCashFlow = domain.Float(*cf.OperatingCashFlow - math.Abs(*cf.CapEx))
	}

	ni := p.Profitability.NetIncome
	if cf.OperatingCashFlow != nil && ni != nil && *ni != 0 {
		eq, _ := decimal.NewFromFloat(*cf.OperatingCashFlow).
			Div(decimal.NewFromFloat(*ni)).
			Round(2).
			Float64()
		cf.EarningsQuality = domain.Float(eq)
	}
}

// parseOverview reads the company identity and valuation ratio snapshot.
func parseOverview(doc []byte, stats *Stats) (domain.CompanyProfile, domain.RatiosBlock) {
	if len(doc) == 0 {
		return domain.CompanyProfile{}, domain.RatiosBlock{}
	}
	ov := gjson.ParseBytes(doc)
	c := coercer{stats: stats}
	num := func(field string) *float64 {
		return c.number("overview."+field, ov.Get(field))
	}

	profile := domain.CompanyProfile{
		Symbol:               ov.Get("Symbol").String(),
		Name:                 ov.Get("Name").String(),
		CIK:                  ov.Get("CIK").String(),
		Exchange:             ov.Get("Exchange").String(),
		Sector:               ov.Get("Sector").String(),
		Industry:             ov.Get("Industry").String(),
		FiscalYearEnd:        ov.Get("FiscalYearEnd").String(),
		Country:              ov.Get("Country").String(),
		MarketCapitalization: num("MarketCapitalization"),
	}
	ratios := domain.RatiosBlock{
		PERatio:        num("PERatio"),
		PEGRatio:       num("PEGRatio"),
		PriceToBook:    num("PriceToBookRatio"),
		ProfitMargin:   num("ProfitMargin"),
		ReturnOnAssets: num("ReturnOnAssetsTTM"),
		ReturnOnEquity: num("ReturnOnEquityTTM"),
		DividendYield:  num("DividendYield"),
	}
	return profile, ratios
}
