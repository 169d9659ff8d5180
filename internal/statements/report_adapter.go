package statements

import (
	"fmt"
	"sort"

	"finpanel/internal/periods"
	"finpanel/pkg/contracts/domain"

	"github.com/tidwall/gjson"
)

const (
	reportsQuarterly = "quarterlyReports"
	reportsAnnual    = "annualReports"
	fiscalDateField  = "fiscalDateEnding"
)

// reportAdapter reads the report-list layout: one document per statement,
// each with annualReports/quarterlyReports arrays of string-valued records
// keyed by fiscalDateEnding.
type reportAdapter struct {
	balance  gjson.Result
	income   gjson.Result
	cashFlow gjson.Result
}

type reportRecord struct {
	balance  gjson.Result
	income   gjson.Result
	cashFlow gjson.Result
}

func (a *reportAdapter) Name() string { return AdapterReports }

// Extract joins the three statements on fiscal date. Quarterly reports are
// used when any statement has them; annual reports otherwise.
func (a *reportAdapter) Extract(filter PeriodFilter) Extraction {
	key, annual := reportsQuarterly, false
	if !a.hasReports(reportsQuarterly) {
		key, annual = reportsAnnual, true
	}

	var ex Extraction
	records, dates := a.join(key, &ex)

	for _, date := range dates {
		p, err := periods.Bucket(date)
		if err != nil {
			ex.Skipped = append(ex.Skipped, Skip{FiscalDate: date, Err: err})
			continue
		}
		if !filter(p) {
			continue
		}
		rec := records[date]
		c := coercer{stats: &ex.Stats, date: date}
		period := domain.CleanedPeriod{
			Profitability: domain.Profitability{
				Revenue:         c.number("totalRevenue", rec.income.Get("totalRevenue")),
				GrossProfit:     c.number("grossProfit", rec.income.Get("grossProfit")),
				OperatingIncome: c.number("operatingIncome", rec.income.Get("operatingIncome")),
				NetIncome:       c.number("netIncome", rec.income.Get("netIncome")),
				EPSBasic:        c.number("reportedEPS", rec.income.Get("reportedEPS")),
			},
			BalanceSheet: domain.BalanceSheet{
				CashAndEquivalents: c.first(rec.balance, "cashAndCashEquivalentsAtCarryingValue", "cashAndShortTermInvestments"),
				TotalAssets:        c.number("totalAssets", rec.balance.Get("totalAssets")),
				TotalLiabilities:   c.number("totalLiabilities", rec.balance.Get("totalLiabilities")),
				ShareholdersEquity: c.number("totalShareholderEquity", rec.balance.Get("totalShareholderEquity")),
				LongTermDebt:       c.first(rec.balance, "longTermDebt", "longTermDebtNoncurrent"),
				CurrentAssets:      c.number("totalCurrentAssets", rec.balance.Get("totalCurrentAssets")),
				CurrentLiabilities: c.number("totalCurrentLiabilities", rec.balance.Get("totalCurrentLiabilities")),
			},
			CashFlow: domain.CashFlow{
				OperatingCashFlow: c.number("operatingCashflow", rec.cashFlow.Get("operatingCashflow")),
				CapEx:             c.number("capitalExpenditures", rec.cashFlow.Get("capitalExpenditures")),
			},
		}
		// the cash flow statement repeats net income; use it when the income
		// statement has none
		if period.Profitability.NetIncome == nil {
			period.Profitability.NetIncome = c.number("netIncome", rec.cashFlow.Get("netIncome"))
		}
		derive(&period)
		ex.Filings = append(ex.Filings, Filing{FiscalDate: date, Annual: annual, Period: period})
	}
	return ex
}

func (a *reportAdapter) hasReports(key string) bool {
	for _, doc := range []gjson.Result{a.balance, a.income, a.cashFlow} {
		if len(doc.Get(key).Array()) > 0 {
			return true
		}
	}
	return false
}

// join groups the records of all three statements by fiscal day, ignoring
// any time component, and returns the days sorted ascending.
func (a *reportAdapter) join(key string, ex *Extraction) (map[string]*reportRecord, []string) {
	records := make(map[string]*reportRecord)
	var dates []string

	collect := func(doc gjson.Result, statement string, assign func(*reportRecord, gjson.Result)) {
		for i, item := range doc.Get(key).Array() {
			date := item.Get(fiscalDateField)
			if date.Type != gjson.String || date.Str == "" {
				ex.Skipped = append(ex.Skipped, Skip{
					FiscalDate: date.String(),
					Err:        fmt.Errorf("%s %s[%d] has no %s", statement, key, i, fiscalDateField),
				})
				continue
			}
			day := periods.TrimDate(date.Str)
			rec, ok := records[day]
			if !ok {
				rec = &reportRecord{}
				records[day] = rec
				dates = append(dates, day)
			}
			assign(rec, item)
		}
	}
	collect(a.balance, "balance sheet", func(r *reportRecord, v gjson.Result) { r.balance = v })
	collect(a.income, "income statement", func(r *reportRecord, v gjson.Result) { r.income = v })
	collect(a.cashFlow, "cash flow", func(r *reportRecord, v gjson.Result) { r.cashFlow = v })

	sort.Strings(dates)
	return records, dates
}
