package statements

import (
	"fmt"
	"sort"
	"strings"

	"finpanel/internal/periods"
	"finpanel/pkg/contracts/domain"

	"github.com/tidwall/gjson"
)

// Concept fallbacks, most specific first. Names are compared without the
// taxonomy prefix.
var (
	conceptRevenue = []string{
		"Revenues",
		"RevenueFromContractWithCustomerExcludingAssessedTax",
		"SalesRevenueNet",
		"RevenueFromContractWithCustomerIncludingAssessedTax",
	}
	conceptGrossProfit        = []string{"GrossProfit"}
	conceptOperatingIncome    = []string{"OperatingIncomeLoss"}
	conceptNetIncome          = []string{"NetIncomeLoss", "ProfitLoss", "NetIncomeLossAvailableToCommonStockholdersBasic"}
	conceptEPSBasic           = []string{"EarningsPerShareBasic"}
	conceptCash               = []string{"CashAndCashEquivalentsAtCarryingValue", "CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents"}
	conceptTotalAssets        = []string{"Assets"}
	conceptTotalLiabilities   = []string{"Liabilities"}
	conceptEquity             = []string{"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"}
	conceptLongTermDebt       = []string{"LongTermDebtNoncurrent", "LongTermDebt"}
	conceptCurrentAssets      = []string{"AssetsCurrent"}
	conceptCurrentLiabilities = []string{"LiabilitiesCurrent"}
	conceptOperatingCashFlow  = []string{"NetCashProvidedByUsedInOperatingActivities", "NetCashProvidedByOperatingActivities"}
	conceptCapEx              = []string{"PaymentsToAcquirePropertyPlantAndEquipment", "PaymentsToAcquireProductiveAssets"}
)

// conceptAdapter reads the XBRL concept layout: a single document whose
// data[] entries carry report.bs/ic/cf lists of {concept, value} pairs.
type conceptAdapter struct {
	doc gjson.Result
}

type conceptReport struct {
	date   string
	annual bool
	bs     map[string]gjson.Result
	ic     map[string]gjson.Result
	cf     map[string]gjson.Result
}

func (a *conceptAdapter) Name() string { return AdapterConcepts }

// Extract uses 10-Q style entries when present and falls back to annual
// (10-K style) entries otherwise.
func (a *conceptAdapter) Extract(filter PeriodFilter) Extraction {
	var ex Extraction
	var quarterly, annual []conceptReport

	for i, item := range a.doc.Get("data").Array() {
		date := item.Get("endDate").String()
		if date == "" {
			ex.Skipped = append(ex.Skipped, Skip{Err: fmt.Errorf("data[%d] has no endDate", i)})
			continue
		}
		if !item.Get("report").IsObject() {
			ex.Skipped = append(ex.Skipped, Skip{FiscalDate: date, Err: fmt.Errorf("data[%d] has no report", i)})
			continue
		}
		rep := conceptReport{
			date:   date,
			annual: isAnnualForm(item),
			bs:     conceptMap(item.Get("report.bs")),
			ic:     conceptMap(item.Get("report.ic")),
			cf:     conceptMap(item.Get("report.cf")),
		}
		if rep.annual {
			annual = append(annual, rep)
		} else {
			quarterly = append(quarterly, rep)
		}
	}

	reports := quarterly
	if len(reports) == 0 {
		reports = annual
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].date < reports[j].date })

	for _, rep := range reports {
		p, err := periods.Bucket(rep.date)
		if err != nil {
			ex.Skipped = append(ex.Skipped, Skip{FiscalDate: rep.date, Err: err})
			continue
		}
		if !filter(p) {
			continue
		}
		fiscal := periods.TrimDate(rep.date)
		c := coercer{stats: &ex.Stats, date: fiscal}
		period := domain.CleanedPeriod{
			Profitability: domain.Profitability{
				Revenue:         lookup(c, rep.ic, conceptRevenue),
				GrossProfit:     lookup(c, rep.ic, conceptGrossProfit),
				OperatingIncome: lookup(c, rep.ic, conceptOperatingIncome),
				NetIncome:       lookup(c, rep.ic, conceptNetIncome),
				EPSBasic:        lookup(c, rep.ic, conceptEPSBasic),
			},
			BalanceSheet: domain.BalanceSheet{
				CashAndEquivalents: lookup(c, rep.bs, conceptCash),
				TotalAssets:        lookup(c, rep.bs, conceptTotalAssets),
				TotalLiabilities:   lookup(c, rep.bs, conceptTotalLiabilities),
				ShareholdersEquity: lookup(c, rep.bs, conceptEquity),
				LongTermDebt:       lookup(c, rep.bs, conceptLongTermDebt),
				CurrentAssets:      lookup(c, rep.bs, conceptCurrentAssets),
				CurrentLiabilities: lookup(c, rep.bs, conceptCurrentLiabilities),
			},
			CashFlow: domain.CashFlow{
				OperatingCashFlow: lookup(c, rep.cf, conceptOperatingCashFlow),
				CapEx:             lookup(c, rep.cf, conceptCapEx),
			},
		}
		if period.Profitability.NetIncome == nil {
			period.Profitability.NetIncome = lookup(c, rep.cf, conceptNetIncome)
		}
		derive(&period)
		ex.Filings = append(ex.Filings, Filing{FiscalDate: fiscal, Annual: rep.annual, Period: period})
	}
	return ex
}

func isAnnualForm(item gjson.Result) bool {
	form := strings.ToUpper(item.Get("form").String())
	switch {
	case strings.HasPrefix(form, "10-K"), strings.HasPrefix(form, "20-F"), strings.HasPrefix(form, "40-F"):
		return true
	case strings.HasPrefix(form, "10-Q"):
		return false
	}
	q := item.Get("quarter")
	return q.Exists() && q.Int() == 0
}

// conceptMap indexes a {concept, value} list by bare concept name; the
// first occurrence of a concept wins.
func conceptMap(list gjson.Result) map[string]gjson.Result {
	m := make(map[string]gjson.Result)
	for _, item := range list.Array() {
		name := bareConcept(item.Get("concept").String())
		if name == "" {
			continue
		}
		if _, seen := m[name]; !seen {
			m[name] = item.Get("value")
		}
	}
	return m
}

// bareConcept strips a taxonomy prefix: us-gaap_Assets, us-gaap:Assets and
// Assets all become Assets.
func bareConcept(concept string) string {
	if i := strings.LastIndexAny(concept, "_:"); i >= 0 {
		return concept[i+1:]
	}
	return concept
}

func lookup(c coercer, m map[string]gjson.Result, concepts []string) *float64 {
	for _, name := range concepts {
		if res, ok := m[name]; ok {
			if v := c.number(name, res); v != nil {
				return v
			}
		}
	}
	return nil
}
