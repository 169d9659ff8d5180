package panel

import (
	"math"
	"sort"

	"finpanel/internal/periods"
	"finpanel/pkg/contracts/domain"
)

// CompanyKey identifies a company entry inside the sector document
type CompanyKey struct {
	Sector  string
	Company string
}

// TickerLookup maps a company entry to its display ticker
type TickerLookup map[CompanyKey]string

// NewTickerLookup builds a lookup from (sector, company) pairs
func NewTickerLookup(pairs map[[2]string]string) TickerLookup {
	l := make(TickerLookup, len(pairs))
	for key, ticker := range pairs {
		l[CompanyKey{Sector: key[0], Company: key[1]}] = ticker
	}
	return l
}

// Ticker returns the mapped ticker, or the company key itself.
func (l TickerLookup) Ticker(sector, company string) string {
	if t, ok := l[CompanyKey{Sector: sector, Company: company}]; ok && t != "" {
		return t
	}
	return company
}

// Flatten walks the document sector -> company -> year -> quarter and emits
// one row per quarter in that order. Missing metrics become NaN and every
// derived ratio goes through SafeDiv.
func Flatten(doc domain.SectorDocument, tickers TickerLookup) []domain.PanelRow {
	var rows []domain.PanelRow
	for _, sector := range doc.Sectors {
		for _, company := range sector.Companies {
			ticker := tickers.Ticker(sector.Name, company.Symbol)
			for _, year := range company.Years {
				for _, q := range year.Quarters {
					row := flattenPeriod(q.Period)
					row.Sector = sector.Name
					row.Company = company.Symbol
					row.Ticker = ticker
					row.Year = year.Year
					row.Quarter = q.Quarter
					row.PeriodEnd = periods.ApproximateEnd(year.Year, q.Quarter)
					deriveRatios(&row)
					rows = append(rows, row)
				}
			}
		}
	}
	return rows
}

func flattenPeriod(p domain.CleanedPeriod) domain.PanelRow {
	v := domain.ValueOr
	return domain.PanelRow{
		Revenue:            v(p.Profitability.Revenue),
		GrossProfit:        v(p.Profitability.GrossProfit),
		OperatingIncome:    v(p.Profitability.OperatingIncome),
		NetIncome:          v(p.Profitability.NetIncome),
		EPS:                v(p.Profitability.EPSBasic),
		Cash:               v(p.BalanceSheet.CashAndEquivalents),
		TotalAssets:        v(p.BalanceSheet.TotalAssets),
		TotalLiabilities:   v(p.BalanceSheet.TotalLiabilities),
		Equity:             v(p.BalanceSheet.ShareholdersEquity),
		LongTermDebt:       v(p.BalanceSheet.LongTermDebt),
		CurrentAssets:      v(p.BalanceSheet.CurrentAssets),
		CurrentLiabilities: v(p.BalanceSheet.CurrentLiabilities),
		CFO:                v(p.CashFlow.OperatingCashFlow),
		CapEx:              v(p.CashFlow.CapEx),
		FCF:                v(p.CashFlow.FreeCashFlow),
	}
}

// Regroup rebuilds a sector document from rows. Sector and company order
// follow first appearance; years and quarters are ascending. Ratio
// snapshots are not part of a row and come back empty.
func Regroup(rows []domain.PanelRow) domain.SectorDocument {
	var sectorOrder []string
	companyOrder := make(map[string][]string)
	acc := make(map[CompanyKey]map[int]map[int]domain.CleanedPeriod)

	for _, r := range rows {
		key := CompanyKey{Sector: r.Sector, Company: r.Company}
		if _, ok := companyOrder[r.Sector]; !ok {
			sectorOrder = append(sectorOrder, r.Sector)
			companyOrder[r.Sector] = nil
		}
		years, ok := acc[key]
		if !ok {
			years = make(map[int]map[int]domain.CleanedPeriod)
			acc[key] = years
			companyOrder[r.Sector] = append(companyOrder[r.Sector], r.Company)
		}
		if years[r.Year] == nil {
			years[r.Year] = make(map[int]domain.CleanedPeriod)
		}
		years[r.Year][r.Quarter] = periodFromRow(r)
	}

	doc := domain.SectorDocument{}
	for _, sector := range sectorOrder {
		s := domain.Sector{Name: sector}
		for _, company := range companyOrder[sector] {
			years := acc[CompanyKey{Sector: sector, Company: company}]
			entry := domain.CompanyEntry{Symbol: company}
			for _, y := range sortedKeys(years) {
				block := domain.YearBlock{Year: y}
				for _, q := range sortedKeys(years[y]) {
					block.Quarters = append(block.Quarters, domain.QuarterEntry{Quarter: q, Period: years[y][q]})
				}
				entry.Years = append(entry.Years, block)
			}
			s.Companies = append(s.Companies, entry)
		}
		doc.Sectors = append(doc.Sectors, s)
	}
	return doc
}

func periodFromRow(r domain.PanelRow) domain.CleanedPeriod {
	return domain.CleanedPeriod{
		Profitability: domain.Profitability{
			Revenue:         known(r.Revenue),
			GrossProfit:     known(r.GrossProfit),
			OperatingIncome: known(r.OperatingIncome),
			NetIncome:       known(r.NetIncome),
			EPSBasic:        known(r.EPS),
		},
		BalanceSheet: domain.BalanceSheet{
			CashAndEquivalents: known(r.Cash),
			TotalAssets:        known(r.TotalAssets),
			TotalLiabilities:   known(r.TotalLiabilities),
			ShareholdersEquity: known(r.Equity),
			LongTermDebt:       known(r.LongTermDebt),
			CurrentAssets:      known(r.CurrentAssets),
			CurrentLiabilities: known(r.CurrentLiabilities),
		},
		CashFlow: domain.CashFlow{
			OperatingCashFlow: known(r.CFO),
			CapEx:             known(r.CapEx),
			FreeCashFlow:      known(r.FCF),
		},
	}
}

func known(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return domain.Float(v)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
