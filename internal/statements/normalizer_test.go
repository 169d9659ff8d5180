package statements

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finpanel/internal/periods"
	"finpanel/pkg/contracts/domain"
)

const (
	balanceQuarterly = `{
		"symbol": "ABT",
		"quarterlyReports": [
			{"fiscalDateEnding": "2024-06-30", "totalAssets": "74000", "totalLiabilities": "32000",
			 "totalShareholderEquity": "42000", "totalCurrentAssets": "24000", "totalCurrentLiabilities": "13000",
			 "cashAndCashEquivalentsAtCarryingValue": "6500", "longTermDebt": "None"},
			{"fiscalDateEnding": "2024-03-31", "totalAssets": "73000", "totalLiabilities": "31000",
			 "totalShareholderEquity": "42000", "totalCurrentAssets": "23000", "totalCurrentLiabilities": "0"}
		],
		"annualReports": [
			{"fiscalDateEnding": "2023-12-31", "totalAssets": "72000"}
		]
	}`
	incomeQuarterly = `{
		"quarterlyReports": [
			{"fiscalDateEnding": "2024-03-31", "totalRevenue": "10000", "grossProfit": "5500",
			 "operatingIncome": "1800", "netIncome": "1200", "reportedEPS": "0.70"},
			{"fiscalDateEnding": "2024-06-30", "totalRevenue": "10400", "grossProfit": "abc",
			 "operatingIncome": "", "netIncome": "0"}
		]
	}`
	cashFlowQuarterly = `{
		"quarterlyReports": [
			{"fiscalDateEnding": "2024-03-31", "operatingCashflow": "1600", "capitalExpenditures": "-400"},
			{"fiscalDateEnding": "2024-06-30", "operatingCashflow": "2100", "capitalExpenditures": "500"}
		]
	}`
	overviewDoc = `{
		"Symbol": "ABT", "Name": "Abbott Laboratories", "CIK": "1800", "Exchange": "NYSE",
		"Sector": "HEALTHCARE", "Industry": "MEDICAL DEVICES", "FiscalYearEnd": "December",
		"Country": "USA", "MarketCapitalization": "190000000000",
		"PERatio": "33.1", "PEGRatio": "None", "PriceToBookRatio": "4.9", "ProfitMargin": "0.14",
		"ReturnOnAssetsTTM": "0.061", "ReturnOnEquityTTM": "0.143", "DividendYield": "-"
	}`
)

func shapeA() Statements {
	return Statements{
		BalanceSheet:    []byte(balanceQuarterly),
		IncomeStatement: []byte(incomeQuarterly),
		CashFlow:        []byte(cashFlowQuarterly),
		Overview:        []byte(overviewDoc),
	}
}

func TestNormalize_ReportList(t *testing.T) {
	res, err := Normalize(shapeA(), AllPeriods())
	require.NoError(t, err)

	assert.Equal(t, AdapterReports, res.Adapter)
	require.Len(t, res.Filings, 2)
	assert.Equal(t, "2024-03-31", res.Filings[0].FiscalDate, "filings sorted by date")
	assert.False(t, res.Filings[0].Annual)

	q1 := res.Filings[0].Period
	assert.Equal(t, 10000.0, *q1.Profitability.Revenue)
	assert.Equal(t, 5500.0, *q1.Profitability.GrossProfit)
	assert.Equal(t, 0.70, *q1.Profitability.EPSBasic)
	assert.Equal(t, 0.0, *q1.BalanceSheet.CurrentLiabilities, "zero is a known value")
	assert.Nil(t, q1.BalanceSheet.CashAndEquivalents)
	assert.Equal(t, 1200.0, *q1.CashFlow.FreeCashFlow, "1600 - |-400|")
	assert.Equal(t, 1.33, *q1.CashFlow.EarningsQuality)

	q2 := res.Filings[1].Period
	assert.Nil(t, q2.Profitability.GrossProfit, "unparseable value is absent")
	assert.Nil(t, q2.Profitability.OperatingIncome, "empty string is absent")
	assert.Nil(t, q2.BalanceSheet.LongTermDebt, "None placeholder is absent")
	assert.Equal(t, 0.0, *q2.Profitability.NetIncome)
	assert.Nil(t, q2.CashFlow.EarningsQuality, "net income of zero leaves earnings quality absent")
	assert.Equal(t, 1600.0, *q2.CashFlow.FreeCashFlow, "2100 - |500|")

	require.Equal(t, 1, res.Stats.CoercionWarnings())
	assert.Equal(t, "grossProfit", res.Stats.Warnings[0].Field)
	assert.Equal(t, "2024-06-30", res.Stats.Warnings[0].FiscalDate)

	assert.Equal(t, "ABT", res.Profile.Symbol)
	assert.Equal(t, "Abbott Laboratories", res.Profile.Name)
	assert.Equal(t, 190000000000.0, *res.Profile.MarketCapitalization)
	assert.Equal(t, 33.1, *res.Ratios.PERatio)
	assert.Nil(t, res.Ratios.PEGRatio)
	assert.Nil(t, res.Ratios.DividendYield)
	assert.Equal(t, 0.143, *res.Ratios.ReturnOnEquity)
}

func TestNormalize_Idempotent(t *testing.T) {
	first, err := Normalize(shapeA(), AllPeriods())
	require.NoError(t, err)
	second, err := Normalize(shapeA(), AllPeriods())
	require.NoError(t, err)

	a, err := json.Marshal(first.Filings)
	require.NoError(t, err)
	b, err := json.Marshal(second.Filings)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, first.Stats, second.Stats)
}

func TestNormalize_CleanedPeriodNeverHoldsNull(t *testing.T) {
	res, err := Normalize(shapeA(), AllPeriods())
	require.NoError(t, err)

	data, err := json.Marshal(res.Filings[1].Period)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
	assert.NotContains(t, string(data), "GrossProfit")
}

func TestNormalize_PeriodFilter(t *testing.T) {
	res, err := Normalize(shapeA(), Years(2023, 2025))
	require.NoError(t, err)
	assert.Empty(t, res.Filings)

	res, err = Normalize(shapeA(), func(p periods.Period) bool { return p.Quarter == 2 })
	require.NoError(t, err)
	require.Len(t, res.Filings, 1)
	assert.Equal(t, "2024-06-30", res.Filings[0].FiscalDate)
}

func TestNormalize_AnnualOnly(t *testing.T) {
	raw := Statements{
		BalanceSheet:    []byte(`{"annualReports": [{"fiscalDateEnding": "2023-12-31"}]}`),
		IncomeStatement: []byte(`{"annualReports": [{"fiscalDateEnding": "2023-12-31", "totalRevenue": "1000", "netIncome": "100"}]}`),
		CashFlow:        []byte(`{"annualReports": [{"fiscalDateEnding": "2023-12-31"}]}`),
	}

	res, err := Normalize(raw, Years(2023, 2024, 2025))
	require.NoError(t, err)
	require.Len(t, res.Filings, 1)
	assert.True(t, res.Filings[0].Annual)
	assert.Equal(t, 1000.0, *res.Filings[0].Period.Profitability.Revenue)
	assert.Equal(t, 100.0, *res.Filings[0].Period.Profitability.NetIncome)
	assert.Nil(t, res.Filings[0].Period.CashFlow.FreeCashFlow)
}

func TestNormalize_NoReports(t *testing.T) {
	tests := []struct {
		name string
		raw  Statements
	}{
		{name: "nothing delivered", raw: Statements{}},
		{name: "overview only", raw: Statements{Overview: []byte(overviewDoc)}},
		{
			name: "concept entries without any report",
			raw:  Statements{Financials: []byte(`{"data": [{"endDate": "2024-03-31"}]}`)},
		},
		{
			name: "balance sheet without report list",
			raw: Statements{
				BalanceSheet:    []byte(`{"symbol": "ABT", "Information": "rate limited"}`),
				IncomeStatement: []byte(incomeQuarterly),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw, AllPeriods())
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrNoReports))
		})
	}
}

func TestNormalize_EmptyReportListIsNotMissing(t *testing.T) {
	res, err := Normalize(Statements{BalanceSheet: []byte(`{"quarterlyReports": []}`)}, AllPeriods())
	require.NoError(t, err)
	assert.Empty(t, res.Filings)
}

func TestNormalize_InvalidJSON(t *testing.T) {
	raw := shapeA()
	raw.CashFlow = []byte(`{"quarterlyReports": [`)

	_, err := Normalize(raw, AllPeriods())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cash flow")
	assert.False(t, errors.Is(err, ErrNoReports))
}

func TestNormalize_BadFiscalDateIsSkipped(t *testing.T) {
	raw := Statements{
		BalanceSheet: []byte(`{"quarterlyReports": [
			{"fiscalDateEnding": "2024-03-31", "totalAssets": "10"},
			{"fiscalDateEnding": "31/06/2024", "totalAssets": "11"},
			{"totalAssets": "12"}
		]}`),
	}

	res, err := Normalize(raw, AllPeriods())
	require.NoError(t, err)
	require.Len(t, res.Filings, 1)
	require.Len(t, res.Skipped, 2)

	var dpe *periods.DateParseError
	found := false
	for _, s := range res.Skipped {
		if errors.As(s.Err, &dpe) {
			found = true
			assert.Equal(t, "31/06/2024", dpe.Date)
		}
	}
	assert.True(t, found)
}

func TestNormalize_JoinIgnoresTimeComponent(t *testing.T) {
	raw := Statements{
		BalanceSheet: []byte(`{"quarterlyReports": [
			{"fiscalDateEnding": "2023-12-30 00:00:00", "totalAssets": "900"}
		]}`),
		IncomeStatement: []byte(`{"quarterlyReports": [
			{"fiscalDateEnding": "2023-12-30", "totalRevenue": "400", "netIncome": "40"}
		]}`),
		CashFlow: []byte(`{"quarterlyReports": [
			{"fiscalDateEnding": "2023-12-30T00:00:00", "operatingCashflow": "60"}
		]}`),
	}

	res, err := Normalize(raw, AllPeriods())
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Filings, 1)

	f := res.Filings[0]
	assert.Equal(t, "2023-12-30", f.FiscalDate)
	assert.Equal(t, 900.0, *f.Period.BalanceSheet.TotalAssets)
	assert.Equal(t, 400.0, *f.Period.Profitability.Revenue)
	assert.Equal(t, 60.0, *f.Period.CashFlow.OperatingCashFlow)
	assert.Equal(t, 1.5, *f.Period.CashFlow.EarningsQuality)
}

func TestNormalize_ConceptLayout(t *testing.T) {
	financials := `{
		"symbol": "MSFT",
		"data": [
			{"year": 2024, "quarter": 1, "form": "10-Q", "startDate": "2024-01-01 00:00:00", "endDate": "2024-03-31 00:00:00",
			 "report": {
				"bs": [
					{"concept": "us-gaap_Assets", "value": 484000},
					{"concept": "us-gaap_Liabilities", "value": 232000},
					{"concept": "us-gaap_StockholdersEquity", "value": 252000},
					{"concept": "us-gaap:AssetsCurrent", "value": 147000},
					{"concept": "LiabilitiesCurrent", "value": 118000}
				],
				"ic": [
					{"concept": "us-gaap_RevenueFromContractWithCustomerExcludingAssessedTax", "value": 61858},
					{"concept": "us-gaap_GrossProfit", "value": 43353},
					{"concept": "us-gaap_OperatingIncomeLoss", "value": 27581},
					{"concept": "us-gaap_NetIncomeLoss", "value": 21939},
					{"concept": "us-gaap_EarningsPerShareBasic", "value": "2.95"}
				],
				"cf": [
					{"concept": "us-gaap_NetCashProvidedByUsedInOperatingActivities", "value": 31917},
					{"concept": "us-gaap_PaymentsToAcquirePropertyPlantAndEquipment", "value": 10952}
				]
			 }},
			{"year": 2023, "quarter": 0, "form": "10-K", "endDate": "2023-06-30 00:00:00",
			 "report": {"bs": [], "ic": [{"concept": "us-gaap_Revenues", "value": 211915}], "cf": []}}
		]
	}`

	res, err := Normalize(Statements{Financials: []byte(financials)}, AllPeriods())
	require.NoError(t, err)
	assert.Equal(t, AdapterConcepts, res.Adapter)
	require.Len(t, res.Filings, 1, "annual entries are ignored when quarterly entries exist")

	f := res.Filings[0]
	assert.Equal(t, "2024-03-31", f.FiscalDate)
	assert.Equal(t, 61858.0, *f.Period.Profitability.Revenue)
	assert.Equal(t, 2.95, *f.Period.Profitability.EPSBasic)
	assert.Equal(t, 147000.0, *f.Period.BalanceSheet.CurrentAssets)
	assert.Equal(t, 118000.0, *f.Period.BalanceSheet.CurrentLiabilities)
	assert.Equal(t, 20965.0, *f.Period.CashFlow.FreeCashFlow)
	assert.Equal(t, 1.45, *f.Period.CashFlow.EarningsQuality)
	assert.Nil(t, f.Period.BalanceSheet.LongTermDebt)
}

func TestNormalize_ConceptLayoutAnnualFallback(t *testing.T) {
	financials := `{"data": [{"year": 2023, "quarter": 0, "form": "10-K", "endDate": "2023-12-31",
		"report": {"ic": [{"concept": "us-gaap_Revenues", "value": 500}]}}]}`

	res, err := Normalize(Statements{BalanceSheet: []byte(financials)}, AllPeriods())
	require.NoError(t, err)
	require.Len(t, res.Filings, 1)
	assert.True(t, res.Filings[0].Annual)
	assert.Equal(t, 500.0, *res.Filings[0].Period.Profitability.Revenue)
}

func TestNormalize_ConceptLayoutEntryWithoutReport(t *testing.T) {
	financials := `{"data": [
		{"year": 2024, "quarter": 1, "form": "10-Q", "endDate": "2024-03-31", "report": null},
		{"year": 2024, "quarter": 2, "form": "10-Q", "endDate": "2024-06-30",
		 "report": {"ic": [{"concept": "us-gaap_Revenues", "value": 500}]}}
	]}`

	res, err := Normalize(Statements{Financials: []byte(financials)}, AllPeriods())
	require.NoError(t, err)
	assert.Equal(t, AdapterConcepts, res.Adapter)

	require.Len(t, res.Filings, 1)
	assert.Equal(t, "2024-06-30", res.Filings[0].FiscalDate)
	assert.Equal(t, 500.0, *res.Filings[0].Period.Profitability.Revenue)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "2024-03-31", res.Skipped[0].FiscalDate)
	assert.Contains(t, res.Skipped[0].Err.Error(), "no report")
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name    string
		ocf     *float64
		capex   *float64
		ni      *float64
		wantFCF *float64
		wantEQ  *float64
	}{
		{name: "negative capex", ocf: domain.Float(1000), capex: domain.Float(-200), ni: domain.Float(500),
			wantFCF: domain.Float(800), wantEQ: domain.Float(2)},
		{name: "positive capex", ocf: domain.Float(1000), capex: domain.Float(200), wantFCF: domain.Float(800)},
		{name: "zero net income", ocf: domain.Float(1000), ni: domain.Float(0)},
		{name: "negative net income", ocf: domain.Float(300), ni: domain.Float(-900), wantEQ: domain.Float(-0.33)},
		{name: "missing capex", ocf: domain.Float(1000)},
		{name: "missing ocf", capex: domain.Float(-5), ni: domain.Float(10)},
		{name: "rounds half away from zero", ocf: domain.Float(1.125), ni: domain.Float(1), wantEQ: domain.Float(1.13)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.CleanedPeriod{
				Profitability: domain.Profitability{NetIncome: tt.ni},
				CashFlow: domain.CashFlow{
					OperatingCashFlow: tt.ocf,
					CapEx:             tt.capex,
					FreeCashFlow:      domain.Float(-1),
				},
			}
			derive(&p)
			assert.Equal(t, tt.wantFCF, p.CashFlow.FreeCashFlow)
			assert.Equal(t, tt.wantEQ, p.CashFlow.EarningsQuality)
		})
	}
}
