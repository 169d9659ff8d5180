package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Raw statement kinds as they appear in file names
const (
	KindBalanceSheet    = "BALANCE_SHEET"
	KindIncomeStatement = "INCOME_STATEMENT"
	KindCashFlow        = "CASH_FLOW"
	KindOverview        = "OVERVIEW"
	KindFinancials      = "FINANCIALS_REPORTED"
)

// WriteRawStatement writes <rawDir>/<sector>/<symbol>_<kind>.json and
// returns its path.
func WriteRawStatement(t *testing.T, rawDir, sector, symbol, kind, content string) string {
	t.Helper()
	dir := filepath.Join(rawDir, sector)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create sector dir: %v", err)
	}
	path := filepath.Join(dir, symbol+"_"+kind+".json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteAnnualOnlyCompany writes the minimal report-list bundle of a company
// whose only filing is the 2023 annual report: revenue 1000, net income 100.
func WriteAnnualOnlyCompany(t *testing.T, rawDir, sector, symbol string) {
	t.Helper()
	WriteRawStatement(t, rawDir, sector, symbol, KindBalanceSheet,
		`{"symbol": "`+symbol+`", "annualReports": [{"fiscalDateEnding": "2023-12-31"}]}`)
	WriteRawStatement(t, rawDir, sector, symbol, KindIncomeStatement,
		`{"symbol": "`+symbol+`", "annualReports": [{"fiscalDateEnding": "2023-12-31", "totalRevenue": "1000", "netIncome": "100"}]}`)
	WriteRawStatement(t, rawDir, sector, symbol, KindCashFlow,
		`{"symbol": "`+symbol+`", "annualReports": [{"fiscalDateEnding": "2023-12-31"}]}`)
}

// WriteQuarterlyCompany writes a report-list bundle with two 2024 quarters
// and an overview.
func WriteQuarterlyCompany(t *testing.T, rawDir, sector, symbol string) {
	t.Helper()
	WriteRawStatement(t, rawDir, sector, symbol, KindBalanceSheet, `{"symbol": "`+symbol+`", "quarterlyReports": [
		{"fiscalDateEnding": "2024-03-31", "totalAssets": "5000", "totalLiabilities": "2000", "totalShareholderEquity": "3000",
		 "totalCurrentAssets": "1500", "totalCurrentLiabilities": "750", "cashAndCashEquivalentsAtCarryingValue": "300"},
		{"fiscalDateEnding": "2024-06-30", "totalAssets": "5200", "totalLiabilities": "2100", "totalShareholderEquity": "3100"}
	]}`)
	WriteRawStatement(t, rawDir, sector, symbol, KindIncomeStatement, `{"symbol": "`+symbol+`", "quarterlyReports": [
		{"fiscalDateEnding": "2024-03-31", "totalRevenue": "1000", "grossProfit": "600", "operatingIncome": "250", "netIncome": "200"},
		{"fiscalDateEnding": "2024-06-30", "totalRevenue": "1100", "grossProfit": "650", "operatingIncome": "260", "netIncome": "0"}
	]}`)
	WriteRawStatement(t, rawDir, sector, symbol, KindCashFlow, `{"symbol": "`+symbol+`", "quarterlyReports": [
		{"fiscalDateEnding": "2024-03-31", "operatingCashflow": "1000", "capitalExpenditures": "-200"},
		{"fiscalDateEnding": "2024-06-30", "operatingCashflow": "900", "capitalExpenditures": "150"}
	]}`)
	WriteRawStatement(t, rawDir, sector, symbol, KindOverview, `{"Symbol": "`+symbol+`", "Name": "`+symbol+` Inc",
		"Sector": "`+sector+`", "PERatio": "25.5", "PEGRatio": "None", "PriceToBookRatio": "6.1",
		"ProfitMargin": "0.2", "ReturnOnAssetsTTM": "0.08", "ReturnOnEquityTTM": "0.25", "DividendYield": "0.01"}`)
}
