package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"finpanel/internal/config"
	"finpanel/internal/consolidation"
	"finpanel/internal/files"
	"finpanel/internal/panel"
	"finpanel/internal/shared/testutil"
	"finpanel/internal/statements"
	"finpanel/pkg/contracts/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discover(t *testing.T, rawDir string) []files.CompanyBundle {
	t.Helper()
	bundles, err := files.NewDiscovery(rawDir).FindStatementBundles(rawDir)
	require.NoError(t, err)
	return bundles
}

func newTestRunner(t *testing.T, opts Options) (*Runner, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	opts.Logger = logger
	return NewRunner(opts), handler
}

func TestRunner_AnnualOnlyCompany(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Tech", "AAPL")

	runner, handler := newTestRunner(t, Options{})
	res, err := runner.Run(context.Background(), discover(t, rawDir))
	require.NoError(t, err)

	require.Len(t, res.Document.Sectors, 1)
	sector := res.Document.Sectors[0]
	assert.Equal(t, "Tech", sector.Name)
	require.Len(t, sector.Companies, 1)
	company := sector.Companies[0]
	assert.Equal(t, "AAPL", company.Symbol)
	require.Len(t, company.Years, 1)
	assert.Equal(t, 2023, company.Years[0].Year)
	require.Len(t, company.Years[0].Quarters, 1)
	assert.Equal(t, 4, company.Years[0].Quarters[0].Quarter)

	rows := panel.Flatten(res.Document, nil)
	require.Len(t, rows, 1)
	assert.InDelta(t, 0.10, rows[0].NetMargin, 1e-9)

	assert.Equal(t, 1, res.Summary.CompaniesTotal)
	assert.Equal(t, 1, res.Summary.CompaniesConsolidated)
	assert.Equal(t, 1, res.Summary.Sectors)
	assert.True(t, res.Summary.Clean())
	assert.NotEmpty(t, res.Summary.RunID)
	assert.False(t, res.Summary.FinishedAt.Before(res.Summary.StartedAt))

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Consolidation run finished")
	testutil.AssertLogAttr(t, handler, "component", "pipeline")
	testutil.AssertNoErrors(t, handler)
}

func TestRunner_MalformedCompanyIsIsolated(t *testing.T) {
	aloneDir := t.TempDir()
	testutil.WriteQuarterlyCompany(t, aloneDir, "Tech", "MSFT")

	mixedDir := t.TempDir()
	testutil.WriteQuarterlyCompany(t, mixedDir, "Tech", "MSFT")
	testutil.WriteRawStatement(t, mixedDir, "Tech", "AAA", testutil.KindIncomeStatement, `{"quarterlyReports": [`)
	testutil.WriteRawStatement(t, mixedDir, "Tech", "AAA", testutil.KindBalanceSheet, `{"quarterlyReports": []}`)

	runner, _ := newTestRunner(t, Options{})
	alone, err := runner.Run(context.Background(), discover(t, aloneDir))
	require.NoError(t, err)
	mixed, err := runner.Run(context.Background(), discover(t, mixedDir))
	require.NoError(t, err)

	assert.Equal(t, alone.Document, mixed.Document)

	require.Len(t, mixed.Summary.SkippedCompanies, 1)
	skipped := mixed.Summary.SkippedCompanies[0]
	assert.Equal(t, "Tech", skipped.Sector)
	assert.Equal(t, "AAA", skipped.Symbol)
	assert.Contains(t, skipped.Reason, "not valid JSON")
	assert.Equal(t, 2, mixed.Summary.CompaniesTotal)
	assert.Equal(t, 1, mixed.Summary.CompaniesConsolidated)
}

func TestRunner_SummaryEntries(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteQuarterlyCompany(t, rawDir, "Tech", "MSFT")

	// Two filings in Q1, one unparseable date and one unreadable number
	testutil.WriteRawStatement(t, rawDir, "Energy", "XOM", testutil.KindIncomeStatement, `{"quarterlyReports": [
		{"fiscalDateEnding": "2024-02-29", "totalRevenue": "900", "netIncome": "90"},
		{"fiscalDateEnding": "2024-03-31", "totalRevenue": "1000", "netIncome": "abc"},
		{"fiscalDateEnding": "2024-13-45", "totalRevenue": "1"}
	]}`)

	// Provider documents without any report list
	testutil.WriteRawStatement(t, rawDir, "Energy", "CVX", testutil.KindOverview, `{"Symbol": "CVX", "PERatio": "12"}`)

	runner, _ := newTestRunner(t, Options{})
	res, err := runner.Run(context.Background(), discover(t, rawDir))
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 3, s.CompaniesTotal)
	assert.Equal(t, 2, s.CompaniesConsolidated)
	assert.Equal(t, 2, s.Sectors)
	assert.Equal(t, 1, s.CoercionWarnings)
	assert.False(t, s.Clean())

	require.Len(t, s.SkippedCompanies, 1)
	assert.Equal(t, "CVX", s.SkippedCompanies[0].Symbol)
	assert.Equal(t, ReasonNoReports, s.SkippedCompanies[0].Reason)

	reasons := map[string]string{}
	for _, f := range s.SkippedFilings {
		assert.Equal(t, "XOM", f.Symbol)
		reasons[f.FiscalDate] = f.Reason
	}
	assert.Len(t, reasons, 2)
	assert.Equal(t, ReasonSuperseded, reasons["2024-02-29"])
	assert.Contains(t, reasons["2024-13-45"], "2024-13-45")

	xom, ok := res.Document.Sector("Energy")
	require.True(t, ok)
	require.Len(t, xom.Companies, 1)
	q1 := xom.Companies[0].Years[0].Quarters[0]
	assert.Equal(t, 1, q1.Quarter)
	require.NotNil(t, q1.Period.Profitability.Revenue)
	assert.Equal(t, 1000.0, *q1.Period.Profitability.Revenue)
	assert.Nil(t, q1.Period.Profitability.NetIncome)
}

func TestRunner_CompanyIdentity(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteQuarterlyCompany(t, rawDir, "Tech", "MSFT")
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Tech", "AAPL")
	testutil.WriteRawStatement(t, rawDir, "Tech", "AAPL", testutil.KindOverview,
		`{"Symbol": "APPL", "Name": "Apple Inc", "Exchange": "NASDAQ", "Sector": "TECHNOLOGY"}`)
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Energy", "XOM")

	runner, handler := newTestRunner(t, Options{})
	res, err := runner.Run(context.Background(), discover(t, rawDir))
	require.NoError(t, err)

	assert.ElementsMatch(t, []domain.ConsolidatedCompany{
		{Sector: "Tech", Symbol: "MSFT", Name: "MSFT Inc"},
		{Sector: "Tech", Symbol: "AAPL", Name: "Apple Inc", Exchange: "NASDAQ"},
		{Sector: "Energy", Symbol: "XOM"},
	}, res.Summary.Companies)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Company consolidated")
	testutil.AssertLogAttr(t, handler, "name", "Apple Inc")
	testutil.AssertLogAttr(t, handler, "overview_sector", "TECHNOLOGY")
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Overview symbol does not match the file name")
	testutil.AssertLogAttr(t, handler, "overview_symbol", "APPL")
}

func TestRunner_CompanyInTwoSectors(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Tech", "IBM")
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Services", "IBM")

	runner, _ := newTestRunner(t, Options{})
	res, err := runner.Run(context.Background(), discover(t, rawDir))
	require.Error(t, err)
	assert.Nil(t, res)

	var sv *consolidation.SchemaViolationError
	require.True(t, errors.As(err, &sv))
	assert.Equal(t, "IBM", sv.Symbol)
	assert.Equal(t, "company in more than one sector", sv.Reason)
}

func TestRunner_YearFilter(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteQuarterlyCompany(t, rawDir, "Tech", "MSFT")
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Tech", "AAPL")

	runner, _ := newTestRunner(t, Options{Filter: statements.Years(2024)})
	res, err := runner.Run(context.Background(), discover(t, rawDir))
	require.NoError(t, err)

	// AAPL only filed for 2023, so nothing survives the filter
	require.Len(t, res.Summary.SkippedCompanies, 1)
	assert.Equal(t, "AAPL", res.Summary.SkippedCompanies[0].Symbol)

	tech, ok := res.Document.Sector("Tech")
	require.True(t, ok)
	require.Len(t, tech.Companies, 1)
	assert.Equal(t, "MSFT", tech.Companies[0].Symbol)
	assert.Equal(t, 2024, tech.Companies[0].Years[0].Year)
}

func TestRunner_UnreadableFile(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Tech", "AAPL")
	bundles := discover(t, rawDir)
	require.Len(t, bundles, 1)

	info := bundles[0].Files[files.KindCashFlow]
	info.Path = filepath.Join(rawDir, "missing.json")
	info.Name = "missing.json"
	bundles[0].Files[files.KindCashFlow] = info

	runner, _ := newTestRunner(t, Options{})
	res, err := runner.Run(context.Background(), bundles)
	require.NoError(t, err)
	require.Len(t, res.Summary.SkippedCompanies, 1)
	assert.Contains(t, res.Summary.SkippedCompanies[0].Reason, "missing.json")
	assert.Empty(t, res.Document.Sectors)
}

func TestRunner_Cancelled(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Tech", "AAPL")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, _ := newTestRunner(t, Options{Concurrency: 1})
	_, err := runner.Run(ctx, discover(t, rawDir))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_SaveAndLoad(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteQuarterlyCompany(t, rawDir, "Tech", "MSFT")

	runner, _ := newTestRunner(t, Options{})
	res, err := runner.Run(context.Background(), discover(t, rawDir))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	store := NewStore(paths, nil)
	require.NoError(t, store.Save(res))

	doc, err := LoadDocument(paths.DocumentFile)
	require.NoError(t, err)
	want, err := domain.EncodeDocument(res.Document)
	require.NoError(t, err)
	got, err := domain.EncodeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	summary, err := store.LoadSummary()
	require.NoError(t, err)
	assert.Equal(t, res.Summary.RunID, summary.RunID)
	assert.Equal(t, res.Summary.CompaniesConsolidated, summary.CompaniesConsolidated)

	_, err = LoadDocument(filepath.Join(paths.DataDir, "absent.json"))
	assert.Error(t, err)
}
