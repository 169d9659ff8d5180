package files

import (
	"os"
	"path/filepath"
	"testing"

	"finpanel/internal/shared/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func TestParseStatementFileName(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		wantSymbol string
		wantKind   StatementKind
		wantOK     bool
	}{
		{"balance sheet", "AAPL_BALANCE_SHEET.json", "AAPL", KindBalanceSheet, true},
		{"income statement", "MSFT_INCOME_STATEMENT.json", "MSFT", KindIncomeStatement, true},
		{"cash flow", "JNJ_CASH_FLOW.json", "JNJ", KindCashFlow, true},
		{"overview", "JNJ_OVERVIEW.json", "JNJ", KindOverview, true},
		{"financials reported", "MSFT_FINANCIALS_REPORTED.json", "MSFT", KindFinancials, true},
		{"symbol with underscore", "BRK_B_CASH_FLOW.json", "BRK_B", KindCashFlow, true},
		{"upper case extension", "AAPL_OVERVIEW.JSON", "AAPL", KindOverview, true},
		{"unknown kind", "AAPL_EARNINGS.json", "", "", false},
		{"missing symbol", "_CASH_FLOW.json", "", "", false},
		{"wrong extension", "AAPL_CASH_FLOW.csv", "", "", false},
		{"no separator", "AAPLCASH_FLOW.json", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, kind, ok := ParseStatementFileName(tt.file)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSymbol, symbol)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestFindStatementBundles(t *testing.T) {
	rawDir := t.TempDir()
	testutil.WriteQuarterlyCompany(t, rawDir, "Tech", "MSFT")
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Tech", "AAPL")
	testutil.WriteAnnualOnlyCompany(t, rawDir, "Healthcare", "JNJ")

	// Noise that must be ignored
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "Tech", "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "Tech", "MSFT_EARNINGS.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "stray.json"), []byte("{}"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(rawDir, ".cache"), 0755))
	testutil.WriteRawStatement(t, rawDir, ".cache", "ZZZ", testutil.KindOverview, "{}")

	bundles, err := NewDiscovery(rawDir).FindStatementBundles(rawDir)
	require.NoError(t, err)
	require.Len(t, bundles, 3)

	assert.Equal(t, "Healthcare", bundles[0].Sector)
	assert.Equal(t, "JNJ", bundles[0].Symbol)
	assert.Equal(t, "Tech", bundles[1].Sector)
	assert.Equal(t, "AAPL", bundles[1].Symbol)
	assert.Equal(t, "MSFT", bundles[2].Symbol)

	msft := bundles[2]
	assert.Len(t, msft.Files, 4)
	assert.True(t, msft.Has(KindOverview))
	assert.False(t, msft.Has(KindFinancials))
	assert.Equal(t, "MSFT_CASH_FLOW.json", msft.Files[KindCashFlow].Name)
	assert.Greater(t, msft.Files[KindCashFlow].Size, int64(0))

	assert.Len(t, bundles[1].Files, 3)
	assert.False(t, bundles[1].Has(KindOverview))
}

func TestFindStatementBundles_RelativeRawDir(t *testing.T) {
	base := t.TempDir()
	testutil.WriteAnnualOnlyCompany(t, filepath.Join(base, "raw"), "Energy", "XOM")

	bundles, err := NewDiscovery(base).FindStatementBundles("raw")
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, filepath.Join(base, "raw", "Energy", "XOM_BALANCE_SHEET.json"),
		bundles[0].Files[KindBalanceSheet].Path)
}

func TestFindStatementBundles_Errors(t *testing.T) {
	t.Run("missing raw dir", func(t *testing.T) {
		_, err := NewDiscovery("").FindStatementBundles(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("empty raw dir", func(t *testing.T) {
		bundles, err := NewDiscovery("").FindStatementBundles(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, bundles)
	})
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.json"), 0755))

	files, err := NewDiscovery(dir).FindFilesByPattern(".", "*.json")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
		assert.False(t, f.IsDir)
	}
	assert.ElementsMatch(t, []string{"a.json", "b.json"}, names)

	_, err = NewDiscovery(dir).FindFilesByPattern(".", "[")
	assert.Error(t, err)
}

func TestListDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Tech"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Energy"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.json"), []byte("{}"), 0644))

	dirs, err := NewDiscovery(dir).ListDirectories(".")
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	assert.Equal(t, "Energy", dirs[0].Name)
	assert.Equal(t, "Tech", dirs[1].Name)
	assert.True(t, dirs[0].IsDir)
}
