// Package shared holds helpers used by more than one package that belong
// to no single layer.
//
// The testutil subpackage provides the slog capture handler used across the
// test suites and writers for raw provider statement fixtures:
//
//	func TestLoad(t *testing.T) {
//	    rawDir := t.TempDir()
//	    testutil.WriteQuarterlyCompany(t, rawDir, "Tech", "AAPL")
//	    logger, handler := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
