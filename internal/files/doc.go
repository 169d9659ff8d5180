// Package files provides file system discovery and file management for
// finpanel.
//
// Discovery finds raw provider statements laid out as
//
//	<rawDir>/<Sector>/<SYMBOL>_<KIND>.json
//
// and groups them into one CompanyBundle per (sector, symbol). KIND is one
// of BALANCE_SHEET, INCOME_STATEMENT, CASH_FLOW, OVERVIEW or
// FINANCIALS_REPORTED.
//
// Manager resolves paths against config.Paths and writes files atomically
// (temp file plus rename).
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.BaseDir)
//	bundles, err := discovery.FindStatementBundles(paths.RawDir)
//
//	manager := files.NewManager(paths, logger)
//	err = manager.WriteFileAtomic(paths.DocumentFile, data)
package files
