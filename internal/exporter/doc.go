// Package exporter writes the flattened panel to CSV and XLSX.
//
// CSV exports carry a UTF-8 BOM, raw numbers and empty cells for missing
// values. XLSX exports (excelize) hold a "panel" sheet with the same data
// and a "summary" sheet with the latest period of every company rendered
// through the panel formatting helpers.
//
// Example usage:
//
//	exp := exporter.NewPanelExporter(paths, logger)
//	path, err := exp.Export("panel.xlsx", exporter.FormatXLSX, rows)
package exporter
