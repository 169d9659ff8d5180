package exporter

import (
	"math"
	"strconv"
)

// formatFloat writes the shortest exact representation; NaN and infinities
// become an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cellValue is the XLSX counterpart of formatFloat: nil leaves the cell empty
func cellValue(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
