package panel

import (
	"fmt"
	"math"
)

// Missing is what presentation helpers print for a NaN
const Missing = "-"

// FormatMoney renders an amount with a T/B/M/K suffix, e.g. $1.25B. It is a
// presentation helper; exported data keeps raw numbers.
func FormatMoney(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Missing
	}
	sign := ""
	if x < 0 {
		sign = "-"
	}
	a := math.Abs(x)
	switch {
	case a >= 1e12:
		return fmt.Sprintf("%s$%.2fT", sign, a/1e12)
	case a >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, a/1e9)
	case a >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, a/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%s$%.2fK", sign, a/1e3)
	}
	return fmt.Sprintf("%s$%.0f", sign, a)
}

// FormatPct renders a fraction as a percentage: 0.153 -> 15.3%.
func FormatPct(x float64, decimals int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Missing
	}
	return fmt.Sprintf("%.*f%%", decimals, x*100)
}

// FormatRatio renders a plain ratio, or fallback when it is missing.
func FormatRatio(x float64, decimals int, fallback string) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fallback
	}
	return fmt.Sprintf("%.*f", decimals, x)
}
