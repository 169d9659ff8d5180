package panel

import (
	"math"

	"finpanel/pkg/contracts/domain"
)

// SafeDiv divides with a missing-data guard: the result is NaN when the
// numerator is NaN or the denominator is zero or NaN. It never panics and
// never substitutes a default.
func SafeDiv(num, den float64) float64 {
	if math.IsNaN(num) || math.IsNaN(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}

// deriveRatios fills every derived column of a row from its flattened metrics.
func deriveRatios(row *domain.PanelRow) {
	row.COGS = row.Revenue - row.GrossProfit
	row.GrossMargin = SafeDiv(row.GrossProfit, row.Revenue)
	row.OperatingMargin = SafeDiv(row.OperatingIncome, row.Revenue)
	row.NetMargin = SafeDiv(row.NetIncome, row.Revenue)
	row.CurrentRatio = SafeDiv(row.CurrentAssets, row.CurrentLiabilities)
	row.DebtToEquity = SafeDiv(row.TotalLiabilities, row.Equity)
	row.ROE = SafeDiv(row.NetIncome, row.Equity)
	row.FCFMargin = SafeDiv(row.FCF, row.Revenue)
	row.EarningsQuality = SafeDiv(row.CFO, row.NetIncome)
}
