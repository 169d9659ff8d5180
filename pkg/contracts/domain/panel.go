package domain

import (
	"encoding/json"
	"math"
	"time"
)

// PanelRow is one flattened (sector, company, year, quarter) observation.
// Missing values are NaN in memory and null in JSON.
type PanelRow struct {
	Sector    string
	Company   string
	Ticker    string
	Year      int
	Quarter   int
	PeriodEnd time.Time // approximate, charting only

	Revenue            float64
	COGS               float64
	GrossProfit        float64
	OperatingIncome    float64
	NetIncome          float64
	EPS                float64
	Cash               float64
	TotalAssets        float64
	TotalLiabilities   float64
	Equity             float64
	LongTermDebt       float64
	CurrentAssets      float64
	CurrentLiabilities float64
	CFO                float64
	CapEx              float64
	FCF                float64

	GrossMargin     float64
	OperatingMargin float64
	NetMargin       float64
	CurrentRatio    float64
	DebtToEquity    float64
	ROE             float64
	FCFMargin       float64
	EarningsQuality float64
}

// PeriodEndLayout is the date layout of period_end
const PeriodEndLayout = "2006-01-02"

// PanelColumns is the export column order
var PanelColumns = []string{
	"sector", "company", "ticker", "Year", "Quarter", "period_end",
	"revenue", "cogs", "gross_profit", "operating_income", "net_income",
	"total_assets", "total_liabilities", "equity", "current_assets", "current_liabilities",
	"cfo", "capex", "fcf",
	"gross_margin", "operating_margin", "net_margin", "current_ratio",
	"debt_to_equity", "roe", "fcf_margin", "earnings_quality",
	"cash", "long_term_debt", "eps",
}

// Metric returns a numeric column by its export name.
func (r PanelRow) Metric(column string) (float64, bool) {
	switch column {
	case "revenue":
		return r.Revenue, true
	case "cogs":
		return r.COGS, true
	case "gross_profit":
		return r.GrossProfit, true
	case "operating_income":
		return r.OperatingIncome, true
	case "net_income":
		return r.NetIncome, true
	case "eps":
		return r.EPS, true
	case "cash":
		return r.Cash, true
	case "total_assets":
		return r.TotalAssets, true
	case "total_liabilities":
		return r.TotalLiabilities, true
	case "equity":
		return r.Equity, true
	case "long_term_debt":
		return r.LongTermDebt, true
	case "current_assets":
		return r.CurrentAssets, true
	case "current_liabilities":
		return r.CurrentLiabilities, true
	case "cfo":
		return r.CFO, true
	case "capex":
		return r.CapEx, true
	case "fcf":
		return r.FCF, true
	case "gross_margin":
		return r.GrossMargin, true
	case "operating_margin":
		return r.OperatingMargin, true
	case "net_margin":
		return r.NetMargin, true
	case "current_ratio":
		return r.CurrentRatio, true
	case "debt_to_equity":
		return r.DebtToEquity, true
	case "roe":
		return r.ROE, true
	case "fcf_margin":
		return r.FCFMargin, true
	case "earnings_quality":
		return r.EarningsQuality, true
	}
	return math.NaN(), false
}

// MarshalJSON keeps the export column names and writes NaN as null.
func (r PanelRow) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"sector":     r.Sector,
		"company":    r.Company,
		"ticker":     r.Ticker,
		"Year":       r.Year,
		"Quarter":    r.Quarter,
		"period_end": r.PeriodEnd.Format(PeriodEndLayout),
	}
	for _, col := range PanelColumns[6:] {
		v, _ := r.Metric(col)
		out[col] = nullable(v)
	}
	return json.Marshal(out)
}

func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
