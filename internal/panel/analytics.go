package panel

import (
	"math"
	"sort"
	"time"

	"finpanel/pkg/contracts/domain"
)

// KPIKind selects the threshold table used by KPIClass
type KPIKind string

const (
	KindMargin    KPIKind = "margin"
	KindROE       KPIKind = "roe"
	KindRatio     KPIKind = "ratio"      // current ratio, higher is better
	KindDebtRatio KPIKind = "debt_ratio" // debt to equity, lower is better
	KindGrowth    KPIKind = "growth"
)

// KPI classes, best to worst
const (
	ClassExcellent = "excellent"
	ClassPositive  = "positive"
	ClassNeutral   = "neutral"
	ClassWarning   = "warning"
	ClassNegative  = "negative"
)

// KPIClass grades a metric for presentation. NaN and unknown kinds are neutral.
func KPIClass(value float64, kind KPIKind) string {
	if math.IsNaN(value) {
		return ClassNeutral
	}
	switch kind {
	case KindMargin, KindROE:
		return descending(value, 0.25, 0.15, 0.05, 0)
	case KindRatio:
		return descending(value, 2.5, 2, 1.5, 1)
	case KindDebtRatio:
		switch {
		case value < 0.2:
			return ClassExcellent
		case value < 0.4:
			return ClassPositive
		case value < 0.7:
			return ClassNeutral
		case value < 1:
			return ClassWarning
		}
		return ClassNegative
	case KindGrowth:
		return descending(value, 0.20, 0.10, 0, -0.05)
	}
	return ClassNeutral
}

func descending(v, excellent, positive, neutral, warning float64) string {
	switch {
	case v > excellent:
		return ClassExcellent
	case v > positive:
		return ClassPositive
	case v > neutral:
		return ClassNeutral
	case v > warning:
		return ClassWarning
	}
	return ClassNegative
}

// PctChange returns (cur - prev) / prev, or NaN when either side is
// missing or prev is zero.
func PctChange(cur, prev float64) float64 {
	if math.IsNaN(cur) {
		return math.NaN()
	}
	return SafeDiv(cur-prev, prev)
}

// SectorLatest returns the most recent row of every company in a sector,
// ordered by company.
func SectorLatest(rows []domain.PanelRow, sector string) []domain.PanelRow {
	latest := make(map[string]domain.PanelRow)
	for _, r := range rows {
		if r.Sector != sector {
			continue
		}
		cur, ok := latest[r.Company]
		if !ok || r.Year > cur.Year || (r.Year == cur.Year && r.Quarter >= cur.Quarter) {
			latest[r.Company] = r
		}
	}
	out := make([]domain.PanelRow, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Company < out[j].Company })
	return out
}

// SeriesPoint is one aggregated point of a scope time series
type SeriesPoint struct {
	PeriodEnd time.Time
	Values    map[string]float64
}

// ScopeSeries sums the requested columns per period_end, ascending. Missing
// values are skipped; a column with no known value at a point stays NaN.
// Unknown column names are ignored.
func ScopeSeries(rows []domain.PanelRow, columns []string) []SeriesPoint {
	byEnd := make(map[time.Time]map[string]float64)
	for _, r := range rows {
		point, ok := byEnd[r.PeriodEnd]
		if !ok {
			point = make(map[string]float64, len(columns))
			for _, col := range columns {
				if _, valid := r.Metric(col); valid {
					point[col] = math.NaN()
				}
			}
			byEnd[r.PeriodEnd] = point
		}
		for _, col := range columns {
			v, valid := r.Metric(col)
			if !valid || math.IsNaN(v) {
				continue
			}
			if math.IsNaN(point[col]) {
				point[col] = 0
			}
			point[col] += v
		}
	}

	out := make([]SeriesPoint, 0, len(byEnd))
	for end, values := range byEnd {
		out = append(out, SeriesPoint{PeriodEnd: end, Values: values})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodEnd.Before(out[j].PeriodEnd) })
	return out
}

// Filter keeps rows matching a sector and company; empty arguments match all.
func Filter(rows []domain.PanelRow, sector, company string) []domain.PanelRow {
	if sector == "" && company == "" {
		return rows
	}
	out := make([]domain.PanelRow, 0, len(rows))
	for _, r := range rows {
		if sector != "" && r.Sector != sector {
			continue
		}
		if company != "" && r.Company != company && r.Ticker != company {
			continue
		}
		out = append(out, r)
	}
	return out
}
