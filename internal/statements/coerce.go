package statements

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// missingMarkers are provider spellings of "no value". They are treated as
// absent without raising a coercion warning.
var missingMarkers = map[string]bool{
	"":     true,
	"none": true,
	"null": true,
	"-":    true,
	"n/a":  true,
	"na":   true,
}

// CoercionWarning records a provider field that could not be read as a
// number. The field is treated as absent.
type CoercionWarning struct {
	FiscalDate string `json:"fiscal_date,omitempty"`
	Field      string `json:"field"`
	Value      string `json:"value"`
}

func (w CoercionWarning) String() string {
	if w.FiscalDate == "" {
		return fmt.Sprintf("%s: cannot coerce %q", w.Field, w.Value)
	}
	return fmt.Sprintf("%s@%s: cannot coerce %q", w.Field, w.FiscalDate, w.Value)
}

// Stats collects data-quality counters for one normalization
type Stats struct {
	Warnings []CoercionWarning
}

// CoercionWarnings returns the number of fields that failed coercion.
func (s Stats) CoercionWarnings() int {
	return len(s.Warnings)
}

func (s *Stats) merge(other Stats) {
	s.Warnings = append(s.Warnings, other.Warnings...)
}

// coercer converts gjson values into metric pointers for one filing
type coercer struct {
	stats *Stats
	date  string
}

// number returns nil for absent, null, empty or placeholder values and
// records a warning for anything else it cannot parse into a finite float.
func (c coercer) number(field string, res gjson.Result) *float64 {
	if !res.Exists() {
		return nil
	}
	switch res.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		v := res.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			c.warn(field, res.Raw)
			return nil
		}
		return &v
	case gjson.String:
		s := strings.TrimSpace(res.Str)
		if missingMarkers[strings.ToLower(s)] {
			return nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			c.warn(field, res.Str)
			return nil
		}
		return &v
	default:
		c.warn(field, res.Raw)
		return nil
	}
}

// first returns the first non-absent value among candidate fields.
func (c coercer) first(doc gjson.Result, fields ...string) *float64 {
	for _, f := range fields {
		if v := c.number(f, doc.Get(f)); v != nil {
			return v
		}
	}
	return nil
}

func (c coercer) warn(field, value string) {
	if c.stats == nil {
		return
	}
	c.stats.Warnings = append(c.stats.Warnings, CoercionWarning{
		FiscalDate: c.date,
		Field:      field,
		Value:      value,
	})
}
