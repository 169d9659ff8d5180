package periods

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"finpanel/pkg/contracts/domain"
)

// DateLayout is the fiscal date layout accepted by Bucket
const DateLayout = "2006-01-02"

// Period identifies a calendar quarter
type Period struct {
	Year    int
	Quarter int
}

// String renders the period as 2024-Q1.
func (p Period) String() string {
	return fmt.Sprintf("%d-Q%d", p.Year, p.Quarter)
}

// DateParseError is returned for a fiscal date that is not YYYY-MM-DD
type DateParseError struct {
	Date string
	Err  error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid fiscal date %q: %v", e.Date, e.Err)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

// TrimDate drops surrounding space and a trailing time component, as some
// providers send ("2023-12-30 00:00:00"). Anything else is returned as is.
func TrimDate(date string) string {
	s := strings.TrimSpace(date)
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == ' ' || s[len(DateLayout)] == 'T') {
		s = s[:len(DateLayout)]
	}
	return s
}

// ParseDate parses a fiscal date after TrimDate.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, TrimDate(date))
	if err != nil {
		return time.Time{}, &DateParseError{Date: date, Err: err}
	}
	return t, nil
}

// Bucket maps a fiscal date to its calendar quarter. Fiscal years that do
// not end in December are still bucketed by calendar month.
func Bucket(date string) (Period, error) {
	t, err := ParseDate(date)
	if err != nil {
		return Period{}, err
	}
	return Period{Year: t.Year(), Quarter: QuarterOf(t.Month())}, nil
}

// QuarterOf returns 1 for Jan-Mar through 4 for Oct-Dec.
func QuarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// ApproximateEnd returns the last calendar day of the quarter. It is a
// charting aid, not the filing date.
func ApproximateEnd(year, quarter int) time.Time {
	firstOfNext := time.Date(year, time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

type slot struct {
	date   string
	period domain.CleanedPeriod
}

// Index is an ordered year -> quarter -> CleanedPeriod mapping with O(1)
// slot lookup. The zero value is not usable; call NewIndex.
type Index struct {
	years map[int]map[int]slot
	count int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{years: make(map[int]map[int]slot)}
}

// Add buckets a filing. When the slot is taken the later fiscal date wins
// and the losing date is returned as dropped; on equal dates the first
// filing is kept.
func (ix *Index) Add(date string, p domain.CleanedPeriod) (dropped string, err error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	key := t.Format(DateLayout)
	year, quarter := t.Year(), QuarterOf(t.Month())

	quarters, ok := ix.years[year]
	if !ok {
		quarters = make(map[int]slot)
		ix.years[year] = quarters
	}
	existing, taken := quarters[quarter]
	if !taken {
		quarters[quarter] = slot{date: key, period: p}
		ix.count++
		return "", nil
	}
	if key > existing.date {
		quarters[quarter] = slot{date: key, period: p}
		return existing.date, nil
	}
	return key, nil
}

// Len returns the number of filled quarter slots.
func (ix *Index) Len() int {
	return ix.count
}

// Years returns the indexed years in ascending order.
func (ix *Index) Years() []int {
	years := make([]int, 0, len(ix.years))
	for y := range ix.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Quarters returns the filled quarters of a year in ascending order.
func (ix *Index) Quarters(year int) []int {
	quarters := make([]int, 0, 4)
	for q := range ix.years[year] {
		quarters = append(quarters, q)
	}
	sort.Ints(quarters)
	return quarters
}

// Get returns the period stored for a slot.
func (ix *Index) Get(year, quarter int) (domain.CleanedPeriod, bool) {
	s, ok := ix.years[year][quarter]
	return s.period, ok
}

// FiscalDate returns the fiscal date that filled a slot.
func (ix *Index) FiscalDate(year, quarter int) string {
	return ix.years[year][quarter].date
}
