package consolidation

import (
	"fmt"

	"finpanel/internal/periods"
	"finpanel/pkg/contracts/domain"
)

// MissingDataError is returned when a company has no usable period at all.
// It is not fatal to a run; the company is skipped.
type MissingDataError struct {
	Symbol string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("consolidation: %s has no usable periods", e.Symbol)
}

// Consolidate builds a company's history from its period index. Years and
// quarters come out ascending and every year carries its own copy of the
// ratio snapshot.
func Consolidate(symbol string, idx *periods.Index, ratios domain.RatiosBlock) (domain.CompanyEntry, error) {
	if idx == nil || idx.Len() == 0 {
		return domain.CompanyEntry{}, &MissingDataError{Symbol: symbol}
	}

	entry := domain.CompanyEntry{Symbol: symbol}
	for _, year := range idx.Years() {
		block := domain.YearBlock{
			Year:   year,
			Ratios: ratios.Clone(),
		}
		for _, quarter := range idx.Quarters(year) {
			p, _ := idx.Get(year, quarter)
			block.Quarters = append(block.Quarters, domain.QuarterEntry{
				Quarter: quarter,
				Period:  p.Clone(),
			})
		}
		entry.Years = append(entry.Years, block)
	}
	return entry, nil
}
