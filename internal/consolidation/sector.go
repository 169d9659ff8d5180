package consolidation

import (
	"fmt"
	"sort"

	"finpanel/pkg/contracts/domain"
)

// SectorEntry is a consolidated company tagged with the sector it was filed under
type SectorEntry struct {
	Sector string
	Entry  domain.CompanyEntry
}

// SchemaViolationError means the aggregated document would break its shape
// contract. It aborts the run before anything is persisted.
type SchemaViolationError struct {
	Sector string
	Symbol string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("consolidation: schema violation for %s/%s: %s", e.Sector, e.Symbol, e.Reason)
}

// Aggregate groups company entries into the sector document. Sector names
// are matched case-sensitively; sectors and companies are sorted by name.
// A company may appear under exactly one sector.
func Aggregate(entries []SectorEntry) (domain.SectorDocument, error) {
	bySector := make(map[string][]domain.CompanyEntry)
	sectorOf := make(map[string]string)

	for _, e := range entries {
		if e.Sector == "" {
			return domain.SectorDocument{}, &SchemaViolationError{Symbol: e.Entry.Symbol, Reason: "empty sector name"}
		}
		if e.Entry.Symbol == "" {
			return domain.SectorDocument{}, &SchemaViolationError{Sector: e.Sector, Reason: "empty company symbol"}
		}
		if len(e.Entry.Years) == 0 {
			return domain.SectorDocument{}, &SchemaViolationError{Sector: e.Sector, Symbol: e.Entry.Symbol, Reason: "no year blocks"}
		}
		if prev, ok := sectorOf[e.Entry.Symbol]; ok {
			reason := "duplicate company"
			if prev != e.Sector {
				reason = "company in more than one sector"
			}
			return domain.SectorDocument{}, &SchemaViolationError{Sector: e.Sector, Symbol: e.Entry.Symbol, Reason: reason}
		}
		sectorOf[e.Entry.Symbol] = e.Sector
		bySector[e.Sector] = append(bySector[e.Sector], e.Entry)
	}

	names := make([]string, 0, len(bySector))
	for name := range bySector {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := domain.SectorDocument{Sectors: make([]domain.Sector, 0, len(names))}
	for _, name := range names {
		companies := bySector[name]
		sort.Slice(companies, func(i, j int) bool { return companies[i].Symbol < companies[j].Symbol })
		doc.Sectors = append(doc.Sectors, domain.Sector{Name: name, Companies: companies})
	}
	return doc, nil
}
