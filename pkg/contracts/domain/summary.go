package domain

import "time"

// SkippedCompany records a company left out of the document
type SkippedCompany struct {
	Sector string `json:"sector"`
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// SkippedFiling records a single filing dropped during normalization
type SkippedFiling struct {
	Sector     string `json:"sector"`
	Symbol     string `json:"symbol"`
	FiscalDate string `json:"fiscal_date"`
	Reason     string `json:"reason"`
}

// ConsolidatedCompany is the display identity of a company that made it into
// the document. Name and the overview fields are empty without an overview.
type ConsolidatedCompany struct {
	Sector   string `json:"sector"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// RunSummary is returned with every consolidation run
type RunSummary struct {
	RunID                 string                `json:"run_id"`
	StartedAt             time.Time             `json:"started_at"`
	FinishedAt            time.Time             `json:"finished_at"`
	CompaniesTotal        int                   `json:"companies_total"`
	CompaniesConsolidated int                   `json:"companies_consolidated"`
	Sectors               int                   `json:"sectors"`
	CoercionWarnings      int                   `json:"coercion_warnings"`
	SkippedCompanies      []SkippedCompany      `json:"skipped_companies"`
	SkippedFilings        []SkippedFiling       `json:"skipped_filings"`
	Companies             []ConsolidatedCompany `json:"companies,omitempty"`
}

// Clean reports whether nothing was skipped.
func (s RunSummary) Clean() bool {
	return len(s.SkippedCompanies) == 0 && len(s.SkippedFilings) == 0 && s.CoercionWarnings == 0
}
