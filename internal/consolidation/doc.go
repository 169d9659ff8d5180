// Package consolidation turns per-company period indexes into CompanyEntry
// values and groups them into the sector document.
package consolidation
