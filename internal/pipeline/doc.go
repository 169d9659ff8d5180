// Package pipeline runs a consolidation batch: it loads raw statement
// bundles, normalizes and indexes each company, consolidates the companies
// into a sector document, and persists the document with a run summary.
//
// File reads happen concurrently; the transforms are sequential and pure.
// A malformed filing or company only adds an entry to the run summary.
// Aggregation errors abort the run.
package pipeline
