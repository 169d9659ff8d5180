// Package panel flattens the sector document into PanelRow values and
// provides the read-model helpers built on them.
//
// Every derived ratio is computed with SafeDiv, so a missing input or a zero
// denominator yields NaN rather than an error or a default. period_end is
// the last calendar day of the quarter and is only approximate.
//
// Cache replaces process-global memoization: it is an explicit object keyed
// by the SHA-256 of the document bytes, with Invalidate for forced reloads.
package panel
