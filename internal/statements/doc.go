// Package statements normalizes raw provider financial statements into
// domain.CleanedPeriod records.
//
// Two provider layouts are supported, each behind the Adapter interface:
//
//	report-list    {"annualReports": [...], "quarterlyReports": [...]}, one
//	               document per statement, numbers as strings
//	xbrl-concepts  {"data": [{"endDate": ..., "form": ..., "report":
//	               {"bs": [...], "ic": [...], "cf": [...]}}]}
//
// The layout is chosen by probing the documents with gjson rather than by a
// schema tag. Values that are absent, empty or placeholders ("None", "-")
// are left nil; values that fail numeric coercion are left nil and counted
// as CoercionWarning entries in Stats.
//
// Derived cash metrics are computed from the extracted fields only:
//
//	FreeCashFlow    = OperatingCashFlow - |CapEx|
//	EarningsQuality = round(OperatingCashFlow / NetIncome, 2), NetIncome != 0
package statements
