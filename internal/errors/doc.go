// Package errors maps failures to RFC 7807 problem responses.
//
// Handlers return plain errors; ErrorHandler classifies them with errors.Is
// and errors.As. APIError and AppError carry an explicit status or type,
// and the pipeline's own failures (missing data, schema violations, bad
// fiscal dates, unknown sectors) have fixed mappings. Anything else is a
// 500 whose detail never leaks the underlying message.
package errors
