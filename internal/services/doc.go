// Package services implements the read side of finpanel between the HTTP
// handlers and the consolidated sector document.
//
// PanelService loads the document through panel.Cache and answers row,
// sector, latest-snapshot, series, export and prompt queries. An optional
// prompt.Analyzer runs the assembled prompt against a model. HealthService
// reports liveness and readiness; the service is ready once the document
// decodes.
//
// Services take a *slog.Logger by injection and return plain errors; the
// HTTP layer maps them to RFC 7807 responses.
package services
