// Package http implements the HTTP handlers of the finpanel read API.
// Handlers stay thin: they parse and validate the request, call a service
// and render the response. Business logic lives in internal/services.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → PanelService → panel.Cache
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/panel?sector=&company=&years=
//	GET  /api/panel/columns
//	GET  /api/panel/sectors
//	GET  /api/panel/sectors/{sector}/latest
//	GET  /api/panel/series?sector=&company=&columns=
//	GET  /api/panel/export?format=csv|xlsx
//	GET  /api/panel/summary
//	GET  /api/prompt?sector=&company=&topic=&scope=
//	POST /api/analyze
//	GET  /api/cache
//	POST /api/cache/invalidate
//	GET  /metrics
//
// # Error Handling
//
// Every failure is written as an RFC 7807 problem document by
// errors.ErrorHandler. Service sentinels are mapped first:
//
//	services.ErrUnknownSector         → 404 SECTOR_NOT_FOUND
//	services.ErrUnknownCompany        → 404 COMPANY_NOT_FOUND
//	services.ErrUnknownColumn         → 400 VALIDATION_FAILED
//	services.ErrAnalyzerNotConfigured → 501 NOT_CONFIGURED
//
// A missing sector document surfaces as 404 Data Not Found.
//
// # Testing
//
// Handlers depend on PanelServiceInterface so tests can use a testify mock:
//
//	svc := new(MockPanelService)
//	svc.On("Sectors", mock.Anything).Return(sectors, nil)
//	handler := NewPanelHandler(svc, logger, nil)
//	rec := httptest.NewRecorder()
//	handler.Routes().ServeHTTP(rec, httptest.NewRequest("GET", "/sectors", nil))
package http
