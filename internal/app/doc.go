// Package app wires the finpanel read API: configuration, logging,
// OpenTelemetry, the panel and health services, the chi router and the HTTP
// server lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, FINPANEL_* environment)
//	2. Initialize logging and observability
//	3. Resolve and create the data, reports and logs directories
//	4. Build the panel cache, prompt builder and services
//	5. Set up middleware, handlers and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(app.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down within
// server.shutdown_timeout and flushes telemetry.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
