// Package app wires the probe analyzer web service together.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, probe.yaml, PROBE_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Resolve and create the data, export and log directories
//	4. Build the aggregator, file validator, analysis and health services
//	5. Set up middleware and mount the HTTP handlers
//	6. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    slog.Error("Failed to initialize application", slog.String("error", err.Error()))
//	    os.Exit(1)
//	}
//	if err := application.Run(); err != nil {
//	    os.Exit(1)
//	}
package app
