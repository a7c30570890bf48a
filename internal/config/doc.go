// Package config provides centralized configuration management for the probe
// analyzer. It loads configuration from multiple sources, validates it, and
// resolves the directories the application writes to.
//
// # Configuration Sources
//
// Sources are applied in this order, later ones overriding earlier ones:
//
//	1. Default values (Default)
//	2. YAML file (PROBE_CONFIG, probe.yaml or configs/probe.yaml)
//	3. Environment variables (highest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PROBE_<SECTION>_<FIELD>:
//
//	PROBE_SERVER_PORT=8080
//	PROBE_LOGGING_LEVEL=debug
//	PROBE_PROCESSING_WORKERS=4
//	PROBE_PROCESSING_ENCODINGS=utf-8,latin-1
//	PROBE_TELEMETRY_ENABLE_METRICS=false
//
// # Validation
//
// Validation uses go-playground/validator struct tags: ports and timeouts
// must be positive, log levels and formats are enumerations, and every
// configured encoding must be one the decoder supports.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	paths, err := cfg.ResolvePaths("")
package config
