package config

import "time"

// Application constants
const (
	AppName = "Probe Analyzer"

	// HTTP
	DefaultPort           = 8080
	DefaultRequestTimeout = 2 * time.Minute

	// Rate limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Uploads
	DefaultMaxFileSize   int64 = 32 << 20
	DefaultMaxBatchFiles       = 500

	// File paths (relative to the working directory)
	DefaultDataDir   = "data"
	DefaultExportDir = "data/exports"
	DefaultLogsDir   = "logs"

	// Export file names
	WorkbookFileName = "probe_analysis.xlsx"
	SummaryFileName  = "probe_summary.csv"
)

// ProbeFileExtensions lists the result file extensions accepted for analysis
var ProbeFileExtensions = []string{".raw", ".imp"}
