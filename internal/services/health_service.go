package services

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"probecli/internal/config"
	"probecli/internal/infrastructure"
)

// AnalysisStatusProvider reports the state of the analysis service
type AnalysisStatusProvider interface {
	Status() AnalysisStatus
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	repoURL   string
	buildTime string
	buildID   string
	paths     config.PathsConfig
	analysis  AnalysisStatusProvider
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds   float64 `json:"uptime_seconds"`
	Goroutines      int64   `json:"goroutines"`
	HeapAllocBytes  int64   `json:"heap_alloc_bytes"`
	ExportFiles     int     `json:"export_files"`
	ExportSizeBytes int64   `json:"export_size_bytes"`
	LoadedFiles     int     `json:"loaded_files"`
	LoadedSections  int     `json:"loaded_sections"`
	GoVersion       string  `json:"go_version"`
	OS              string  `json:"os"`
	Arch            string  `json:"arch"`
}

// NewHealthService creates a new health service
func NewHealthService(version, repoURL string, paths config.PathsConfig, analysis AnalysisStatusProvider, logger *slog.Logger) *HealthService {
	return NewHealthServiceWithBuildInfo(version, repoURL, "", "", paths, analysis, logger)
}

// NewHealthServiceWithBuildInfo creates a new health service with build information
func NewHealthServiceWithBuildInfo(version, repoURL, buildTime, buildID string, paths config.PathsConfig, analysis AnalysisStatusProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		repoURL:   repoURL,
		buildTime: buildTime,
		buildID:   buildID,
		paths:     paths,
		analysis:  analysis,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"analysis": hs.checkAnalysisHealth(),
			"data":     checkDirectory("Data", hs.paths.DataDir),
			"exports":  checkDirectory("Export", hs.paths.ExportDir),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"repo_url":     hs.repoURL,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// SystemStats returns runtime, export directory and loaded batch statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	sys := infrastructure.ReadSystemStats(hs.startTime)

	stats := SystemStats{
		UptimeSeconds:  sys.ProcessUptime.Seconds(),
		Goroutines:     sys.GoRoutines,
		HeapAllocBytes: sys.HeapAlloc,
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
	}

	if hs.paths.ExportDir != "" {
		_ = filepath.WalkDir(hs.paths.ExportDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				stats.ExportFiles++
				stats.ExportSizeBytes += info.Size()
			}
			return nil
		})
	}

	if hs.analysis != nil {
		current := hs.analysis.Status()
		stats.LoadedFiles = current.Files
		stats.LoadedSections = current.Sections
	}

	return stats
}

func (hs *HealthService) checkAnalysisHealth() ServiceHealth {
	if hs.analysis == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "analysis service not initialized",
		}
	}

	current := hs.analysis.Status()
	message := "no batch loaded"
	if current.Loaded {
		message = fmt.Sprintf("batch %s: %d files, %d sections", current.BatchID, current.Files, current.Sections)
	}
	return ServiceHealth{
		Status:  "ready",
		Message: message,
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func checkDirectory(label, dir string) ServiceHealth {
	info, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("%s directory not accessible: %s", label, dir),
		}
	}
	if !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("%s path is not a directory: %s", label, dir),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%s directory is healthy", label),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	detail := map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     hs.SystemStats(ctx),
	}
	if hs.analysis != nil {
		detail["analysis"] = hs.analysis.Status()
	}
	return detail
}
