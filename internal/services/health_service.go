package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"finpanel/internal/config"
	"finpanel/pkg/contracts"
)

// Health statuses
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	panel     *PanelService
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
}

// NewHealthService creates a health service. panel may be nil when only
// liveness is needed.
func NewHealthService(version string, paths *config.Paths, panel *PanelService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = contracts.Version
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		panel:     panel,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports ready once the data directory and the sector
// document exist and the document decodes
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"data":     hs.checkDataHealth(),
			"document": hs.checkDocumentHealth(ctx),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}
	if hs.panel != nil {
		status.Services["cache"] = hs.panel.CacheStats()
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
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
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":         hs.version,
		"build_time":      info.BuildTime,
		"git_commit":      info.GitCommit,
		"go_version":      info.GoVersion,
		"os":              info.OS,
		"arch":            info.Architecture,
		"document_format": info.DocumentFormat,
		"api_version":     info.APIVersion,
		"uptime":          time.Since(hs.startTime).Seconds(),
		"start_time":      hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "paths not configured"}
	}
	info, err := os.Stat(hs.paths.DataDir)
	if err != nil || !info.IsDir() {
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Data directory not found: %s", hs.paths.DataDir),
		}
	}
	return ServiceHealth{Status: StatusReady, Message: "Data directory is accessible"}
}

func (hs *HealthService) checkDocumentHealth(ctx context.Context) ServiceHealth {
	if hs.panel == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "panel service not configured"}
	}
	snap, err := hs.panel.Snapshot(ctx)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d sectors, %d companies, %d rows", len(snap.Document.Sectors), snap.Document.CompanyCount(), len(snap.Rows)),
	}
}
