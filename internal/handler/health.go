// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/blogicum/internal/cache"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/scheduler"
	"github.com/olegiv/blogicum/internal/version"
)

// JobLister reports the background jobs and their next run.
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

// CacheStatsReporter reports cache counters. ok is false when the cache
// does not track them.
type CacheStatsReporter interface {
	CacheStats() (stats cache.Stats, ok bool)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	dataDir   string
	jobs      JobLister
	cache     CacheStatsReporter
	version   *version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler. dataDir is the directory
// holding the SQLite database; an empty dataDir skips the disk check.
// jobs, cacheStats and info may be nil.
func NewHealthHandler(db *sql.DB, dataDir string, jobs JobLister, cacheStats CacheStatsReporter, info *version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		dataDir:   dataDir,
		jobs:      jobs,
		cache:     cacheStats,
		version:   info,
		startTime: time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (signed-in callers only).
type HealthStatus struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Uptime    string              `json:"uptime"`
	Version   string              `json:"version"`
	Checks    map[string]Check    `json:"checks"`
	Jobs      []scheduler.JobInfo `json:"jobs,omitempty"`
	Cache     *cache.Stats        `json:"cache,omitempty"`
	System    *SystemInfo         `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health requests.
// Returns minimal status for anonymous callers, full details for signed-in ones.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	diskCheck := h.checkDiskSpace()

	overallStatus := "healthy"
	if dbCheck.Status != "healthy" {
		overallStatus = "unhealthy"
	} else if diskCheck.Status != "healthy" {
		overallStatus = "degraded"
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	if overallStatus == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if middleware.GetUser(r) == nil {
		_ = json.NewEncoder(w).Encode(HealthStatusPublic{
			Status: overallStatus,
		})
		return
	}

	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.String(),
		Checks: map[string]Check{
			"database": dbCheck,
			"disk":     diskCheck,
		},
	}
	if h.jobs != nil {
		status.Jobs = h.jobs.Jobs()
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = getSystemInfo()
		if h.cache != nil {
			if stats, ok := h.cache.CacheStats(); ok {
				status.Cache = &stats
			}
		}
	}

	_ = json.NewEncoder(w).Encode(status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// Readiness handles GET /health/ready - checks if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())

	w.Header().Set(headerContentType, contentTypeJSON)

	if dbCheck.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
		})
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	resp := map[string]string{
		"status": "not_ready",
	}
	// Only include error details for signed-in callers
	if middleware.GetUser(r) != nil {
		resp["message"] = dbCheck.Message
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Connected",
		Latency: latency.String(),
	}
}

// checkDiskSpace checks available disk space next to the database file.
func (h *HealthHandler) checkDiskSpace() Check {
	if h.dataDir == "" {
		return Check{Status: "healthy", Message: "Not checked"}
	}
	if _, err := os.Stat(h.dataDir); err != nil {
		return Check{
			Status:  "degraded",
			Message: "Data directory not accessible: " + err.Error(),
		}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.dataDir, &stat); err != nil {
		return Check{
			Status:  "degraded",
			Message: "Failed to check disk space: " + err.Error(),
		}
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	available := formatBytes(availableBytes)

	// Warn if less than 100MB available
	const minSpace = 100 * 1024 * 1024
	if availableBytes < minSpace {
		return Check{
			Status:  "degraded",
			Message: "Low disk space: " + available + " available",
		}
	}

	return Check{
		Status:  "healthy",
		Message: available + " available",
	}
}

// getSystemInfo returns system-level metrics.
func getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
