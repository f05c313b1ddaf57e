package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/inferloop/healthtrack/pkg/interfaces"
)

// readinessTimeout bounds each dependency ping
const readinessTimeout = 2 * time.Second

type HealthHandler struct {
	startTime    time.Time
	version      string
	environment  string
	dependencies map[string]interfaces.Storage
}

type DependencyCheck struct {
	Name         string        `json:"name"`
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"responseTime"`
	Error        string        `json:"error,omitempty"`
}

type HealthStatus struct {
	Status      string       `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
	Version     string       `json:"version"`
	Environment string       `json:"environment"`
	Uptime      string       `json:"uptime"`
	System      SystemHealth `json:"system"`
}

type SystemHealth struct {
	CPUCount   int    `json:"cpuCount"`
	Goroutines int    `json:"goroutines"`
	Allocated  uint64 `json:"allocated"`
	System     uint64 `json:"system"`
	NumGC      uint32 `json:"numGC"`
}

func NewHealthHandler(version, environment string) *HealthHandler {
	return &HealthHandler{
		startTime:    time.Now(),
		version:      version,
		environment:  environment,
		dependencies: make(map[string]interfaces.Storage),
	}
}

// AddDependency registers a backend checked by the readiness probe
func (h *HealthHandler) AddDependency(name string, dep interfaces.Storage) {
	if dep != nil {
		h.dependencies[name] = dep
	}
}

func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	writeJSON(w, http.StatusOK, HealthStatus{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).String(),
		System: SystemHealth{
			CPUCount:   runtime.NumCPU(),
			Goroutines: runtime.NumGoroutine(),
			Allocated:  memStats.Alloc,
			System:     memStats.Sys,
			NumGC:      memStats.NumGC,
		},
	})
}

func (h *HealthHandler) GetLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// GetReadiness pings every registered dependency; any failure reports 503
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	checks := h.checkDependencies(r.Context())

	status, code := "ready", http.StatusOK
	for _, check := range checks {
		if check.Status != "ready" {
			status, code = "not_ready", http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"checks":    checks,
	})
}

func (h *HealthHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":     h.version,
		"environment": h.environment,
		"build_info": map[string]interface{}{
			"go_version": runtime.Version(),
			"go_os":      runtime.GOOS,
			"go_arch":    runtime.GOARCH,
		},
		"timestamp": time.Now(),
	})
}

func (h *HealthHandler) checkDependencies(ctx context.Context) []DependencyCheck {
	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make([]DependencyCheck, 0, len(names))
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		start := time.Now()
		err := h.dependencies[name].Ping(pingCtx)
		cancel()

		check := DependencyCheck{Name: name, Status: "ready", ResponseTime: time.Since(start)}
		if err != nil {
			check.Status = "not_ready"
			check.Error = err.Error()
		}
		checks = append(checks, check)
	}
	return checks
}
