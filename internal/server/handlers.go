package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/esfolk/DefiHedge/internal/scheduler"
)

const serviceName = "defiguard-risk"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := s.getSystemStats()

	status := "healthy"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	if s.historyDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.historyDB.QuickCheck(ctx); err != nil {
			s.log.Warn().Err(err).Msg("History database health check failed")
			checks["history_db"] = "unavailable"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["history_db"] = "ok"
		}
	}

	s.writeJSON(w, httpStatus, map[string]interface{}{
		"status":         status,
		"service":        serviceName,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"cpu_percent":    cpuPercent,
		"ram_percent":    ramPercent,
		"checks":         checks,
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// handleListJobs handles GET /api/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": s.jobs.Jobs(),
	})
}

// handleRunJob handles POST /api/jobs/{name}/run
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.jobs.RunNow(name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			s.writeJSON(w, http.StatusNotFound, map[string]string{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}
		s.log.Error().Err(err).Str("job", name).Msg("Manually triggered job failed")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": name + " completed",
	})
}

// getSystemStats returns CPU and RAM usage percentages, sampling CPU over 100ms
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
