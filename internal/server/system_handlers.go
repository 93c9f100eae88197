package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/meridianwm/advisor-sentinel/internal/modules/compliance"
	"github.com/meridianwm/advisor-sentinel/internal/scheduler"
)

// SystemHandlers exposes process and engine status for monitoring
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	history     *compliance.History
	sched       *scheduler.Scheduler
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, history *compliance.History, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		history:     history,
		sched:       sched,
	}
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime_seconds": int(time.Since(h.startupTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"tracked_alerts": h.history.Len(),
		"scheduled_jobs": h.sched.EntryCount(),
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status["memory_used_pct"] = memStat.UsedPercent
	}
	if cpuPct, err := cpu.Percent(0, false); err == nil && len(cpuPct) > 0 {
		status["cpu_pct"] = cpuPct[0]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": status,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode status response")
	}
}
