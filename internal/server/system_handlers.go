package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/events"
)

// SystemHandlers serves process and host level status.
type SystemHandlers struct {
	log       zerolog.Logger
	db        *database.DB
	bus       *events.Bus
	startedAt time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, db *database.DB, bus *events.Bus, startedAt time.Time) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		db:        db,
		bus:       bus,
		startedAt: startedAt,
	}
}

// HandleSystemStatus reports uptime, CPU, memory and database size.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	status := map[string]interface{}{
		"uptime_s":        int(time.Since(h.startedAt).Seconds()),
		"cpu_percent":     cpuPct,
		"memory_percent":  memPct,
		"goroutines":      runtime.NumGoroutine(),
		"db_size_bytes":   h.db.Size(),
		"sse_subscribers": h.bus.SubscriberCount(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode status response")
	}
}

// systemStats samples CPU over a short window so the endpoint stays fast.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
