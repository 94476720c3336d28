package portfolio

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/modules/audit"
)

// Handler handles portfolio HTTP requests.
type Handler struct {
	service  *Service
	settings *config.Store
	audit    *audit.Repository
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler.
func NewHandler(service *Service, settings *config.Store, auditRepo *audit.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		audit:    auditRepo,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleImport ingests a CSV body of positions.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ImportCSV(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.audit.Record("portfolio_import", map[string]interface{}{
		"imported": result.Imported,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetWeights returns market-value weights and sector aggregation.
func (h *Handler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Weights(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := h.settings.Get()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"weights":        report.Weights,
		"sector_weights": SectorWeights(report.Weights, settings.Sectors),
		"total_value":    report.TotalValue,
		"missing":        report.Missing,
	})
}

// HandleGetNudges returns rebalancing nudges against the plan targets.
func (h *Handler) HandleGetNudges(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Weights(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings := h.settings.Get()
	sectorWeights := SectorWeights(report.Weights, settings.Sectors)
	nudges := PlanNudges(sectorWeights, settings.Plan.TargetAllocations, settings.Plan.BandsPct)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sector_weights": sectorWeights,
		"targets":        settings.Plan.TargetAllocations,
		"band_pp":        settings.Plan.BandsPct,
		"nudges":         nudges,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
