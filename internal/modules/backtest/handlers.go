package backtest

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Handler handles backtest HTTP requests.
type Handler struct {
	service  *Service
	settings *config.Store
	log      zerolog.Logger
}

// NewHandler creates a new backtest handler.
func NewHandler(service *Service, settings *config.Store, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		log:      log.With().Str("handler", "backtest").Logger(),
	}
}

type compareRequest struct {
	Ticker  string                 `json:"ticker"`
	Params  *config.SignalSettings `json:"params,omitempty"`
	CostBps *float64               `json:"cost_bps,omitempty"`
}

// HandleCompare runs all strategies for one ticker. Signal parameters and
// cost default from settings when omitted.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ticker := config.NormalizeTicker(req.Ticker)
	if ticker == "" {
		h.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	settings := h.settings.Get()
	params := settings.Signals
	if req.Params != nil {
		params = *req.Params
	}

	costBps := DefaultCostBps
	if req.CostBps != nil {
		if *req.CostBps < 0 || *req.CostBps > 1000 {
			h.writeError(w, http.StatusBadRequest, "cost_bps must be between 0 and 1000")
			return
		}
		costBps = *req.CostBps
	}

	comparison, err := h.service.Compare(r.Context(), ticker, params, settings.Data.LookbackDays, costBps)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, comparison)
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
