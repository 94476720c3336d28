package optimization

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Handler handles optimization HTTP requests.
type Handler struct {
	service  *Service
	settings *config.Store
	log      zerolog.Logger
}

// NewHandler creates a new optimization handler.
func NewHandler(service *Service, settings *config.Store, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		log:      log.With().Str("handler", "optimization").Logger(),
	}
}

// HandleGetWeights returns the allocation for the portfolio tickers.
// "target_vol" overrides the configured target; 0 disables the cash sleeve.
func (h *Handler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	settings := h.settings.Get()

	targetVol := settings.Risk.TargetPortfolioVol
	if raw := r.URL.Query().Get("target_vol"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			h.writeError(w, http.StatusBadRequest, "target_vol must be between 0 and 1")
			return
		}
		targetVol = v
	}

	if len(settings.Portfolio.Tickers) == 0 {
		h.writeError(w, http.StatusBadRequest, "no portfolio tickers configured")
		return
	}

	allocation, err := h.service.Allocate(r.Context(), settings.Portfolio.Tickers, settings.Data.LookbackDays, targetVol)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, allocation)
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
