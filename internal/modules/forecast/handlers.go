package forecast

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Handler handles forecast HTTP requests.
type Handler struct {
	service  *Service
	settings *config.Store
	log      zerolog.Logger
}

// NewHandler creates a new forecast handler.
func NewHandler(service *Service, settings *config.Store, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		log:      log.With().Str("handler", "forecast").Logger(),
	}
}

// HandleGetForecast returns the projected close per ticker. Optional
// "horizon" query parameter overrides the default horizon in days (1-30).
func (h *Handler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	horizon := DefaultHorizonDays
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 30 {
			h.writeError(w, http.StatusBadRequest, "horizon must be between 1 and 30")
			return
		}
		horizon = v
	}

	settings := h.settings.Get()
	forecasts, err := h.service.Generate(r.Context(), h.settings.AllTickers(), settings.Data.LookbackDays, horizon)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"horizon_days": horizon,
		"forecast":     forecasts,
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
