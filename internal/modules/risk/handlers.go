package risk

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Handler handles risk HTTP requests.
type Handler struct {
	service  *Service
	settings *config.Store
	log      zerolog.Logger
}

// NewHandler creates a new risk handler.
func NewHandler(service *Service, settings *config.Store, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		log:      log.With().Str("handler", "risk").Logger(),
	}
}

// HandleGetVaR returns per-ticker historical VaR. Optional "alpha" query
// parameter overrides the default tail probability.
func (h *Handler) HandleGetVaR(w http.ResponseWriter, r *http.Request) {
	alpha := DefaultAlpha
	if raw := r.URL.Query().Get("alpha"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			h.writeError(w, http.StatusBadRequest, "alpha must be between 0 and 1 exclusive")
			return
		}
		alpha = v
	}

	settings := h.settings.Get()
	report, err := h.service.Report(r.Context(), h.settings.AllTickers(), settings.Data.LookbackDays, alpha)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleGetTrailingStop evaluates a trailing stop for one ticker. "pct"
// defaults to the configured stop-loss percentage.
func (h *Handler) HandleGetTrailingStop(w http.ResponseWriter, r *http.Request) {
	ticker := config.NormalizeTicker(r.URL.Query().Get("ticker"))
	if ticker == "" {
		h.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	settings := h.settings.Get()
	pct := settings.Risk.StopLossPct
	if raw := r.URL.Query().Get("pct"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			h.writeError(w, http.StatusBadRequest, "pct must be between 0 and 1 exclusive")
			return
		}
		pct = v
	}

	result, err := h.service.Stop(r.Context(), ticker, settings.Data.LookbackDays, pct)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
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
