package screener

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/events"
)

// Handler handles screener HTTP requests.
type Handler struct {
	service  *Service
	settings *config.Store
	bus      *events.Bus
	log      zerolog.Logger
}

// NewHandler creates a new screener handler.
func NewHandler(service *Service, settings *config.Store, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		bus:      bus,
		log:      log.With().Str("handler", "screener").Logger(),
	}
}

// HandleRunScreener runs a screener pass over all configured tickers.
// Optional "top" query parameter overrides picks per sector (1-20).
func (h *Handler) HandleRunScreener(w http.ResponseWriter, r *http.Request) {
	topN := DefaultTopN
	if raw := r.URL.Query().Get("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 20 {
			h.writeError(w, http.StatusBadRequest, "top must be between 1 and 20")
			return
		}
		topN = v
	}

	settings := h.settings.Get()
	result, err := h.service.Run(r.Context(), h.settings.AllTickers(), settings.Sectors, topN)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.bus.Publish(events.TypeScreenerRun, map[string]interface{}{
		"scanned": result.Scanned,
		"skipped": len(result.Skipped),
	})

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
