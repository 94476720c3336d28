// Package settings exposes the user-editable configuration surfaces:
// watchlist, sector map and allocation plan.
package settings

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/modules/audit"
)

// Handler handles settings HTTP requests.
type Handler struct {
	settings *config.Store
	audit    *audit.Repository
	log      zerolog.Logger
}

// NewHandler creates a new settings handler.
func NewHandler(settings *config.Store, auditRepo *audit.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		settings: settings,
		audit:    auditRepo,
		log:      log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetWatchlist returns the watchlist.
func (h *Handler) HandleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.settings.Get().Watchlist)
}

type watchlistRequest struct {
	Ticker string `json:"ticker"`
}

// HandleAddToWatchlist adds a ticker to the watchlist.
func (h *Handler) HandleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	added, err := h.settings.AddToWatchlist(req.Ticker)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if added {
		if err := h.audit.Record("watchlist_add", map[string]interface{}{
			"ticker": config.NormalizeTicker(req.Ticker),
		}); err != nil {
			h.log.Error().Err(err).Msg("Failed to record audit entry")
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"added":     added,
		"watchlist": h.settings.Get().Watchlist,
	})
}

// HandleRemoveFromWatchlist removes a ticker from the watchlist.
func (h *Handler) HandleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		h.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	removed, err := h.settings.RemoveFromWatchlist(ticker)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		h.writeError(w, http.StatusNotFound, "ticker not on watchlist")
		return
	}

	if err := h.audit.Record("watchlist_remove", map[string]interface{}{
		"ticker": config.NormalizeTicker(ticker),
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"removed":   true,
		"watchlist": h.settings.Get().Watchlist,
	})
}

// HandleGetSectors returns the sector map.
func (h *Handler) HandleGetSectors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.settings.Get().Sectors)
}

// HandlePutSectors replaces the sector map.
func (h *Handler) HandlePutSectors(w http.ResponseWriter, r *http.Request) {
	var sectors map[string][]string
	if err := json.NewDecoder(r.Body).Decode(&sectors); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	normalized := make(map[string][]string, len(sectors))
	for sector, tickers := range sectors {
		if sector == "" {
			h.writeError(w, http.StatusBadRequest, "sector name cannot be empty")
			return
		}
		clean := make([]string, 0, len(tickers))
		for _, t := range tickers {
			if n := config.NormalizeTicker(t); n != "" {
				clean = append(clean, n)
			}
		}
		normalized[sector] = clean
	}

	if err := h.settings.Update(func(s *config.Settings) {
		s.Sectors = normalized
	}); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.audit.Record("sectors_updated", map[string]interface{}{
		"sectors": len(normalized),
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusOK, normalized)
}

// HandleGetPlan returns the allocation plan.
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.settings.Get().Plan)
}

// HandlePutPlan replaces the allocation plan. Targets must be non-negative
// and sum to at most 1.
func (h *Handler) HandlePutPlan(w http.ResponseWriter, r *http.Request) {
	var plan config.PlanSettings
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	total := 0.0
	for sector, target := range plan.TargetAllocations {
		if sector == "" {
			h.writeError(w, http.StatusBadRequest, "sector name cannot be empty")
			return
		}
		if target < 0 {
			h.writeError(w, http.StatusBadRequest, "targets must be non-negative")
			return
		}
		total += target
	}
	if total > 1.0001 {
		h.writeError(w, http.StatusBadRequest, "targets must sum to at most 1")
		return
	}
	if plan.BandsPct <= 0 || plan.BandsPct > 50 {
		h.writeError(w, http.StatusBadRequest, "bands_pct must be between 0 and 50")
		return
	}

	if err := h.settings.Update(func(s *config.Settings) {
		s.Plan = plan
	}); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.audit.Record("plan_updated", nil); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusOK, plan)
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
