package news

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Handler handles news HTTP requests.
type Handler struct {
	service  *Service
	settings *config.Store
	log      zerolog.Logger
}

// NewHandler creates a new news handler.
func NewHandler(service *Service, settings *config.Store, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		log:      log.With().Str("handler", "news").Logger(),
	}
}

// HandleGetNews returns headlines for the requested tickers.
// Query params: tickers (comma separated, default watchlist), limit,
// provider (auto|newsapi|finnhub, default from settings).
func (h *Handler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	settings := h.settings.Get()

	tickers := splitTickers(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 {
		tickers = settings.Watchlist
	}
	if len(tickers) == 0 {
		tickers = settings.Portfolio.Tickers
	}

	limit := settings.News.PerTicker
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 50 {
			h.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 50")
			return
		}
		limit = parsed
	}

	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = settings.News.Provider
	}
	if !ValidProvider(provider) {
		h.writeError(w, http.StatusBadRequest, "unknown provider: "+provider)
		return
	}

	items, err := h.service.Fetch(r.Context(), tickers, limit, provider)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if items == nil {
		items = []Item{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"provider": provider,
		"items":    items,
	})
}

func splitTickers(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
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
