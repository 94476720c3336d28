package journal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/modules/audit"
)

// Handler handles journal HTTP requests.
type Handler struct {
	service *Service
	audit   *audit.Repository
	log     zerolog.Logger
}

// NewHandler creates a new journal handler.
func NewHandler(service *Service, auditRepo *audit.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		audit:   auditRepo,
		log:     log.With().Str("handler", "journal").Logger(),
	}
}

// HandleListNotes returns all notes.
func (h *Handler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.Notes()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, notes)
}

// HandleGetNote returns the note for one ticker.
func (h *Handler) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.service.Note(chi.URLParam(r, "ticker"))
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "no note for ticker")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, note)
}

type noteRequest struct {
	Body string `json:"body"`
}

// HandlePutNote upserts the note for one ticker.
func (h *Handler) HandlePutNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	note, err := h.service.SaveNote(chi.URLParam(r, "ticker"), req.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.audit.Record("note_saved", map[string]interface{}{"ticker": note.Ticker}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusOK, note)
}

// HandleListTrades returns trades, optionally filtered by "ticker".
func (h *Handler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.service.Trades(r.URL.Query().Get("ticker"))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// HandleAddTrade appends one trade.
func (h *Handler) HandleAddTrade(w http.ResponseWriter, r *http.Request) {
	var trade Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	saved, err := h.service.AddTrade(trade)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.audit.Record("trade_added", map[string]interface{}{
		"ticker": saved.Ticker,
		"side":   saved.Side,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusCreated, saved)
}

// HandleDeleteTrade removes a trade by id.
func (h *Handler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.service.DeleteTrade(id)
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "trade not found")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.audit.Record("trade_deleted", map[string]interface{}{"id": id}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// HandleExportTrades streams all trades as CSV.
func (h *Handler) HandleExportTrades(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)

	if err := h.service.ExportCSV(w); err != nil {
		h.log.Error().Err(err).Msg("Failed to export trades")
	}
}

// HandleImportTrades appends trades from a CSV body.
func (h *Handler) HandleImportTrades(w http.ResponseWriter, r *http.Request) {
	imported, err := h.service.ImportCSV(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.audit.Record("trades_imported", map[string]interface{}{"imported": imported}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}

	h.writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
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
