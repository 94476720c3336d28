package report

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/modules/audit"
)

// Handler handles report HTTP requests.
type Handler struct {
	service    *Service
	repo       *Repository
	dispatcher *Dispatcher
	audit      *audit.Repository
	bus        *events.Bus
	log        zerolog.Logger
}

// NewHandler creates a new report handler.
func NewHandler(service *Service, repo *Repository, dispatcher *Dispatcher, auditRepo *audit.Repository, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		repo:       repo,
		dispatcher: dispatcher,
		audit:      auditRepo,
		bus:        bus,
		log:        log.With().Str("handler", "report").Logger(),
	}
}

type runRequest struct {
	Dispatch bool `json:"dispatch"`
}

// HandleRun builds a report on demand, stores it and optionally
// dispatches it to the configured channels.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	daily, err := h.service.BuildDaily(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	markdown := RenderMarkdown(daily)

	dispatch := DispatchResult{SlackStatus: StatusSkipped, EmailStatus: StatusSkipped}
	if req.Dispatch {
		dispatch = h.dispatcher.Send(r.Context(), markdown)
	}

	id, err := h.repo.Store(daily, markdown, dispatch)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.audit.Record("report_run", map[string]interface{}{
		"trigger": "manual",
		"slack":   dispatch.SlackStatus,
		"email":   dispatch.EmailStatus,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to record audit entry")
	}
	h.bus.Publish(events.TypeReportGenerated, map[string]interface{}{"id": id})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"markdown": markdown,
		"dispatch": dispatch,
	})
}

// HandleLatest returns the most recent stored report.
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	snapshot, daily, err := h.repo.Latest()
	if errors.Is(err, ErrNoReports) {
		h.writeError(w, http.StatusNotFound, "no reports generated yet")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": snapshot,
		"payload":  daily,
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
