package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/itayost/barber-shem-tov-sub000/internal/observability/metrics"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

const maxIntakeBodyBytes = 64 << 10

// Notifier tells the academy staff about a new lead.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead *Lead) error
}

// Handler handles HTTP requests for leads
type Handler struct {
	repo     Repository
	notifier Notifier
	logger   *logging.Logger
	metrics  *metrics.LeadMetrics
}

// NewHandler creates a new leads handler. notifier and m may be nil.
func NewHandler(repo Repository, notifier Notifier, logger *logging.Logger, m *metrics.LeadMetrics) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
}

// SubmitLeadResponse is the intake endpoint reply.
type SubmitLeadResponse struct {
	Success bool        `json:"success"`
	ID      string      `json:"id,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  FieldErrors `json:"errors,omitempty"`
}

// SubmitLead handles POST /api/submit-lead requests
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var payload SubmitPayload
	r.Body = http.MaxBytesReader(w, r.Body, maxIntakeBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn("failed to decode lead payload", "error", err)
		h.metrics.ObserveIntake("unknown", "bad_request")
		writeJSON(w, http.StatusBadRequest, SubmitLeadResponse{Message: "Invalid request body"})
		return
	}

	validation := Validate(payload.FormInput())
	if !validation.Valid {
		h.metrics.ObserveIntake(payload.Source, "invalid")
		writeJSON(w, http.StatusUnprocessableEntity, SubmitLeadResponse{
			Message: "Please check the highlighted fields",
			Errors:  validation.Errors,
		})
		return
	}
	rec := validation.Record.WithCourse(payload.CourseOrFallback()).WithSource(payload.Source)

	lead, err := h.repo.Create(r.Context(), rec)
	if err != nil {
		h.logger.Error("failed to store lead", "error", err, "source", rec.Source)
		h.metrics.ObserveIntake(rec.Source, "error")
		writeJSON(w, http.StatusInternalServerError, SubmitLeadResponse{Message: "Could not save your details"})
		return
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyNewLead(r.Context(), lead); err != nil {
			h.logger.Error("lead notification failed", "error", err, "lead_id", lead.ID)
		}
	}

	h.logger.Info("lead received", "id", lead.ID, "course", lead.Course, "source", lead.Source)
	h.metrics.ObserveIntake(rec.Source, "accepted")
	writeJSON(w, http.StatusCreated, SubmitLeadResponse{Success: true, ID: lead.ID})
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filter := ListLeadsFilter{
		Limit:  50,
		Offset: 0,
		Source: r.URL.Query().Get("source"),
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	leads, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
