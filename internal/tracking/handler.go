package tracking

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

// Handler exposes the tracker over HTTP.
type Handler struct {
	tracker  *Tracker
	validate *validator.Validate
	logger   *logging.Logger
}

// NewHandler creates a tracking handler.
func NewHandler(tracker *Tracker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		tracker:  tracker,
		validate: v,
		logger:   logger,
	}
}

// TrackRequest is the body accepted by POST /api/track.
type TrackRequest struct {
	Method      string   `json:"method" validate:"required,oneof=whatsapp phone form float_whatsapp float_phone float_form"`
	Source      string   `json:"source" validate:"required,oneof=course_card course_page contact_page float_button academy_page"`
	CourseName  string   `json:"courseName" validate:"omitempty,max=200"`
	CoursePrice *float64 `json:"coursePrice" validate:"omitempty,gte=0"`
}

// Track handles POST /api/track requests
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid tracking event",
			"fields": fieldNames(err),
		})
		return
	}

	var opts []TrackOption
	if req.CourseName != "" {
		opts = append(opts, WithCourse(req.CourseName))
	}
	if req.CoursePrice != nil {
		opts = append(opts, WithPrice(*req.CoursePrice))
	}
	h.tracker.Track(r.Context(), Method(req.Method), Source(req.Source), opts...)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// ListEventsResponse is the response for GET /admin/enrollment/events
type ListEventsResponse struct {
	Events []EnrollmentEvent `json:"events"`
	Count  int               `json:"count"`
}

// ListEvents handles GET /admin/enrollment/events requests
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := h.tracker.StoredEvents(r.Context())
	writeJSON(w, http.StatusOK, ListEventsResponse{Events: events, Count: len(events)})
}

// GetStats handles GET /admin/enrollment/stats requests
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Stats(r.Context()))
}

// ClearEvents handles DELETE /admin/enrollment/events requests
func (h *Handler) ClearEvents(w http.ResponseWriter, r *http.Request) {
	h.tracker.Clear(r.Context())
	h.logger.Info("enrollment event log cleared")
	w.WriteHeader(http.StatusNoContent)
}

func fieldNames(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return names
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
