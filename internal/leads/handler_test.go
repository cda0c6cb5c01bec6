package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/itayost/barber-shem-tov-sub000/internal/observability/metrics"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

type stubNotifier struct {
	leads []*Lead
	err   error
}

func (s *stubNotifier) NotifyNewLead(_ context.Context, lead *Lead) error {
	s.leads = append(s.leads, lead)
	return s.err
}

type failingRepository struct{}

func (failingRepository) Create(context.Context, LeadRecord) (*Lead, error) {
	return nil, errors.New("database unavailable")
}

func (failingRepository) GetByID(context.Context, string) (*Lead, error) {
	return nil, ErrLeadNotFound
}

func (failingRepository) List(context.Context, ListLeadsFilter) ([]*Lead, error) {
	return nil, errors.New("database unavailable")
}

func postLead(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, SubmitLeadResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.SubmitLead(w, req)

	var resp SubmitLeadResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return w, resp
}

func TestSubmitLead_Success(t *testing.T) {
	repo := NewInMemoryRepository()
	notifier := &stubNotifier{}
	handler := NewHandler(repo, notifier, logging.Discard(), metrics.NewLeadMetrics(prometheus.NewRegistry()))

	payload, _ := json.Marshal(NewSubmitPayload(testRecord()))
	w, resp := postLead(t, handler, string(payload))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if !resp.Success || resp.ID == "" {
		t.Fatalf("expected success with id, got %+v", resp)
	}

	stored, err := repo.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("expected stored lead: %v", err)
	}
	if stored.Phone != "0521112222" || stored.Course != "Barbering 101" || stored.Source != "course_page" {
		t.Errorf("unexpected stored lead %+v", stored)
	}
	if len(notifier.leads) != 1 || notifier.leads[0].ID != resp.ID {
		t.Errorf("expected notifier called with the new lead")
	}
}

func TestSubmitLead_NumericAgeAndCourseNameOnly(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil, logging.Discard(), nil)

	w, resp := postLead(t, handler, `{"name":"Dana","city":"Haifa","age":22,"phone":"052 111 2222","courseName":"Fades","source":"float_button"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	stored, _ := repo.GetByID(context.Background(), resp.ID)
	if stored.Course != "Fades" || stored.Age != 22 {
		t.Errorf("unexpected stored lead %+v", stored)
	}
}

func TestSubmitLead_ValidationErrors(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.Discard(), nil)

	w, resp := postLead(t, handler, `{"name":"","city":"Haifa","age":"15","phone":"123"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
	if resp.Success {
		t.Fatalf("expected success=false")
	}
	want := FieldErrors{"name": MsgRequired, "age": MsgInvalid, "phone": MsgInvalid}
	if len(resp.Errors) != len(want) {
		t.Fatalf("expected %v, got %v", want, resp.Errors)
	}
	for field, msg := range want {
		if resp.Errors[field] != msg {
			t.Errorf("field %s: expected %q, got %q", field, msg, resp.Errors[field])
		}
	}
}

func TestSubmitLead_InvalidBody(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.Discard(), nil)

	w, resp := postLead(t, handler, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if resp.Success {
		t.Errorf("expected success=false")
	}
}

func TestSubmitLead_TooLarge(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.Discard(), nil)

	body := `{"name":"` + strings.Repeat("a", maxIntakeBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handler.SubmitLead(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestSubmitLead_RepositoryFailure(t *testing.T) {
	notifier := &stubNotifier{}
	handler := NewHandler(failingRepository{}, notifier, logging.Discard(), nil)

	payload, _ := json.Marshal(NewSubmitPayload(testRecord()))
	w, resp := postLead(t, handler, string(payload))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if resp.Success {
		t.Errorf("expected success=false")
	}
	if len(notifier.leads) != 0 {
		t.Errorf("notifier must not run when the lead was not stored")
	}
}

func TestSubmitLead_NotifierFailureStillAccepts(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), &stubNotifier{err: errors.New("smtp down")}, logging.Discard(), nil)

	payload, _ := json.Marshal(NewSubmitPayload(testRecord()))
	w, resp := postLead(t, handler, string(payload))
	if w.Code != http.StatusCreated || !resp.Success {
		t.Errorf("expected accepted lead, got %d %+v", w.Code, resp)
	}
}

func TestSubmitLead_ClientRoundTrip(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.Discard(), nil)
	srv := httptest.NewServer(http.HandlerFunc(handler.SubmitLead))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if res := client.Submit(context.Background(), testRecord()); !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	bad := LeadRecord{Name: "Dana", City: "Haifa", Age: 12, Phone: "0521112222"}
	res := client.Submit(context.Background(), bad)
	if res.Kind != KindRemoteRejection {
		t.Fatalf("expected remote rejection, got %v", res.Kind)
	}
	if res.Message != "Please check the highlighted fields" {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestListLeads(t *testing.T) {
	repo := NewInMemoryRepository()
	handler := NewHandler(repo, nil, logging.Discard(), nil)
	ctx := context.Background()
	for _, source := range []string{"course_page", "contact_page", "course_page"} {
		if _, err := repo.Create(ctx, testRecord().WithSource(source)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?source=course_page&limit=1", nil)
	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Limit != 1 || resp.Leads[0].Source != "course_page" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestListLeads_IgnoresBadPaging(t *testing.T) {
	handler := NewHandler(NewInMemoryRepository(), nil, logging.Discard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/leads?limit=5000&offset=-1", nil)
	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Limit != 50 || resp.Offset != 0 || resp.Leads == nil {
		t.Errorf("unexpected paging %+v", resp)
	}
}

func TestListLeads_RepositoryFailure(t *testing.T) {
	handler := NewHandler(failingRepository{}, nil, logging.Discard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	w := httptest.NewRecorder()
	handler.ListLeads(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
