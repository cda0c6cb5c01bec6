package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/itayost/barber-shem-tov-sub000/internal/config"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	m := setupMetrics()
	if m.handler == nil || m.leads == nil || m.tracking == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.leads.ObserveIntake("course_page", "accepted")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "academy_leads_intake_total") {
		t.Fatalf("expected intake counter to be exported")
	}
}

func TestBuildAppInMemory(t *testing.T) {
	cfg := &appconfig.Config{EventLogBackend: "memory", LeadIntakeURL: "http://localhost:8080/api/submit-lead"}
	a, err := buildApp(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.close()

	body := `{"name":"Dana","city":"Haifa","age":"22","phone":"052-111-2222","course":"Fades","courseName":"Fades","source":"course_page"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submit-lead", strings.NewReader(body))
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
}

func TestBuildAppRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{EventLogBackend: "redis", RedisAddr: mr.Addr(), EventLogKey: "events"}
	a, err := buildApp(context.Background(), cfg, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.close()

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader(`{"method":"whatsapp","source":"course_card"}`))
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}
	if !mr.Exists("events") {
		t.Fatalf("expected event log persisted to redis")
	}

	ready := httptest.NewRecorder()
	a.handler.ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if ready.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", ready.Code)
	}
}

func TestBuildAppRejectsRedisBackendWithoutRedis(t *testing.T) {
	cfg := &appconfig.Config{EventLogBackend: "redis"}
	if _, err := buildApp(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error for redis backend without REDIS_ADDR")
	}
}
