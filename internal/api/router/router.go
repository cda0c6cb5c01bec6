package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/itayost/barber-shem-tov-sub000/internal/http/middleware"
	"github.com/itayost/barber-shem-tov-sub000/internal/leads"
	"github.com/itayost/barber-shem-tov-sub000/internal/tracking"
	"github.com/itayost/barber-shem-tov-sub000/pkg/logging"
)

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	// Context bounds background work started by middleware. Defaults to context.Background.
	Context            context.Context
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	TrackingHandler    *tracking.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Per-IP limits for the public site endpoints. Zero disables limiting.
	PublicRateLimit float64
	PublicRateBurst int

	// Readiness checks run by GET /ready, keyed by name.
	ReadinessChecks map[string]ReadinessCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	r.Get("/ready", readinessCheck(cfg.ReadinessChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public endpoints called by the academy website.
	r.Route("/api", func(api chi.Router) {
		if cfg.PublicRateLimit > 0 {
			api.Use(httpmiddleware.RateLimit(ctx, cfg.PublicRateLimit, cfg.PublicRateBurst))
		}
		if cfg.LeadsHandler != nil {
			api.Post("/submit-lead", cfg.LeadsHandler.SubmitLead)
		}
		if cfg.TrackingHandler != nil {
			api.Post("/track", cfg.TrackingHandler.Track)
		}
	})

	// Staff endpoints.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		if cfg.LeadsHandler != nil {
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
		}
		if cfg.TrackingHandler != nil {
			admin.Route("/enrollment", func(enrollment chi.Router) {
				enrollment.Get("/events", cfg.TrackingHandler.ListEvents)
				enrollment.Delete("/events", cfg.TrackingHandler.ClearEvents)
				enrollment.Get("/stats", cfg.TrackingHandler.GetStats)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readinessCheck(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		writeJSON(w, status, map[string]any{"status": overall, "checks": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
