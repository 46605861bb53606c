package handler

import (
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the local web surface. With a nil app only the
// operational endpoints are mounted.
func NewRouter(app *service.App, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(app, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	if app == nil {
		return r
	}

	r.Get("/", pageHandler(app, logger))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", sessionHandler(app, logger))
		r.Get("/metrics/client", clientMetricsHandler(metrics))

		// =============================================
		// Auth
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/mode", authModeHandler(app, logger))
			r.Post("/login", authSubmitHandler(app, domain.AuthModeLogin, logger))
			r.Post("/signup", authSubmitHandler(app, domain.AuthModeSignup, logger))
			r.Post("/logout", authLogoutHandler(app, logger))
		})

		// =============================================
		// Dashboard & entries (session required)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(app, logger))

			r.Get("/dashboard", dashboardHandler(app, logger))
			r.Post("/entries/refresh", refreshEntriesHandler(app, logger))
			r.Get("/entries/form", getEntryFormHandler(app, logger))
			r.Put("/entries/form", putEntryFormHandler(app, logger))
			r.Post("/entries", createEntryHandler(app, logger))
			r.Delete("/entries/{entryId}", deleteEntryHandler(app, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := []domain.ServiceHealth{
			{Name: "ledger-client", Status: "healthy"},
		}

		if app != nil {
			status := "healthy"
			if _, err := app.Session(); err != nil {
				logger.Warn("healthz: session store unreadable", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{Name: "session-store", Status: status})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func clientMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
