package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogulcanaydogan/callbill/internal/metrics"
	"github.com/ogulcanaydogan/callbill/pkg/alerts"
	"github.com/ogulcanaydogan/callbill/pkg/billing"
	"github.com/ogulcanaydogan/callbill/pkg/ingest"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

// Options configures the API server.
type Options struct {
	Ingest        ingest.Options
	MaxUploadSize int64
	Metrics       *metrics.Collector  // optional
	Gatherer      prometheus.Gatherer // serves /metrics when set
	Notifiers     []alerts.Notifier   // receive a summary of every API run
}

// Server exposes billing over HTTP.
type Server struct {
	engine *billing.Engine
	plans  *tariff.Registry
	opts   Options
	router chi.Router
	logger *slog.Logger
}

// NewServer creates an API server.
func NewServer(engine *billing.Engine, plans *tariff.Registry, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 10 * 1024 * 1024
	}
	s := &Server{
		engine: engine,
		plans:  plans,
		opts:   opts,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.instrument)

	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/bill", s.handleBill)
		r.Get("/tariff", s.handleTariff)
		r.Get("/plans", s.handlePlans)
	})
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// instrument logs every request and records it in the metrics collector.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		if s.opts.Metrics != nil {
			s.opts.Metrics.ObserveRequest(r.Method, route, metrics.StatusClass(status), time.Since(start))
		}
		s.logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTariff(w http.ResponseWriter, r *http.Request) {
	t, err := tariff.Resolve(s.plans, s.engine.Tariff(), r.URL.Query().Get("plan"), tariff.Override{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tariff.FromConfig(t))
}

func (s *Server) handlePlans(w http.ResponseWriter, _ *http.Request) {
	files := []tariff.File{}
	if s.plans != nil {
		for _, t := range s.plans.All() {
			files = append(files, tariff.FromConfig(t))
		}
	}
	writeJSON(w, http.StatusOK, files)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
