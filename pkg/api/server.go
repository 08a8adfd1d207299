// Package api exposes the callout engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/core/callout"
	"github.com/jakechorley/timeshift/pkg/metrics"
)

// Options configures the router
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	// Health reports backend liveness for GET /health; nil means always healthy
	Health func(ctx context.Context) error
}

// Handler contains all HTTP handlers
type Handler struct {
	svc      *callout.Service
	logger   *zap.Logger
	validate *validator.Validate
}

// NewRouter builds the HTTP surface over a callout service
func NewRouter(svc *callout.Service, logger *zap.Logger, opts Options) http.Handler {
	h := &Handler{
		svc:      svc,
		logger:   logger,
		validate: newValidator(),
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(opts.RequestTimeout))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", actorIDHeader, orgIDHeader, roleHeader},
			ExposedHeaders: []string{chimiddleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(ActorFromHeaders)

		r.Route("/callout-events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.OpenCallout)

			r.Route("/{eventId}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.Get("/list", h.RankedList)
				r.Get("/next", h.NextCandidate)
				r.Post("/cancel", h.CancelEvent)
				r.Get("/attempts", h.ListAttempts)
				r.Post("/attempts", h.RecordAttempt)
			})
		})

		r.Patch("/callout-attempts/{attemptId}", h.UpdateAttemptNotes)
		r.Get("/overtime/{userId}", h.OvertimeHours)
	})

	return r
}
