package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/encanta/encanta/pkg/logger"
)

const readyTimeout = 3 * time.Second

// ReadinessCheck reports whether one dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// RootHandler serves the welcome, health, version and readiness endpoints
type RootHandler struct {
	version string
	checks  map[string]ReadinessCheck
	logger  logger.Logger
	now     func() time.Time
}

func NewRootHandler(version string, checks map[string]ReadinessCheck, logger logger.Logger) *RootHandler {
	return &RootHandler{
		version: version,
		checks:  checks,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *RootHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/api/health", h.Health)
	r.Get("/version", h.Version)
	r.Get("/api/version", h.Version)
	r.Get("/ready", h.Ready)
}

func (h *RootHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Encanta API"})
}

func (h *RootHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *RootHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// Ready runs every readiness check concurrently and answers 503 when any fails
func (h *RootHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		name, check := name, check
		g.Go(func() error {
			if err := check(gctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
