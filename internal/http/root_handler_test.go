package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/pkg/logger"
)

func rootMux(t *testing.T, checks map[string]ReadinessCheck) (http.Handler, *RootHandler) {
	handler := NewRootHandler("0.1.0", checks, logger.NewMockLogger(t))
	handler.now = func() time.Time { return time.Date(2026, 10, 14, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600)) }
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, handler
}

func TestRootHandler_Public(t *testing.T) {
	mux, _ := rootMux(t, nil)

	rec := serve(mux, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to Encanta API"}`, rec.Body.String())

	for _, path := range []string{"/health", "/api/health"} {
		rec = serve(mux, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","timestamp":"2026-10-14T06:00:00Z"}`, rec.Body.String())
	}

	for _, path := range []string{"/version", "/api/version"} {
		rec = serve(mux, http.MethodGet, path, "")
		assert.JSONEq(t, `{"version":"0.1.0"}`, rec.Body.String())
	}
}

func TestRootHandler_Ready(t *testing.T) {
	healthy := func(context.Context) error { return nil }

	t.Run("all checks pass", func(t *testing.T) {
		mux, _ := rootMux(t, map[string]ReadinessCheck{"database": healthy, "redis": healthy})
		rec := serve(mux, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})

	t.Run("a failing check", func(t *testing.T) {
		mux, _ := rootMux(t, map[string]ReadinessCheck{
			"database": healthy,
			"redis":    func(context.Context) error { return errors.New("dial tcp: connection refused") },
		})
		rec := serve(mux, http.MethodGet, "/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "unavailable", body["status"])
	})

	t.Run("checks share a deadline", func(t *testing.T) {
		mux, _ := rootMux(t, map[string]ReadinessCheck{
			"database": func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return nil
			},
		})
		assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/ready", "").Code)
	})
}
