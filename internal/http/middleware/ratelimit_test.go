package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encanta/encanta/internal/domain"
	"github.com/encanta/encanta/internal/domain/mocks"
	"github.com/encanta/encanta/pkg/logger"
	"github.com/encanta/encanta/pkg/ratelimiter"
)

func newLimiter(t *testing.T, limit int) *ratelimiter.Limiter {
	limiter := ratelimiter.New()
	limiter.SetPolicy(APIRateLimitNamespace, limit, time.Minute)
	t.Cleanup(limiter.Stop)
	return limiter
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func fromAddr(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimit_PerAddress(t *testing.T) {
	handler := RateLimit(newLimiter(t, 2))(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, fromAddr("10.0.0.1:5000"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, fromAddr("10.0.0.1:6000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retryAfter >= 1 && retryAfter <= 60)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, fromAddr("10.0.0.2:5000"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_PerUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockIdentityResolver(ctrl)
	resolver.EXPECT().ResolveIdentity(gomock.Any()).Return(&domain.Identity{UserID: "user_1"}, nil).Times(2)

	chain := LoadIdentity(resolver)(RateLimit(newLimiter(t, 1))(RequireIdentity(resolver, logger.NewMockLogger(t))(okHandler)))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, fromAddr("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// same user from another address shares the budget
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, fromAddr("10.0.0.9:5000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_ForwardedForRotation(t *testing.T) {
	handler := RateLimit(newLimiter(t, 1))(okHandler)

	first := fromAddr("10.0.0.1:5000")
	first.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.5")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	rotated := fromAddr("10.0.0.1:5000")
	rotated.Header.Set("X-Forwarded-For", "198.51.100.99, 203.0.113.5")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, rotated)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_PreflightBypass(t *testing.T) {
	handler := RateLimit(newLimiter(t, 1))(okHandler)

	for i := 0; i < 3; i++ {
		req := fromAddr("10.0.0.1:5000")
		req.Method = http.MethodOptions
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_NoPolicyDenies(t *testing.T) {
	limiter := ratelimiter.New()
	t.Cleanup(limiter.Stop)

	rec := httptest.NewRecorder()
	RateLimit(limiter)(okHandler).ServeHTTP(rec, fromAddr("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestClientIP(t *testing.T) {
	req := fromAddr("10.0.0.1:5000")
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.5")
	assert.Equal(t, "203.0.113.5", clientIP(req))

	req.Header.Add("X-Forwarded-For", "192.0.2.44")
	assert.Equal(t, "192.0.2.44", clientIP(req))

	assert.Equal(t, "pipe", clientIP(fromAddr("pipe")))
}
