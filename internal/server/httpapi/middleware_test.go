package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerIP(t *testing.T) {
	l := NewRateLimiter(0.001, 2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1111"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:3333"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1111"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0, 0, 0)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := l.Middleware(next)

	for range 50 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.limiter("10.0.0.1")
	now = now.Add(2 * time.Minute)
	l.limiter("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.limiters, "10.0.0.1")
	assert.Contains(t, l.limiters, "10.0.0.2")
}

func TestRecoverer(t *testing.T) {
	h := NewHandler(stubActivator{}, pinger{}, logging.NewNopLogger())
	router := NewRouter(h, RouterOptions{}, logging.NewNopLogger())
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("kaput") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_RateLimitIgnoresForwardedHeadersByDefault(t *testing.T) {
	h := NewHandler(stubActivator{}, pinger{}, logging.NewNopLogger())

	send := func(router http.Handler, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/resend-activation", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	direct := NewRouter(h, RouterOptions{RateLimitRPS: 0.001, RateLimitBurst: 1}, logging.NewNopLogger())
	assert.NotEqual(t, http.StatusTooManyRequests, send(direct, "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send(direct, "198.51.100.2"))

	proxied := NewRouter(h, RouterOptions{RateLimitRPS: 0.001, RateLimitBurst: 1, TrustProxyHeaders: true}, logging.NewNopLogger())
	assert.NotEqual(t, http.StatusTooManyRequests, send(proxied, "198.51.100.1"))
	assert.NotEqual(t, http.StatusTooManyRequests, send(proxied, "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send(proxied, "198.51.100.1"))
}
