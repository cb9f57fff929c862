package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIPRateLimiter_AllowsWithinBurst(t *testing.T) {
	limiter := NewIPRateLimiter(60, quietLogger())
	h := limiter.Handler()(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within burst should pass", i)
	}
}

func TestIPRateLimiter_BlocksAboveBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, quietLogger())
	h := limiter.Handler()(okHandler())

	var lastCode int
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		h.ServeHTTP(rec, req)
		lastCode = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestIPRateLimiter_ConcurrentSameClient(t *testing.T) {
	limiter := NewIPRateLimiter(60, quietLogger())
	h := limiter.Handler()(okHandler())

	// Hammer one visitor entry from many goroutines; the race detector
	// catches unsynchronized lastSeen access here.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
				req.RemoteAddr = "10.0.0.5:1234"
				h.ServeHTTP(rec, req)
			}
		}()
	}
	wg.Wait()
}

func TestIPRateLimiter_IsolatesClients(t *testing.T) {
	limiter := NewIPRateLimiter(1, quietLogger())
	h := limiter.Handler()(okHandler())

	// Exhaust the first client's bucket.
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.3:1234"
		h.ServeHTTP(rec, req)
	}

	// A different client is unaffected.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
