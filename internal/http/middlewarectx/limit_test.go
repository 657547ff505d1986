package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newNoopLoggerLimit() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := newNoopLoggerLimit()

	t.Run("allows requests within rate limit", func(t *testing.T) {
		h := RateLimitMiddleware(logger, rate.NewLimiter(10, 10))(okHandler(t))
		for iter := 0; iter < 10; iter++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("blocks requests exceeding rate limit", func(t *testing.T) {
		h := RateLimitMiddleware(logger, rate.NewLimiter(1, 1))(okHandler(t))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"status":"Error","error":"too many requests"}`, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	})

	t.Run("allows requests after rate limit reset", func(t *testing.T) {
		h := RateLimitMiddleware(logger, rate.NewLimiter(1, 1))(okHandler(t))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		time.Sleep(1100 * time.Millisecond)

		w = httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware_ConcurrentRequests(t *testing.T) {
	h := RateLimitMiddleware(newNoopLoggerLimit(), rate.NewLimiter(5, 5))(okHandler(t))

	results := make(chan int, 10)
	for iter := 0; iter < 10; iter++ {
		go func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
			results <- w.Code
		}()
	}

	successCount := 0
	rateLimitedCount := 0
	for iter := 0; iter < 10; iter++ {
		select {
		case code := <-results:
			switch code {
			case http.StatusOK:
				successCount++
			case http.StatusTooManyRequests:
				rateLimitedCount++
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for concurrent requests")
		}
	}

	// за время теста может восстановиться не больше одного токена
	assert.GreaterOrEqual(t, successCount, 5)
	assert.LessOrEqual(t, successCount, 6)
	assert.Equal(t, 10, successCount+rateLimitedCount)
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, rate.Limit(10), l.Limit())
	assert.Equal(t, 20, l.Burst())

	l = NewLimiter(2.5, 4)
	assert.Equal(t, rate.Limit(2.5), l.Limit())
	assert.Equal(t, 4, l.Burst())
}
