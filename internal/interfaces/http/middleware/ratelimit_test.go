package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

	t.Run("burst then refill", func(t *testing.T) {
		limiter := NewRateLimiter(1, 3)
		limiter.now = func() time.Time { return now }

		for i := range 3 {
			ok, _ := limiter.Allow("a")
			assert.True(t, ok, "request %d", i+1)
		}
		ok, remaining := limiter.Allow("a")
		assert.False(t, ok)
		assert.Equal(t, 0, remaining)

		limiter.now = func() time.Time { return now.Add(time.Second) }
		ok, _ = limiter.Allow("a")
		assert.True(t, ok, "one token comes back per second")
	})

	t.Run("separate buckets per key", func(t *testing.T) {
		limiter := NewRateLimiter(1, 1)
		limiter.now = func() time.Time { return now }

		ok, _ := limiter.Allow("a")
		assert.True(t, ok)
		ok, _ = limiter.Allow("a")
		assert.False(t, ok)
		ok, _ = limiter.Allow("b")
		assert.True(t, ok)
	})

	t.Run("idle buckets are evicted", func(t *testing.T) {
		limiter := NewRateLimiter(1, 1)
		limiter.now = func() time.Time { return now }
		limiter.Allow("a")

		limiter.now = func() time.Time { return now.Add(time.Hour) }
		limiter.Allow("b")

		assert.NotContains(t, limiter.clients, "a")
		assert.Contains(t, limiter.clients, "b")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(NewRateLimiter(0.001, 2)))
	router.POST("/checkout", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
}
