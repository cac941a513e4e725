package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowAndRefill(t *testing.T) {
	rl := NewRateLimiter(2, false)
	defer rl.Close()

	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "buckets are per client")

	// Two per minute refills one token every 30s.
	now = now.Add(31 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_RefillKeepsPartialProgress(t *testing.T) {
	rl := NewRateLimiter(2, false)
	defer rl.Close()

	start := time.Now()
	now := start
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))

	// One token at 30s; the 15s past it count toward the next one.
	now = start.Add(45 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	now = start.Add(60 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_RefillCapsAtLimit(t *testing.T) {
	rl := NewRateLimiter(2, false)
	defer rl.Close()

	start := time.Now()
	now := start
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))

	now = start.Add(10 * time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, false)
	defer rl.Close()

	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("1.2.3.4"))
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, false)
	defer rl.Close()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("1.2.3.4")

	now = now.Add(11 * time.Minute)
	rl.evictIdle(10 * time.Minute)

	_, ok := rl.store.Load("1.2.3.4")
	assert.False(t, ok)
}

func TestRateLimiter_Handle(t *testing.T) {
	rl := NewRateLimiter(1, false)
	defer rl.Close()

	handler := rl.Handle(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// Another port on the same host shares the bucket.
	req.RemoteAddr = "10.0.0.1:6666"
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_ClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	direct := NewRateLimiter(1, false)
	defer direct.Close()
	assert.Equal(t, "10.0.0.1", direct.clientIP(req))

	proxied := NewRateLimiter(1, true)
	defer proxied.Close()
	assert.Equal(t, "203.0.113.7", proxied.clientIP(req))
}
