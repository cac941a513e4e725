package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"synapselab/internal/pkg/errors"
)

// RateLimiter is a per-client token bucket refilled continuously up to limit
// tokens per minute.
type RateLimiter struct {
	store             *sync.Map // map[string]*Bucket
	limit             int
	trustForwardedFor bool
	now               func() time.Time
	done              chan struct{}
	closeOnce         sync.Once
}

type Bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

// NewRateLimiter allows limit requests per minute per client. A limit of
// zero or less disables limiting.
func NewRateLimiter(limit int, trustForwardedFor bool) *RateLimiter {
	rl := &RateLimiter{
		store:             &sync.Map{},
		limit:             limit,
		trustForwardedFor: trustForwardedFor,
		now:               time.Now,
		done:              make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evictIdle(10 * time.Minute)
		}
	}
}

func (rl *RateLimiter) evictIdle(idle time.Duration) {
	now := rl.now()
	rl.store.Range(func(key, value interface{}) bool {
		bucket := value.(*Bucket)
		bucket.mu.Lock()
		if now.Sub(bucket.lastAccess) > idle {
			rl.store.Delete(key)
		}
		bucket.mu.Unlock()
		return true
	})
}

func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	now := rl.now()
	val, _ := rl.store.LoadOrStore(key, &Bucket{
		tokens:     rl.limit,
		lastRefill: now,
		lastAccess: now,
	})

	bucket := val.(*Bucket)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.lastAccess = now

	// lastRefill advances by whole intervals only, so partial progress
	// toward the next token carries over between calls.
	interval := max(time.Minute/time.Duration(rl.limit), time.Nanosecond)
	if refillTokens := int(now.Sub(bucket.lastRefill) / interval); refillTokens > 0 {
		bucket.tokens += refillTokens
		if bucket.tokens >= rl.limit {
			bucket.tokens = rl.limit
			bucket.lastRefill = now
		} else {
			bucket.lastRefill = bucket.lastRefill.Add(time.Duration(refillTokens) * interval)
		}
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP(r)
		if !rl.Allow(ip) {
			zerolog.Ctx(r.Context()).Warn().Str("client_ip", ip).Msg("Rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Muitas tentativas, aguarde um minuto", nil)
			return
		}

		next(w, r)
	}
}

// clientIP uses the first X-Forwarded-For hop only when the server sits
// behind a trusted proxy.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			return strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
