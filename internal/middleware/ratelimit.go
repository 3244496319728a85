package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter caps requests per client on the API surface.
//
// Each client (keyed by remote IP — chi's RealIP middleware runs earlier
// and rewrites RemoteAddr from proxy headers) gets its own token bucket,
// so one client hammering the API returns 429 to that client without
// slowing anyone else down.
//
// The limiter map is state owned by this value and injected where it's
// mounted — not a package-level singleton. Stale entries are evicted by a
// sweep on each lookup pass so an IP scan can't grow the map forever.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*client
	limit    rate.Limit
	burst    int
	lastSeen time.Duration // eviction horizon
}

type client struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewRateLimiter allows up to maxRequests per window per client, with
// bursts up to maxRequests.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:  make(map[string]*client),
		limit:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		lastSeen: 3 * window,
	}
}

// Handler is the middleware. Over-limit requests get a JSON 429 and never
// reach the next handler.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","message":"too many requests, slow down"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst), seen: now}
		rl.clients[key] = c

		// Piggyback eviction on new-client inserts; steady-state traffic
		// from known clients never pays for the sweep.
		for k, v := range rl.clients {
			if now.Sub(v.seen) > rl.lastSeen {
				delete(rl.clients, k)
			}
		}
	}
	c.seen = now

	return c.limiter.Allow()
}

// clientKey extracts the client IP, falling back to the raw RemoteAddr
// when it has no port to split off.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
