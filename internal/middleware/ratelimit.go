package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type rateErr struct {
	Error string `json:"error"`
}

// DefaultIdleTTL is how long a client's bucket is kept after its last request.
const DefaultIdleTTL = 10 * time.Minute

// Limiter hands out one token bucket per client IP. Buckets idle for longer
// than the TTL are dropped, at most once per TTL, while serving requests.
type Limiter struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	clients   map[string]*client
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewLimiter returns nil, meaning unlimited, when rps is not positive.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     DefaultIdleTTL,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// WithIdleTTL changes how long idle client buckets are kept.
func (l *Limiter) WithIdleTTL(ttl time.Duration) *Limiter {
	if l != nil && ttl > 0 {
		l.ttl = ttl
	}
	return l
}

// Clients is the number of buckets currently held.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) >= l.ttl {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.lim
}

func RateLimitMiddleware(l *Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.get(clientIP(r)).Allow() {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			retry := int(math.Ceil(1.0 / float64(l.rps)))
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rateErr{Error: "too_many_requests"})
		})
	}
}
