package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// Proxy rate-limit defaults.
const (
	DefaultProxyRPS   = 5.0
	DefaultProxyBurst = 10

	maxTrackedClients = 10_000
	clientIdleTTL     = 3 * time.Minute
)

// ipLimiter keeps one token bucket per client IP. Idle clients age out of
// the LRU.
type ipLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex // guards get-or-create on buckets
	buckets *expirable.LRU[string, *rate.Limiter]
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientIdleTTL),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	return l.bucket(ip).Allow()
}

// bucket returns the client's limiter, creating it on first use.
func (l *ipLimiter) bucket(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.buckets.Get(ip)
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
	}
	// re-adding refreshes the idle TTL
	l.buckets.Add(ip, lim)
	return lim
}

func (l *ipLimiter) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if !l.allow(ip) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
