package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/DioGolang/GoCommon/pkg/logger"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
	// ClientTimeout is how long a client stays tracked after its last request.
	ClientTimeout time.Duration
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	config   RateLimiterConfig
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts the cleanup loop, which runs until ctx is done.
func NewRateLimiter(ctx context.Context, conf RateLimiterConfig) *RateLimiter {
	if conf.CleanupInterval <= 0 {
		conf.CleanupInterval = time.Minute
	}
	if conf.ClientTimeout <= 0 {
		conf.ClientTimeout = 3 * time.Minute
	}
	d := &RateLimiter{
		visitors: make(map[string]*visitor),
		config:   conf,
	}
	go d.cleanupLoop(ctx)
	return d
}

func (d *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(d.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			for ip, v := range d.visitors {
				if time.Since(v.lastSeen) > d.config.ClientTimeout {
					delete(d.visitors, ip)
				}
			}
			d.mu.Unlock()
		}
	}
}

func (d *RateLimiter) Handler(log logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !d.limiter(ip).Allow() {
				log.Warn(r.Context(), "Rate limit exceeded",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests - Slow down", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, set by a proxy in front.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (d *RateLimiter) limiter(ip string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, exists := d.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(d.config.RequestsPerSecond), d.config.Burst)}
		d.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}
