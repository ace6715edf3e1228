package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// requestID tags every request with a UUID echoed in the X-Request-ID
// response header and attached to the request log line.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", w.Header().Get("X-Request-ID")),
		)
	})
}

// ipLimiter applies a per-client token bucket keyed by remote IP.
// Whitelisted IPs bypass the limit entirely. Idle buckets are dropped
// after the stale window to bound memory.
type ipLimiter struct {
	mu          sync.Mutex
	clients     map[string]*clientBucket
	limit       rate.Limit
	burst       int
	whitelist   map[string]bool
	bypassToken string
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const staleClientWindow = 10 * time.Minute

func newIPLimiter(perMinute int, burst int, whitelist []string, bypassToken string) *ipLimiter {
	wl := make(map[string]bool, len(whitelist))
	for _, ip := range whitelist {
		wl[ip] = true
	}
	return &ipLimiter{
		clients:     make(map[string]*clientBucket),
		limit:       rate.Limit(float64(perMinute) / 60.0),
		burst:       burst,
		whitelist:   wl,
		bypassToken: bypassToken,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	if l.whitelist[ip] {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	bucket, ok := l.clients[ip]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = bucket
	}
	bucket.lastSeen = now

	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > staleClientWindow {
			delete(l.clients, key)
		}
	}

	return bucket.limiter.Allow()
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.bypassToken != "" && r.Header.Get("X-Admin-Bypass-Token") == l.bypassToken {
			next.ServeHTTP(w, r)
			return
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.allow(ip) {
			zap.L().Warn("api: rate limited", zap.String("ip", ip))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"detail": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
