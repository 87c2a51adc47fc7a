package engineadmin

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTimeout is how long a caller's bucket survives without requests.
const DefaultIdleTimeout = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CallerLimiter keeps one token bucket per admin caller. Buckets idle longer
// than the idle timeout are dropped by a sweep that runs at most once per
// timeout.
type CallerLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	callers   map[string]*bucket
}

type LimiterOption func(*CallerLimiter)

// WithIdleTimeout overrides DefaultIdleTimeout.
func WithIdleTimeout(d time.Duration) LimiterOption {
	return func(l *CallerLimiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

// WithLimiterClock sets the time source; tests use it to age buckets.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *CallerLimiter) { l.now = now }
}

// NewCallerLimiter allows perSecond requests per caller with bursts of
// burst. A non-positive perSecond disables limiting.
func NewCallerLimiter(perSecond float64, burst int, opts ...LimiterOption) *CallerLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	l := &CallerLimiter{
		limit:   limit,
		burst:   max(burst, 1),
		idle:    DefaultIdleTimeout,
		now:     time.Now,
		callers: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow takes a token from key's bucket. When none is left it returns false
// and how long until one is.
func (l *CallerLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		for k, b := range l.callers {
			if now.Sub(b.lastSeen) >= l.idle {
				delete(l.callers, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.callers[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.callers[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.idle
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Callers is the number of buckets currently held.
func (l *CallerLimiter) Callers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callers)
}

// callerKey is the verified token subject, or the client address for
// requests that carry none.
func callerKey(r *http.Request) string {
	if c, ok := ClaimsFrom(r.Context()); ok && c.Subject != "" {
		return "sub:" + c.Subject
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// RateLimit rejects a caller over its budget with 429 and a Retry-After
// header in whole seconds.
func RateLimit(limiter *CallerLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(r)
			ok, wait := limiter.Allow(key)
			if !ok {
				logger.WarnContext(r.Context(), "Admin request rate limited",
					slog.String("caller", key),
					slog.String("path", r.URL.Path),
					slog.Duration("retry_after", wait),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
