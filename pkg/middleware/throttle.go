package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Suhaibinator/SServ/pkg/common"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// ThrottleConfig defines configuration for request throttling
type ThrottleConfig struct {
	// Rate is the number of requests per second allowed for each key
	Rate int

	// Slack is the number of requests that may be accumulated for bursts; 0 disables slack
	Slack int

	// MaxWait is the longest a request may be held before it is rejected with 429.
	// Zero means requests are always paced, never rejected.
	MaxWait time.Duration

	// KeyExtractor identifies the client; defaults to the client IP
	KeyExtractor func(*http.Request) string

	// Logger receives a warning for every rejected request; optional
	Logger *zap.Logger
}

// ErrTooManyRequests is returned when a request would wait longer than MaxWait.
var ErrTooManyRequests = common.NewHTTPError(http.StatusTooManyRequests, "Too Many Requests")

// limiterSet lazily creates one leaky-bucket limiter per key.
type limiterSet struct {
	limiters sync.Map // map[string]*keyLimiter
	mu       sync.Mutex
	rate     int
	slack    int
}

// keyLimiter pairs a limiter with the time it issues its next permit,
// so callers can decide whether to wait before calling Take.
type keyLimiter struct {
	limiter  ratelimit.Limiter
	interval time.Duration // time between permits
	maxSlack time.Duration // permit time that may be banked while idle
	mu       sync.Mutex
	next     time.Time
}

func (s *limiterSet) get(key string) *keyLimiter {
	if l, ok := s.limiters.Load(key); ok {
		return l.(*keyLimiter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring lock
	if l, ok := s.limiters.Load(key); ok {
		return l.(*keyLimiter)
	}

	l := newKeyLimiter(s.rate, s.slack)
	s.limiters.Store(key, l)
	return l
}

func newKeyLimiter(rate, slack int) *keyLimiter {
	interval := time.Second / time.Duration(rate)
	opt := ratelimit.WithoutSlack
	if slack > 0 {
		opt = ratelimit.WithSlack(slack)
	}
	return &keyLimiter{
		limiter:  ratelimit.New(rate, opt),
		interval: interval,
		maxSlack: time.Duration(slack) * interval,
	}
}

// reserve predicts how long Take will block at now, following the limiter's
// slack accounting. The permit is recorded only when the wait is within maxWait.
func (l *keyLimiter) reserve(now time.Time, maxWait time.Duration) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var issue time.Time
	idle := now.Sub(l.next)
	switch {
	case l.next.IsZero(), l.maxSlack == 0 && idle > l.interval:
		issue = now
	case l.maxSlack > 0 && idle > l.maxSlack+l.interval:
		issue = now.Add(-l.maxSlack)
	default:
		issue = l.next.Add(l.interval)
	}

	wait := issue.Sub(now)
	if wait > maxWait {
		return wait, false
	}
	l.next = issue
	return wait, true
}

// Throttle creates a middleware that paces requests per client key with a
// leaky-bucket limiter. A request blocks the pipeline until its permit is
// available; with MaxWait set, requests that would wait longer fail with 429.
func Throttle(config ThrottleConfig) Middleware {
	rate := config.Rate
	if rate < 1 {
		rate = 1
	}

	keyFn := config.KeyExtractor
	if keyFn == nil {
		keyFn = throttleKey
	}

	set := &limiterSet{rate: rate, slack: max(config.Slack, 0)}

	return func(w http.ResponseWriter, r *http.Request) error {
		key := keyFn(r)
		l := set.get(key)

		if config.MaxWait > 0 {
			if wait, ok := l.reserve(time.Now(), config.MaxWait); !ok {
				if config.Logger != nil {
					config.Logger.Warn("Request throttled",
						zap.String("key", key),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Duration("wait", wait),
					)
				}
				return ErrTooManyRequests
			}
		}

		l.limiter.Take()
		return nil
	}
}

// throttleKey uses the client IP, falling back to RemoteAddr.
func throttleKey(r *http.Request) string {
	if ip := ClientIP(r); ip != "" {
		return ip
	}
	return cleanIP(r.RemoteAddr)
}
