package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LoginLimiter counts failed logins per client IP and username within a
// window and blocks the pair for a while once the limit is reached.
type LoginLimiter struct {
	mu          sync.Mutex
	attempts    map[string]*attemptRecord
	maxAttempts int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

type attemptRecord struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
}

func NewLoginLimiter(maxAttempts int, window, lockout time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockout <= 0 {
		lockout = 30 * time.Minute
	}
	return &LoginLimiter{
		attempts:    make(map[string]*attemptRecord),
		maxAttempts: maxAttempts,
		window:      window,
		lockout:     lockout,
		now:         time.Now,
	}
}

func limiterKey(ip, username string) string {
	return ip + "|" + username
}

// Allow reports whether a login may be attempted and, if not, for how long
// the pair stays blocked.
func (l *LoginLimiter) Allow(ip, username string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.attempts[limiterKey(ip, username)]
	if !ok {
		return true, 0
	}
	now := l.now()
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	return true, 0
}

// RecordFailure counts a failed login and reports whether it triggered a block.
func (l *LoginLimiter) RecordFailure(ip, username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := limiterKey(ip, username)
	record, ok := l.attempts[key]
	if !ok || now.Sub(record.windowStart) > l.window {
		record = &attemptRecord{windowStart: now}
		l.attempts[key] = record
	}

	record.count++
	if record.count >= l.maxAttempts {
		record.lockedUntil = now.Add(l.lockout)
		record.count = 0
		record.windowStart = now
		return true
	}
	return false
}

func (l *LoginLimiter) RecordSuccess(ip, username string) {
	l.mu.Lock()
	delete(l.attempts, limiterKey(ip, username))
	l.mu.Unlock()
}

// Prune drops records whose window and block have both expired.
func (l *LoginLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, record := range l.attempts {
		if now.Sub(record.windowStart) > l.window && !now.Before(record.lockedUntil) {
			delete(l.attempts, key)
		}
	}
}

// Throttle is a per-client token bucket for public write endpoints such as
// the subscription form.
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewThrottle allows perMinute requests per client IP with the given burst.
func NewThrottle(perMinute float64, burst int) *Throttle {
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
	}
}

func (t *Throttle) limiter(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[ip]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[ip] = l
	}
	return l
}

// Middleware rejects a client that exceeded its budget with 429.
func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reservation := t.limiter(c.ClientIP()).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
