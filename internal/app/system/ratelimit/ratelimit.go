// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Limiter counts requests per key in fixed windows.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key per duration.
// Call Stop to end its cleanup goroutine.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || l.now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears the count for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the cleanup goroutine. The limiter keeps working afterwards,
// it just no longer drops expired windows.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles sign-in attempts per client IP and per login id,
// which covers both spraying from one address and guessing one account
// from many.
type LoginLimiter struct {
	ipLimiter      *Limiter
	loginIDLimiter *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 attempts per
// login id per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return NewLoginLimiterWithConfig(10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(ipLimit int, ipDuration time.Duration, loginIDLimit int, loginIDDuration time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:      New(ipLimit, ipDuration),
		loginIDLimiter: New(loginIDLimit, loginIDDuration),
	}
}

// Check records an attempt and reports whether it may proceed. When it may
// not, reason is a message for the sign-in form.
func (ll *LoginLimiter) Check(r *http.Request, loginID string) (allowed bool, reason string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}
	if loginID != "" && !ll.loginIDLimiter.Allow(loginIDKey(loginID)) {
		return false, "Too many sign-in attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// ResetLoginID clears the per-account count after a successful sign-in.
func (ll *LoginLimiter) ResetLoginID(loginID string) {
	if loginID != "" {
		ll.loginIDLimiter.Reset(loginIDKey(loginID))
	}
}

// Stop ends both cleanup goroutines.
func (ll *LoginLimiter) Stop() {
	ll.ipLimiter.Stop()
	ll.loginIDLimiter.Stop()
}

// loginIDKey folds the id the same way the users table does, so "Olivia"
// and "olivia" share a budget.
func loginIDKey(loginID string) string {
	return text.Fold(strings.TrimSpace(loginID))
}
