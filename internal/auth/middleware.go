package auth

import (
	"net/http"
	"sync"
	"time"
)

// RequireAdmin redirects requests without an admin session to the login
// page.
func RequireAdmin(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sessions.Check(r); err != nil {
				http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminAPI rejects requests without an admin session with 401.
func RequireAdminAPI(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sessions.Check(r); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// LoginLimiter tracks failed login attempts per client.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

// NewLoginLimiter creates an empty limiter.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{attempts: make(map[string][]time.Time), now: time.Now}
}

// Blocked reports whether ip has too many recent failures.
func (rl *LoginLimiter) Blocked(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rateLimitMaxFail
}

// RecordFailure records a failed attempt and returns true if ip is now
// rate limited.
func (rl *LoginLimiter) RecordFailure(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := append(rl.prune(ip), rl.now())
	rl.attempts[ip] = valid
	return len(valid) >= rateLimitMaxFail
}

// Reset forgets ip's failures after a successful login.
func (rl *LoginLimiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, ip)
}

// prune drops attempts outside the window. Callers hold rl.mu.
func (rl *LoginLimiter) prune(ip string) []time.Time {
	cutoff := rl.now().Add(-rateLimitWindow)

	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}
