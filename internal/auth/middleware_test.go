package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireAdminRedirectsUnauthenticated(t *testing.T) {
	s, _ := testSessions(t)

	w := httptest.NewRecorder()
	RequireAdmin(s)(okHandler).ServeHTTP(w, requestWith(nil))

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if w.Header().Get("Location") != "/admin/login" {
		t.Errorf("location = %q, want /admin/login", w.Header().Get("Location"))
	}
}

func TestRequireAdminAllowsAuthenticated(t *testing.T) {
	s, _ := testSessions(t)
	cookie := startSession(t, s)

	for name, mw := range map[string]func(http.Handler) http.Handler{
		"html": RequireAdmin(s),
		"api":  RequireAdminAPI(s),
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mw(okHandler).ServeHTTP(w, requestWith(cookie))

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
			}
		})
	}
}

func TestRequireAdminRejectsExpired(t *testing.T) {
	s, clock := testSessions(t)
	cookie := startSession(t, s)
	*clock = clock.Add(SessionTTL + time.Minute)

	w := httptest.NewRecorder()
	RequireAdminAPI(s)(okHandler).ServeHTTP(w, requestWith(cookie))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAdminAPIUnauthenticated(t *testing.T) {
	s, _ := testSessions(t)

	w := httptest.NewRecorder()
	RequireAdminAPI(s)(okHandler).ServeHTTP(w, requestWith(nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLoginLimiter(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	rl := NewLoginLimiter()
	rl.now = func() time.Time { return now }

	for i := 1; i < rateLimitMaxFail; i++ {
		if rl.RecordFailure("10.0.0.1") {
			t.Fatalf("limited after %d failures", i)
		}
	}
	if !rl.RecordFailure("10.0.0.1") {
		t.Fatal("expected limit after max failures")
	}
	if !rl.Blocked("10.0.0.1") {
		t.Error("expected ip to be blocked")
	}
	if rl.Blocked("10.0.0.2") {
		t.Error("other ip should not be blocked")
	}

	now = now.Add(rateLimitWindow + time.Second)
	if rl.Blocked("10.0.0.1") {
		t.Error("failures should expire after the window")
	}

	rl.RecordFailure("10.0.0.3")
	rl.Reset("10.0.0.3")
	if len(rl.attempts) != 0 {
		t.Errorf("attempts = %v, want empty", rl.attempts)
	}
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		expected, given string
		want            bool
	}{
		{"1234", "1234", true},
		{"1234", "12345", false},
		{"1234", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := CheckPassword(tt.expected, tt.given); got != tt.want {
			t.Errorf("CheckPassword(%q, %q) = %v, want %v", tt.expected, tt.given, got, tt.want)
		}
	}
}

func TestConfigRPID(t *testing.T) {
	id, err := Config{BaseURL: "https://kiosk.example.org:8443"}.RPID()
	if err != nil {
		t.Fatalf("rpid: %v", err)
	}
	if id != "kiosk.example.org" {
		t.Errorf("rpid = %q", id)
	}

	if _, err := (Config{BaseURL: "not a url"}).RPID(); err == nil {
		t.Error("expected error for base URL without host")
	}
}
