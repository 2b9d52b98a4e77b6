package web

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/evcraddock/visitlog/internal/auth"
)

// authHandlers holds auth-related HTTP handlers.
type authHandlers struct {
	config   auth.Config
	sessions *auth.Sessions
	limiter  *auth.LoginLimiter
	render   func(w http.ResponseWriter, status int, name string, data interface{})
	passkeys bool
}

type loginData struct {
	Error    string
	Passkeys bool
}

// handleLoginPage renders the login form, or skips it when a session is
// already active.
func (h *authHandlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Check(r); err == nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login.html", loginData{Passkeys: h.passkeys})
}

// handleLoginSubmit checks the admin password and starts a session.
func (h *authHandlers) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ip := clientIP(r)
	if h.limiter.Blocked(ip) {
		h.render(w, http.StatusTooManyRequests, "login.html", loginData{
			Error:    "Too many attempts. Try again in a minute.",
			Passkeys: h.passkeys,
		})
		return
	}

	if !auth.CheckPassword(h.config.AdminPassword, r.PostFormValue("password")) {
		h.limiter.RecordFailure(ip)
		slog.Warn("login failed", "ip", ip)
		h.render(w, http.StatusUnauthorized, "login.html", loginData{
			Error:    "Wrong password.",
			Passkeys: h.passkeys,
		})
		return
	}

	h.limiter.Reset(ip)
	if err := h.sessions.Start(r.Context(), w); err != nil {
		slog.Error("creating session", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "method", "password")
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleLogout destroys the session and redirects to login.
func (h *authHandlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		slog.Error("ending session", "err", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
