package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// SessionTTL is how long an admin stays signed in.
	SessionTTL = 30 * 24 * time.Hour

	// CookieName carries the admin session token.
	CookieName = "vl_admin"
)

// ErrNoSession means the request is not signed in as the admin.
var ErrNoSession = errors.New("no admin session")

// Sessions issues and checks admin session tokens. There is a single
// principal, so a row is only a token and its expiry in unix seconds.
type Sessions struct {
	db     *sql.DB
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions returns a session table backed by db. secure marks the
// cookie HTTPS-only.
func NewSessions(db *sql.DB, secure bool) *Sessions {
	return &Sessions{db: db, secure: secure, ttl: SessionTTL, now: time.Now}
}

// Start signs the admin in: it stores a fresh token and sets the cookie.
func (s *Sessions) Start(ctx context.Context, w http.ResponseWriter) error {
	token, err := newToken()
	if err != nil {
		return fmt.Errorf("generating session token: %w", err)
	}

	expires := s.now().Add(s.ttl)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO admin_sessions (token, expires_at) VALUES (?, ?)",
		token, expires.Unix(),
	); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}

	http.SetCookie(w, s.cookie(token, expires))
	return nil
}

// Check returns nil when r carries a live admin session.
func (s *Sessions) Check(r *http.Request) error {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return ErrNoSession
	}

	var n int
	if err := s.db.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM admin_sessions WHERE token = ? AND expires_at > ?",
		c.Value, s.now().Unix(),
	).Scan(&n); err != nil {
		return fmt.Errorf("looking up session: %w", err)
	}
	if n == 0 {
		return ErrNoSession
	}
	return nil
}

// End signs the admin out. The cookie is cleared even when r has no
// stored session.
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) error {
	expired := s.cookie("", time.Unix(0, 0))
	expired.MaxAge = -1
	defer http.SetCookie(w, expired)

	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM admin_sessions WHERE token = ?", c.Value); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Prune deletes expired sessions and reports how many went.
func (s *Sessions) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM admin_sessions WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *Sessions) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
