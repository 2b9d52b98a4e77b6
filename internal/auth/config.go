// Package auth provides admin authentication: password login, passkeys
// and SQLite-backed sessions.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/url"
)

// AdminSubject is the administrator's WebAuthn user name.
const AdminSubject = "admin"

// Config holds authentication configuration.
type Config struct {
	AdminPassword string
	DevMode       bool
	BaseURL       string // e.g. http://localhost:8080
}

// RPID returns the WebAuthn relying party id, the host of BaseURL.
func (c Config) RPID() (string, error) {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("base URL %q has no host", c.BaseURL)
	}
	return parsed.Hostname(), nil
}

// CheckPassword compares given against expected in constant time.
// An empty expected password never matches.
func CheckPassword(expected, given string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
