package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/evcraddock/visitlog/internal/auth"
)

// passkeyHandlers holds WebAuthn-related HTTP handlers for the admin.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	passkeys *auth.Passkeys
	sessions *auth.Sessions

	// In-flight ceremonies. Only one login and one registration can be
	// pending at a time.
	mu               sync.Mutex
	regSessionData   *webauthn.SessionData
	loginSessionData *webauthn.SessionData
}

func newPasskeyHandlers(cfg auth.Config, passkeys *auth.Passkeys, sessions *auth.Sessions) (*passkeyHandlers, error) {
	rpID, err := cfg.RPID()
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Visit Log",
		RPID:          rpID,
		RPOrigins:     []string{strings.TrimSuffix(cfg.BaseURL, "/")},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:      wan,
		passkeys: passkeys,
		sessions: sessions,
	}, nil
}

// handleBeginRegistration starts passkey registration. The route is
// session-gated.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	user, err := h.passkeys.Admin(r.Context())
	if err != nil {
		slog.Error("loading credentials", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// Exclude existing credentials so the same key is not registered twice
	creds := user.WebAuthnCredentials()
	excludeList := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		excludeList[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(user,
		webauthn.WithExclusions(excludeList),
	)
	if err != nil {
		slog.Error("beginning registration", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.regSessionData = session
	h.mu.Unlock()

	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	session := h.regSessionData
	h.regSessionData = nil
	h.mu.Unlock()

	if session == nil {
		http.Error(w, "No registration in progress", http.StatusBadRequest)
		return
	}

	user, err := h.passkeys.Admin(r.Context())
	if err != nil {
		slog.Error("loading credentials", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	credential, err := h.wan.FinishRegistration(user, *session, r)
	if err != nil {
		slog.Error("finishing registration", "err", err)
		http.Error(w, "Registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Add(r.Context(), name, credential); err != nil {
		slog.Error("saving credential", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("passkey registered", "name", name)
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleBeginLogin starts passkey login (discoverable).
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.loginSessionData = session
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(assertion); err != nil {
		slog.Error("encoding login options", "err", err)
	}
}

// handleFinishLogin completes passkey login and creates a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	session := h.loginSessionData
	h.loginSessionData = nil
	h.mu.Unlock()

	if session == nil {
		http.Error(w, "No login in progress", http.StatusBadRequest)
		return
	}

	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		if !auth.IsAdminHandle(userHandle) {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		admin, err := h.passkeys.Admin(r.Context())
		if err != nil {
			return nil, err
		}
		return admin, nil
	}

	_, credential, err := h.wan.FinishPasskeyLogin(handler, *session, r)
	if err != nil {
		slog.Error("finishing passkey login", "err", err)
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}

	if err := h.passkeys.Touch(r.Context(), credential); err != nil {
		slog.Warn("recording passkey use", "err", err)
	}

	if err := h.sessions.Start(r.Context(), w); err != nil {
		slog.Error("creating session", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("login success", "method", "passkey")
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleRemove deletes one registered passkey and returns to the admin page.
func (h *passkeyHandlers) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.passkeys.Remove(r.Context(), id)
	switch {
	case errors.Is(err, auth.ErrPasskeyNotFound):
		http.Error(w, "Passkey not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("removing passkey", "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("passkey removed", "id", id)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
