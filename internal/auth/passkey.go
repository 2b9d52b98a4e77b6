package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrPasskeyNotFound is returned when no stored passkey has the given id.
var ErrPasskeyNotFound = errors.New("passkey not found")

// adminHandle is the WebAuthn user handle every admin passkey is bound to.
var adminHandle = func() []byte {
	h := sha256.Sum256([]byte("visitlog:admin"))
	return h[:]
}()

// IsAdminHandle reports whether a discoverable login's user handle
// belongs to the administrator.
func IsAdminHandle(userHandle []byte) bool {
	return bytes.Equal(userHandle, adminHandle)
}

// Admin is the WebAuthn user for the console's administrator.
type Admin struct {
	credentials []webauthn.Credential
}

func (a *Admin) WebAuthnID() []byte                         { return adminHandle }
func (a *Admin) WebAuthnName() string                       { return AdminSubject }
func (a *Admin) WebAuthnDisplayName() string                { return "Administrator" }
func (a *Admin) WebAuthnCredentials() []webauthn.Credential { return a.credentials }

// Passkey is a registered admin credential.
type Passkey struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	Credential webauthn.Credential
}

// KeyID encodes a credential id the way it is stored and routed.
func KeyID(cred *webauthn.Credential) string {
	return base64.RawURLEncoding.EncodeToString(cred.ID)
}

// Passkeys stores the administrator's WebAuthn credentials.
type Passkeys struct {
	db *sql.DB
}

// NewPasskeys returns a passkey table backed by db.
func NewPasskeys(db *sql.DB) *Passkeys {
	return &Passkeys{db: db}
}

// Add stores a newly registered credential under a display name.
func (p *Passkeys) Add(ctx context.Context, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	if _, err := p.db.ExecContext(ctx,
		"INSERT INTO admin_passkeys (id, name, credential_json) VALUES (?, ?, ?)",
		KeyID(cred), name, string(data),
	); err != nil {
		return fmt.Errorf("storing passkey: %w", err)
	}
	return nil
}

// All lists every passkey, oldest first.
func (p *Passkeys) All(ctx context.Context) ([]Passkey, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, name, credential_json, created_at, last_used_at FROM admin_passkeys ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("listing passkeys: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("closing rows", "err", err)
		}
	}()

	var out []Passkey
	for rows.Next() {
		var (
			pk      Passkey
			data    string
			created sql.NullTime
			used    sql.NullTime
		)
		if err := rows.Scan(&pk.ID, &pk.Name, &data, &created, &used); err != nil {
			return nil, fmt.Errorf("scanning passkey: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &pk.Credential); err != nil {
			return nil, fmt.Errorf("decoding passkey %s: %w", pk.ID, err)
		}
		pk.CreatedAt = created.Time
		if used.Valid {
			t := used.Time
			pk.LastUsedAt = &t
		}
		out = append(out, pk)
	}
	return out, rows.Err()
}

// Admin loads the administrator with every stored credential attached.
func (p *Passkeys) Admin(ctx context.Context) (*Admin, error) {
	all, err := p.All(ctx)
	if err != nil {
		return nil, err
	}
	a := &Admin{credentials: make([]webauthn.Credential, len(all))}
	for i, pk := range all {
		a.credentials[i] = pk.Credential
	}
	return a, nil
}

// Touch saves the authenticator state after a successful login.
func (p *Passkeys) Touch(ctx context.Context, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	res, err := p.db.ExecContext(ctx,
		"UPDATE admin_passkeys SET credential_json = ?, last_used_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(data), KeyID(cred),
	)
	if err != nil {
		return fmt.Errorf("updating passkey: %w", err)
	}
	return expectOne(res)
}

// Remove deletes the passkey with id.
func (p *Passkeys) Remove(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM admin_passkeys WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting passkey: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrPasskeyNotFound
	}
	return nil
}
