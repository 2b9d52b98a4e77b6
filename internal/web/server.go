// Package web provides the HTTP server and handlers for the visitor kiosk
// and the admin console.
package web

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/evcraddock/visitlog/internal/auth"
	"github.com/evcraddock/visitlog/internal/kiosk"
	"github.com/evcraddock/visitlog/internal/logging"
	"github.com/evcraddock/visitlog/internal/visit"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Config configures the server.
type Config struct {
	Auth           auth.Config
	AllowedOrigins []string
}

// Server is the web UI and JSON API HTTP server.
type Server struct {
	svc       *kiosk.Service
	sessions  *auth.Sessions
	passkeys  *auth.Passkeys
	limiter   *auth.LoginLimiter
	config    Config
	templates *template.Template
	router    chi.Router
}

// NewServer creates a web server. Sessions and passkeys are stored in d.
// Passkey login is enabled only when Auth.BaseURL is set.
func NewServer(d *sql.DB, svc *kiosk.Service, cfg Config) (*Server, error) {
	funcMap := template.FuncMap{
		"has":     tmplHas,
		"percent": tmplPercent,
		"dict":    tmplDict,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		svc:       svc,
		sessions:  auth.NewSessions(d, !cfg.Auth.DevMode && strings.HasPrefix(cfg.Auth.BaseURL, "https://")),
		passkeys:  auth.NewPasskeys(d),
		limiter:   auth.NewLoginLimiter(),
		config:    cfg,
		templates: tmpl,
	}

	if n, err := s.sessions.Prune(context.Background()); err != nil {
		slog.Warn("pruning sessions", "err", err)
	} else if n > 0 {
		slog.Info("pruned expired sessions", "count", n)
	}

	var pk *passkeyHandlers
	if cfg.Auth.BaseURL != "" {
		pk, err = newPasskeyHandlers(cfg.Auth, s.passkeys, s.sessions)
		if err != nil {
			return nil, fmt.Errorf("configuring passkeys: %w", err)
		}
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.router = s.routes(http.FileServer(http.FS(staticContent)), pk)
	return s, nil
}

func (s *Server) routes(static http.Handler, pk *passkeyHandlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", static))
	r.Get("/health", handleHealth)

	r.Get("/", s.handleKiosk)
	r.Post("/", s.handleKioskSubmit)

	ah := &authHandlers{
		config:   s.config.Auth,
		sessions: s.sessions,
		limiter:  s.limiter,
		render:   s.renderStatus,
		passkeys: pk != nil,
	}
	r.Get("/admin/login", ah.handleLoginPage)
	r.Post("/admin/login", ah.handleLoginSubmit)
	r.Post("/admin/logout", ah.handleLogout)

	if pk != nil {
		r.Post("/admin/passkey/login/begin", pk.handleBeginLogin)
		r.Post("/admin/passkey/login/finish", pk.handleFinishLogin)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin(s.sessions))

		r.Get("/admin", s.handleAdmin)
		r.Get("/admin/export.xlsx", s.handleExport)
		r.Get("/admin/records", s.handleRecordLookup)
		r.Get("/admin/records/{id}", s.handleEditPage)
		r.Post("/admin/records/{id}", s.handleEditSubmit)
		r.Post("/admin/records/{id}/delete", s.handleDeleteRequest)
		r.Post("/admin/records/delete/confirm", s.handleDeleteConfirm)
		r.Post("/admin/reset", s.handleReset)

		if pk != nil {
			r.Post("/admin/passkey/register/begin", pk.handleBeginRegistration)
			r.Post("/admin/passkey/register/finish", pk.handleFinishRegistration)
			r.Post("/admin/passkeys/{id}/delete", pk.handleRemove)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins(),
			AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
		}))
		r.Use(auth.RequireAdminAPI(s.sessions))

		r.Get("/report", s.apiReport)
		r.Get("/records", s.apiListRecords)
		r.Get("/records/{id}", s.apiGetRecord)
		r.Delete("/records/{id}", s.apiDeleteRecord)
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.config.AllowedOrigins) > 0 {
		return s.config.AllowedOrigins
	}
	if s.config.Auth.BaseURL != "" {
		return []string{s.config.Auth.BaseURL}
	}
	return []string{"http://localhost:8080"}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	slog.Info("starting web UI", "addr", "http://localhost"+addr)
	return http.ListenAndServe(addr, s)
}

// render executes a full page template with status 200.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	s.renderStatus(w, http.StatusOK, name, data)
}

// renderStatus executes a full page template and writes it with status.
func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("rendering template", "name", name, "err", err)
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing response", "err", err)
	}
}

// Template helper functions

func tmplHas(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func tmplPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

func tmplDict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict needs key/value pairs, got %d args", len(pairs))
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// formOptions is the option set every form template renders from.
type formOptions struct {
	Genders    []string
	AgeGroups  []string
	Residences []string
	VisitTypes []string
	Purposes   []string
}

var options = formOptions{
	Genders:    visit.FieldGender.Options(),
	AgeGroups:  visit.FieldAgeGroup.Options(),
	Residences: visit.FieldResidence.Options(),
	VisitTypes: visit.FieldVisitType.Options(),
	Purposes:   visit.PurposeLabels(),
}
