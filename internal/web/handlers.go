package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/visitlog/internal/auth"
	"github.com/evcraddock/visitlog/internal/kiosk"
	"github.com/evcraddock/visitlog/internal/report"
)

type kioskData struct {
	Options formOptions
	Notice  kiosk.Notice
	Form    kiosk.Submission
}

type adminData struct {
	Start       string
	End         string
	Report      *report.Report
	Lines       []string
	Notice      kiosk.Notice
	ResetNotice kiosk.Notice
	Passkeys    bool
	Keys        []auth.Passkey
}

type editData struct {
	Options formOptions
	ID      string
	Form    *kiosk.EditForm
	Notice  kiosk.Notice
}

type deleteData struct {
	ID     string
	Token  string
	Notice kiosk.Notice
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("encoding health", "err", err)
	}
}

// handleKiosk renders an empty visitor form.
func (s *Server) handleKiosk(w http.ResponseWriter, r *http.Request) {
	s.render(w, "kiosk.html", kioskData{Options: options})
}

// handleKioskSubmit saves a visit. A successful save renders a fresh form
// with no message; a rejected one keeps the visitor's selections.
func (s *Server) handleKioskSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	sub := kiosk.Submission{
		Gender:    r.PostFormValue("gender"),
		AgeGroup:  r.PostFormValue("age_group"),
		Residence: r.PostFormValue("residence"),
		VisitType: r.PostFormValue("visit_type"),
		Purposes:  r.PostForm["purpose"],
		OtherText: r.PostFormValue("other_text"),
	}

	_, n := s.svc.Submit(r.Context(), sub)
	if n.Failed() {
		status := http.StatusUnprocessableEntity
		if n.Level == kiosk.LevelError {
			status = http.StatusInternalServerError
		}
		s.renderStatus(w, status, "kiosk.html", kioskData{Options: options, Notice: n, Form: sub})
		return
	}

	s.render(w, "kiosk.html", kioskData{Options: options})
}

// defaultRange reads ?start=&end=, falling back to month to date.
func (s *Server) defaultRange(r *http.Request) (string, string) {
	start, end := s.svc.MonthToDate()
	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		start = v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		end = v
	}
	return start, end
}

// handleAdmin renders the report for the requested range.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	start, end := s.defaultRange(r)
	s.renderAdmin(w, r, http.StatusOK, start, end, kiosk.Notice{})
}

func (s *Server) renderAdmin(w http.ResponseWriter, r *http.Request, status int, start, end string, reset kiosk.Notice) {
	data := adminData{
		Start:       start,
		End:         end,
		ResetNotice: reset,
		Passkeys:    s.config.Auth.BaseURL != "",
	}

	if data.Passkeys {
		keys, err := s.passkeys.All(r.Context())
		if err != nil {
			slog.Warn("listing passkeys", "err", err)
		}
		data.Keys = keys
	}

	rep, n := s.svc.Report(r.Context(), start, end)
	data.Notice = n
	if !n.Failed() {
		data.Report = rep
		data.Lines = rep.Daily.Summary.Lines()
	}

	s.renderStatus(w, status, "admin.html", data)
}

// handleExport streams the checksheet workbook for the requested range.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	start, end := s.defaultRange(r)

	var buf bytes.Buffer
	if n := s.svc.Export(r.Context(), start, end, &buf); n.Failed() {
		http.Error(w, n.Message, statusFor(n))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kiosk.ExportName(start, end)))
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(buf.Bytes()))
}

// handleRecordLookup redirects the id lookup form to the record page.
func (s *Server) handleRecordLookup(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 1 {
		_, notice := s.svc.Fetch(r.Context(), id)
		s.renderStatus(w, statusFor(notice), "edit.html", editData{Options: options, ID: id, Notice: notice})
		return
	}
	http.Redirect(w, r, "/admin/records/"+strconv.FormatInt(n, 10), http.StatusSeeOther)
}

// handleEditPage renders the edit form for one record.
func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	form, n := s.svc.Fetch(r.Context(), id)
	s.renderStatus(w, statusFor(n), "edit.html", editData{Options: options, ID: id, Form: form, Notice: n})
}

// handleEditSubmit saves the edit form.
func (s *Server) handleEditSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := kiosk.EditForm{
		VisitDate: r.PostFormValue("visit_date"),
		Gender:    r.PostFormValue("gender"),
		AgeGroup:  r.PostFormValue("age_group"),
		Residence: r.PostFormValue("residence"),
		VisitType: r.PostFormValue("visit_type"),
		Purposes:  r.PostForm["purpose"],
		OtherText: r.PostFormValue("other_text"),
	}

	n := s.svc.Update(r.Context(), id, form)
	if n.Failed() {
		s.renderStatus(w, statusFor(n), "edit.html", editData{Options: options, ID: id, Form: &form, Notice: n})
		return
	}

	saved, _ := s.svc.Fetch(r.Context(), id)
	s.render(w, "edit.html", editData{Options: options, ID: id, Form: saved, Notice: n})
}

// handleDeleteRequest asks for confirmation before deleting.
func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	token, n := s.svc.RequestDelete(r.Context(), id)
	status := http.StatusOK
	if token == "" {
		status = statusFor(n)
	}
	s.renderStatus(w, status, "confirm_delete.html", deleteData{ID: id, Token: token, Notice: n})
}

// handleDeleteConfirm performs a confirmed delete.
func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	n := s.svc.ConfirmDelete(r.Context(), r.PostFormValue("token"))
	s.renderStatus(w, statusFor(n), "confirm_delete.html", deleteData{Notice: n})
}

// handleReset wipes all records after a double password check.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	n := s.svc.Reset(r.Context(), r.PostFormValue("password1"), r.PostFormValue("password2"))

	start, end := s.defaultRange(r)
	s.renderAdmin(w, r, statusFor(n), start, end, n)
}

// statusFor maps a notice to an HTTP status. Notices that did not fail
// map to 200.
func statusFor(n kiosk.Notice) int {
	switch n.Code {
	case kiosk.CodeNotFound:
		return http.StatusNotFound
	case kiosk.CodeInvalid:
		if n.Level == kiosk.LevelError {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	case kiosk.CodeStore:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
