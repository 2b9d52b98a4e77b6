// Package kiosk implements the visitor intake and admin console operations
// on top of a record store. Every operation reports its outcome as a Notice
// rather than failing the caller.
package kiosk

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/visitlog/internal/auth"
	"github.com/evcraddock/visitlog/internal/export"
	"github.com/evcraddock/visitlog/internal/report"
	"github.com/evcraddock/visitlog/internal/visit"
)

// DefaultDeleteTTL is how long a delete confirmation stays valid.
const DefaultDeleteTTL = 5 * time.Minute

// Store is the record store the service runs against.
type Store interface {
	Insert(ctx context.Context, rec visit.Record) (int64, error)
	Get(ctx context.Context, id int64) (*visit.Record, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Update(ctx context.Context, id int64, rec visit.Record) (int64, error)
	ListByDateRange(ctx context.Context, start, end string) ([]*visit.Record, error)
	ResetAll(ctx context.Context) error
}

// Options configures a Service.
type Options struct {
	AdminPassword   string
	ExcludedWeekday time.Weekday
	DeleteTTL       time.Duration
	Now             func() time.Time
}

// Service runs kiosk and admin operations.
type Service struct {
	store    Store
	password string
	excluded time.Weekday
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]pendingDelete
}

type pendingDelete struct {
	id      int64
	expires time.Time
}

// NewService creates a service over store.
func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:    store,
		password: opts.AdminPassword,
		excluded: opts.ExcludedWeekday,
		ttl:      opts.DeleteTTL,
		now:      opts.Now,
		pending:  make(map[string]pendingDelete),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultDeleteTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ExcludedWeekday is the weekday left out of daily series.
func (s *Service) ExcludedWeekday() time.Weekday { return s.excluded }

// Today is the current date in the service clock.
func (s *Service) Today() string { return s.now().Format(visit.DateLayout) }

// MonthToDate returns the range from the first of the current month
// through today.
func (s *Service) MonthToDate() (start, end string) {
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.Format(visit.DateLayout), now.Format(visit.DateLayout)
}

// Submission is what a visitor enters at the kiosk.
type Submission struct {
	Gender    string   `json:"gender"`
	AgeGroup  string   `json:"age_group"`
	Residence string   `json:"residence"`
	VisitType string   `json:"visit_type"`
	Purposes  []string `json:"purposes"`
	OtherText string   `json:"other_text"`
}

// Submit validates and stores a visit dated today. On success the notice
// is empty so the kiosk can reset silently.
func (s *Service) Submit(ctx context.Context, sub Submission) (int64, Notice) {
	rec, err := s.parseSubmission(sub)
	if err != nil {
		return 0, noticeFor(err)
	}
	rec.VisitDate = s.Today()

	id, err := s.store.Insert(ctx, *rec)
	if err != nil {
		slog.Error("saving visit", "error", err)
		return 0, noticeFor(err)
	}

	slog.Debug("visit saved", "id", id)
	return id, Notice{}
}

func (s *Service) parseSubmission(sub Submission) (*visit.Record, error) {
	required := []struct {
		value string
		check func(string) error
	}{
		{sub.Gender, func(v string) error { _, err := visit.ParseGender(v); return err }},
		{sub.AgeGroup, func(v string) error { _, err := visit.ParseAgeGroup(v); return err }},
		{sub.Residence, func(v string) error { _, err := visit.ParseResidence(v); return err }},
		{sub.VisitType, func(v string) error { _, err := visit.ParseVisitType(v); return err }},
	}
	// missing selections are reported in form order before unknown values
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, r.check(r.value)
		}
	}
	if len(sub.Purposes) == 0 {
		_, err := visit.ParsePurposes(nil)
		return nil, err
	}

	return buildRecord("", sub.Gender, sub.AgeGroup, sub.Residence, sub.VisitType, sub.Purposes, sub.OtherText)
}

func buildRecord(date, gender, age, residence, visitType string, purposes []string, other string) (*visit.Record, error) {
	g, err := visit.ParseGender(gender)
	if err != nil {
		return nil, err
	}
	a, err := visit.ParseAgeGroup(age)
	if err != nil {
		return nil, err
	}
	r, err := visit.ParseResidence(residence)
	if err != nil {
		return nil, err
	}
	vt, err := visit.ParseVisitType(visitType)
	if err != nil {
		return nil, err
	}
	tags, err := visit.ParsePurposes(purposes)
	if err != nil {
		return nil, err
	}
	other = strings.TrimSpace(other)
	if err := visit.ValidateOtherText(other); err != nil {
		return nil, err
	}

	return &visit.Record{
		VisitDate: date,
		Gender:    g,
		AgeGroup:  a,
		Residence: r,
		VisitType: vt,
		Purpose:   visit.EncodePurpose(tags, other),
	}, nil
}

// EditForm is an editable view of a stored record.
type EditForm struct {
	ID        int64    `json:"id"`
	VisitDate string   `json:"visit_date"`
	Gender    string   `json:"gender"`
	AgeGroup  string   `json:"age_group"`
	Residence string   `json:"residence"`
	VisitType string   `json:"visit_type"`
	Purposes  []string `json:"purposes"`
	OtherText string   `json:"other_text"`
}

// Has reports whether the form has purpose p selected.
func (f *EditForm) Has(p string) bool {
	for _, v := range f.Purposes {
		if v == p {
			return true
		}
	}
	return false
}

// Fetch loads a record for editing. Purpose tokens outside the
// enumeration are left out of the form.
func (s *Service) Fetch(ctx context.Context, idText string) (*EditForm, Notice) {
	id, n := parseID(idText)
	if n.Failed() {
		return nil, n
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, noticeFor(err)
	}

	d := visit.DecodePurpose(rec.Purpose)
	if len(d.Dropped) > 0 {
		slog.Warn("dropping unknown purpose tokens", "id", id, "count", len(d.Dropped))
	}
	form := &EditForm{
		ID:        rec.ID,
		VisitDate: rec.VisitDate,
		Gender:    string(rec.Gender),
		AgeGroup:  string(rec.AgeGroup),
		Residence: string(rec.Residence),
		VisitType: string(rec.VisitType),
		Purposes:  make([]string, 0, len(d.Tags)),
		OtherText: d.OtherText,
	}
	for _, t := range d.Tags {
		form.Purposes = append(form.Purposes, string(t))
	}

	return form, success("Loaded record %d.", id)
}

// Update overwrites a record with form's values.
func (s *Service) Update(ctx context.Context, idText string, form EditForm) Notice {
	id, n := parseID(idText)
	if n.Failed() {
		return n
	}

	date, err := visit.ParseDate(form.VisitDate)
	if err != nil {
		return noticeFor(err)
	}
	rec, err := buildRecord(date, form.Gender, form.AgeGroup, form.Residence, form.VisitType, form.Purposes, form.OtherText)
	if err != nil {
		return noticeFor(err)
	}

	updated, err := s.store.Update(ctx, id, *rec)
	if err != nil {
		return noticeFor(err)
	}
	if updated == 0 {
		return warn(CodeNotFound, "Record %d was not updated; it may not exist.", id)
	}
	return success("Record %d saved.", id)
}

// RequestDelete checks that the record exists and returns a one-time
// token that ConfirmDelete accepts until it expires.
func (s *Service) RequestDelete(ctx context.Context, idText string) (string, Notice) {
	id, n := parseID(idText)
	if n.Failed() {
		return "", n
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return "", noticeFor(err)
	}

	token := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	s.prune(now)
	s.pending[token] = pendingDelete{id: id, expires: now.Add(s.ttl)}
	s.mu.Unlock()

	return token, warn(CodeNone, "Delete record %d? Confirm to delete it permanently.", id)
}

// ConfirmDelete deletes the record a token was issued for. Each token
// works once.
func (s *Service) ConfirmDelete(ctx context.Context, token string) Notice {
	now := s.now()

	s.mu.Lock()
	s.prune(now)
	p, ok := s.pending[token]
	delete(s.pending, token)
	s.mu.Unlock()

	if !ok {
		return warn(CodeInvalid, "Press Delete first to request confirmation.")
	}
	return s.deleteID(ctx, p.id)
}

// Delete removes a record without the confirmation step.
func (s *Service) Delete(ctx context.Context, idText string) Notice {
	id, n := parseID(idText)
	if n.Failed() {
		return n
	}
	return s.deleteID(ctx, id)
}

func (s *Service) deleteID(ctx context.Context, id int64) Notice {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return noticeFor(err)
	}
	if deleted == 0 {
		return warn(CodeNotFound, "Record %d was not deleted; it may not exist.", id)
	}
	slog.Info("visit deleted", "id", id)
	return success("Record %d deleted.", id)
}

// prune drops expired confirmations. Callers hold s.mu.
func (s *Service) prune(now time.Time) {
	for token, p := range s.pending {
		if now.After(p.expires) {
			delete(s.pending, token)
		}
	}
}

// Reset deletes every record and restarts ids at 1. Both password fields
// must match each other and the admin password.
func (s *Service) Reset(ctx context.Context, pw1, pw2 string) Notice {
	pw1 = strings.TrimSpace(pw1)
	pw2 = strings.TrimSpace(pw2)

	if pw1 == "" || pw2 == "" {
		return warn(CodeInvalid, "Enter the password in both fields.")
	}
	if pw1 != pw2 {
		return warn(CodeInvalid, "The two passwords do not match.")
	}
	if !s.CheckPassword(pw1) {
		return Notice{Level: LevelError, Code: CodeInvalid, Message: "Wrong password."}
	}

	if err := s.store.ResetAll(ctx); err != nil {
		return noticeFor(err)
	}
	slog.Warn("all visit data reset")
	return success("All data reset. Numbering starts again from 1.")
}

// CheckPassword compares pw against the admin password in constant time.
func (s *Service) CheckPassword(pw string) bool {
	return auth.CheckPassword(s.password, pw)
}

// List returns the records dated within [start, end], ordered by id.
func (s *Service) List(ctx context.Context, start, end string) ([]*visit.Record, Notice) {
	from, to, err := report.ParseRange(start, end)
	if err != nil {
		return nil, noticeFor(err)
	}
	records, err := s.store.ListByDateRange(ctx, from.Format(visit.DateLayout), to.Format(visit.DateLayout))
	if err != nil {
		return nil, noticeFor(err)
	}
	return records, Notice{}
}

// Report builds every admin aggregate for [start, end].
func (s *Service) Report(ctx context.Context, start, end string) (*report.Report, Notice) {
	records, n := s.List(ctx, start, end)
	if n.Failed() {
		return nil, n
	}

	rep, err := report.Build(records, start, end, s.excluded)
	if err != nil {
		return nil, noticeFor(err)
	}
	return rep, Notice{}
}

// Export writes the checksheet workbook for [start, end] to w.
func (s *Service) Export(ctx context.Context, start, end string, w io.Writer) Notice {
	records, n := s.List(ctx, start, end)
	if n.Failed() {
		return n
	}

	m := export.BuildMatrix(records)
	if m.DroppedTokens > 0 {
		slog.Warn("unknown purpose tokens left out of export", "count", m.DroppedTokens)
	}
	if err := export.WriteXLSX(w, m); err != nil {
		slog.Error("writing export", "error", err)
		return noticeFor(err)
	}
	return success("Exported %d records.", len(m.Rows))
}

// ExportName is the download filename for a range export.
func ExportName(start, end string) string {
	return "visitlog_checksheet_" + strings.TrimSpace(start) + "_" + strings.TrimSpace(end) + ".xlsx"
}

func parseID(s string) (int64, Notice) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, warn(CodeInvalid, "ID must be a number.")
	}
	return id, Notice{}
}
