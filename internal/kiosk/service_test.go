package kiosk

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/evcraddock/visitlog/internal/db"
	"github.com/evcraddock/visitlog/internal/export"
	"github.com/evcraddock/visitlog/internal/visit"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func testService(t *testing.T) (*Service, *visit.Repository, *fakeClock) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"), db.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	repo := visit.NewRepository(database, visit.DefaultRetryPolicy)
	clock := &fakeClock{t: time.Date(2024, 6, 3, 10, 0, 0, 0, time.Local)}
	svc := NewService(repo, Options{
		AdminPassword:   "1234",
		ExcludedWeekday: time.Sunday,
		Now:             clock.Now,
	})
	return svc, repo, clock
}

func validSubmission() Submission {
	return Submission{
		Gender:    "female",
		AgeGroup:  "25-29",
		Residence: "district A",
		VisitType: "first-visit",
		Purposes:  []string{"other", "study/personal-work"},
		OtherText: "  bike repair ",
	}
}

func TestSubmit(t *testing.T) {
	svc, repo, _ := testService(t)
	ctx := context.Background()

	id, n := svc.Submit(ctx, validSubmission())
	assert.Equal(t, Notice{}, n)
	assert.Equal(t, int64(1), id)

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", rec.VisitDate)
	assert.Equal(t, "study/personal-work, other:bike repair", rec.Purpose)
	assert.Equal(t, visit.Age25to29, rec.AgeGroup)
}

func TestSubmitValidationOrder(t *testing.T) {
	svc, _, _ := testService(t)

	tests := []struct {
		name   string
		mutate func(*Submission)
		want   string
	}{
		{"all missing", func(s *Submission) { *s = Submission{} }, "Please select a gender."},
		{"age missing", func(s *Submission) { s.AgeGroup = ""; s.Residence = "" }, "Please select an age group."},
		{"residence missing", func(s *Submission) { s.Residence = ""; s.Purposes = nil }, "Please select where you live."},
		{"visit type missing", func(s *Submission) { s.VisitType = ""; s.Purposes = nil }, "Please select how many times you have visited."},
		{"purpose missing", func(s *Submission) { s.Purposes = nil }, "Please select at least one purpose."},
		{"missing beats unknown", func(s *Submission) { s.Gender = "robot"; s.VisitType = "" }, "Please select how many times you have visited."},
		{"other text comma", func(s *Submission) { s.OtherText = "a, b" }, "The other-purpose note cannot contain commas."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)

			id, n := svc.Submit(context.Background(), sub)
			assert.Zero(t, id)
			assert.Equal(t, LevelWarn, n.Level)
			assert.Equal(t, tt.want, n.Message)
		})
	}
}

func TestSubmitUnknownValue(t *testing.T) {
	svc, _, _ := testService(t)

	sub := validSubmission()
	sub.Residence = "mars"
	_, n := svc.Submit(context.Background(), sub)
	assert.True(t, n.Failed())
	assert.Contains(t, n.Message, "mars")
}

func TestFetchAndUpdate(t *testing.T) {
	svc, repo, _ := testService(t)
	ctx := context.Background()

	id, _ := svc.Submit(ctx, validSubmission())

	form, n := svc.Fetch(ctx, " 1 ")
	require.Equal(t, LevelSuccess, n.Level)
	assert.Equal(t, id, form.ID)
	assert.Equal(t, []string{"study/personal-work", "other"}, form.Purposes)
	assert.Equal(t, "bike repair", form.OtherText)
	assert.True(t, form.Has("other"))

	form.VisitDate = "2024-05-31"
	form.Purposes = []string{"curiosity"}
	form.OtherText = ""
	form.Gender = "male"
	n = svc.Update(ctx, "1", *form)
	assert.Equal(t, LevelSuccess, n.Level, n.Message)

	rec, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-31", rec.VisitDate)
	assert.Equal(t, "curiosity", rec.Purpose)
	assert.Equal(t, visit.GenderMale, rec.Gender)
}

func TestFetchErrors(t *testing.T) {
	svc, _, _ := testService(t)

	_, n := svc.Fetch(context.Background(), "abc")
	assert.Equal(t, warn(CodeInvalid, "ID must be a number."), n)

	_, n = svc.Fetch(context.Background(), "42")
	assert.Equal(t, LevelWarn, n.Level)
	assert.Equal(t, "Record not found.", n.Message)
	assert.Equal(t, CodeNotFound, n.Code)
}

func TestUpdateErrors(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	svc.Submit(ctx, validSubmission())

	form := EditForm{
		VisitDate: "2024-06-03",
		Gender:    "female",
		AgeGroup:  "19-24",
		Residence: "other",
		VisitType: "repeat-visit",
		Purposes:  []string{"curiosity"},
	}

	bad := form
	bad.VisitDate = "06/03/2024"
	assert.Equal(t, "Visit date must be in YYYY-MM-DD format.", svc.Update(ctx, "1", bad).Message)

	bad = form
	bad.Purposes = nil
	assert.Equal(t, "Please select at least one purpose.", svc.Update(ctx, "1", bad).Message)

	n := svc.Update(ctx, "9999", form)
	assert.Equal(t, LevelWarn, n.Level)
	assert.Contains(t, n.Message, "9999")
}

func TestTwoStepDelete(t *testing.T) {
	svc, repo, _ := testService(t)
	ctx := context.Background()
	id, _ := svc.Submit(ctx, validSubmission())

	token, n := svc.RequestDelete(ctx, "1")
	require.NotEmpty(t, token)
	assert.Equal(t, LevelWarn, n.Level)

	// still present until confirmed
	_, err := repo.Get(ctx, id)
	require.NoError(t, err)

	n = svc.ConfirmDelete(ctx, token)
	assert.Equal(t, LevelSuccess, n.Level)

	_, err = repo.Get(ctx, id)
	assert.True(t, errors.Is(err, visit.ErrNotFound))

	// tokens are single use
	n = svc.ConfirmDelete(ctx, token)
	assert.Equal(t, "Press Delete first to request confirmation.", n.Message)
}

func TestRequestDeleteMissing(t *testing.T) {
	svc, _, _ := testService(t)

	token, n := svc.RequestDelete(context.Background(), "9999")
	assert.Empty(t, token)
	assert.Equal(t, "Record not found.", n.Message)
}

func TestConfirmDeleteExpired(t *testing.T) {
	svc, repo, clock := testService(t)
	ctx := context.Background()
	id, _ := svc.Submit(ctx, validSubmission())

	token, _ := svc.RequestDelete(ctx, "1")
	clock.t = clock.t.Add(DefaultDeleteTTL + time.Second)

	n := svc.ConfirmDelete(ctx, token)
	assert.Equal(t, LevelWarn, n.Level)

	_, err := repo.Get(ctx, id)
	assert.NoError(t, err)
}

func TestDeleteMissingIsWarning(t *testing.T) {
	svc, _, _ := testService(t)

	n := svc.Delete(context.Background(), "9999")
	assert.Equal(t, LevelWarn, n.Level)
	assert.Contains(t, n.Message, "may not exist")
}

func TestReset(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	svc.Submit(ctx, validSubmission())
	svc.Submit(ctx, validSubmission())

	tests := []struct {
		name     string
		pw1, pw2 string
		want     Level
	}{
		{"blank", "", "1234", LevelWarn},
		{"mismatch", "1234", "4321", LevelWarn},
		{"wrong", "9999", "9999", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Reset(ctx, tt.pw1, tt.pw2).Level)
		})
	}

	n := svc.Reset(ctx, " 1234", "1234 ")
	require.Equal(t, LevelSuccess, n.Level)

	id, _ := svc.Submit(ctx, validSubmission())
	assert.Equal(t, int64(1), id)
}

func TestCheckPassword(t *testing.T) {
	svc, _, _ := testService(t)
	assert.True(t, svc.CheckPassword("1234"))
	assert.False(t, svc.CheckPassword("12345"))
	assert.False(t, svc.CheckPassword(""))

	empty := NewService(nil, Options{})
	assert.False(t, empty.CheckPassword(""))
}

func TestReport(t *testing.T) {
	svc, _, clock := testService(t)
	ctx := context.Background()

	svc.Submit(ctx, validSubmission())
	clock.t = clock.t.AddDate(0, 0, 1)
	sub := validSubmission()
	sub.Gender = "male"
	sub.Purposes = []string{"study/personal-work"}
	svc.Submit(ctx, sub)

	rep, n := svc.Report(ctx, "2024-06-03", "2024-06-09")
	require.False(t, n.Failed(), n.Message)
	assert.Len(t, rep.Records, 2)
	assert.Equal(t, 2, rep.Daily.Summary.Total)
	assert.Equal(t, 6, rep.Daily.Summary.IncludedCount)
	assert.Equal(t, "study/personal-work", rep.Purpose[0].Value)
	assert.Equal(t, 2, rep.Purpose[0].Count)

	_, n = svc.Report(ctx, "2024-06-09", "2024-06-03")
	assert.Equal(t, LevelWarn, n.Level)
	assert.Contains(t, n.Message, "before start")
}

func TestExport(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	svc.Submit(ctx, validSubmission())

	var buf bytes.Buffer
	n := svc.Export(ctx, "2024-06-01", "2024-06-30", &buf)
	require.Equal(t, LevelSuccess, n.Level, n.Message)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(export.SheetName, "A4")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	n = svc.Export(ctx, "bad", "2024-06-30", &bytes.Buffer{})
	assert.Equal(t, LevelWarn, n.Level)
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "visitlog_checksheet_2024-06-01_2024-06-30.xlsx", ExportName("2024-06-01", " 2024-06-30"))
}

func TestMonthToDate(t *testing.T) {
	svc, _, clock := testService(t)

	start, end := svc.MonthToDate()
	assert.Equal(t, "2024-06-01", start)
	assert.Equal(t, "2024-06-03", end)

	clock.t = time.Date(2024, 12, 31, 23, 0, 0, 0, time.Local)
	start, end = svc.MonthToDate()
	assert.Equal(t, "2024-12-01", start)
	assert.Equal(t, "2024-12-31", end)
}
