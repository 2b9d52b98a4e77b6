package visit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/visitlog/internal/db"
)

func TestInsertAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, sampleRecord("2024-06-03"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}

	rec, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.VisitDate != "2024-06-03" {
		t.Errorf("visit_date = %q, want %q", rec.VisitDate, "2024-06-03")
	}
	if rec.Gender != GenderFemale {
		t.Errorf("gender = %q, want %q", rec.Gender, GenderFemale)
	}
	if rec.Purpose != "study/personal-work, other:bike repair" {
		t.Errorf("purpose = %q", rec.Purpose)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestGetNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.Get(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetNullColumns(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.db.Exec(`INSERT INTO visits (visit_date) VALUES ('2024-06-03')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Gender != "" || rec.Purpose != "" {
		t.Errorf("expected empty strings for NULL columns, got %+v", rec)
	}
}

func TestDeleteMissingReturnsZero(t *testing.T) {
	repo := testRepo(t)

	n, err := repo.Delete(context.Background(), 9999)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, sampleRecord("2024-06-03"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := repo.Delete(ctx, id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Errorf("rows affected = %d, want 1", n)
	}

	if _, err := repo.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, sampleRecord("2024-06-03"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	changed := sampleRecord("2024-06-04")
	changed.Gender = GenderMale
	changed.Purpose = "curiosity"

	n, err := repo.Update(ctx, id, changed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n != 1 {
		t.Errorf("rows affected = %d, want 1", n)
	}

	rec, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.VisitDate != "2024-06-04" || rec.Gender != GenderMale || rec.Purpose != "curiosity" {
		t.Errorf("update not applied: %+v", rec)
	}
}

func TestUpdateMissingReturnsZero(t *testing.T) {
	repo := testRepo(t)

	n, err := repo.Update(context.Background(), 42, sampleRecord("2024-06-03"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
}

func TestListByDateRange(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, d := range []string{"2024-06-05", "2024-05-31", "2024-06-01", "2024-06-30", "2024-07-01"} {
		if _, err := repo.Insert(ctx, sampleRecord(d)); err != nil {
			t.Fatalf("insert %s: %v", d, err)
		}
	}

	recs, err := repo.ListByDateRange(ctx, "2024-06-01", "2024-06-30")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}

	// id ascending, not date order
	wantIDs := []int64{1, 3, 4}
	for i, rec := range recs {
		if rec.ID != wantIDs[i] {
			t.Errorf("recs[%d].ID = %d, want %d", i, rec.ID, wantIDs[i])
		}
	}
}

func TestListByDateRangeEmpty(t *testing.T) {
	repo := testRepo(t)

	recs, err := repo.ListByDateRange(context.Background(), "2024-06-01", "2024-06-30")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records, want 0", len(recs))
	}
}

func TestResetAllRestartsSequence(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := repo.Insert(ctx, sampleRecord("2024-06-03")); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if err := repo.ResetAll(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	recs, err := repo.ListByDateRange(ctx, "0000-01-01", "9999-12-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records after reset, want 0", len(recs))
	}

	id, err := repo.Insert(ctx, sampleRecord("2024-06-04"))
	if err != nil {
		t.Fatalf("insert after reset: %v", err)
	}
	if id != 1 {
		t.Errorf("id after reset = %d, want 1", id)
	}
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first, err := repo.Insert(ctx, sampleRecord("2024-06-03"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Delete(ctx, first); err != nil {
		t.Fatalf("delete: %v", err)
	}

	second, err := repo.Insert(ctx, sampleRecord("2024-06-03"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if second == first {
		t.Errorf("id %d was reused", second)
	}
}

func sampleRecord(date string) Record {
	return Record{
		VisitDate: date,
		Gender:    GenderFemale,
		AgeGroup:  Age25to29,
		Residence: ResidenceDistrictA,
		Purpose:   EncodePurpose([]Purpose{PurposeStudy, PurposeOther}, "bike repair"),
		VisitType: FirstVisit,
	}
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path, db.Options{BusyTimeout: time.Second})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d, DefaultRetryPolicy)
}
