package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const createdAtLayout = "2006-01-02T15:04:05"

const selectColumns = `id, created_at, visit_date, gender, age_group, residence, purpose, visit_type`

// Repository is the SQLite-backed visit record store.
type Repository struct {
	db    *sql.DB
	retry RetryPolicy
	now   func() time.Time
}

// NewRepository creates a visit repository. Writes that hit a locked
// database are retried according to policy.
func NewRepository(db *sql.DB, policy RetryPolicy) *Repository {
	return &Repository{db: db, retry: policy, now: time.Now}
}

// Insert stores a new record and returns its id. rec.ID and rec.CreatedAt
// are ignored; the store assigns both.
func (r *Repository) Insert(ctx context.Context, rec Record) (int64, error) {
	var id int64
	err := r.withRetry(ctx, "inserting visit", func() error {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO visits (created_at, visit_date, gender, age_group, residence, purpose, visit_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.now().Format(createdAtLayout), rec.VisitDate,
			string(rec.Gender), string(rec.AgeGroup), string(rec.Residence),
			rec.Purpose, string(rec.VisitType),
		)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id int64) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM visits WHERE id = ?", selectColumns), id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("visit %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, &PersistenceError{Op: fmt.Sprintf("querying visit %d", id), Attempts: 1, Err: err}
	}
	return rec, nil
}

// Delete removes a record and returns the number of rows affected.
// Deleting a missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	var affected int64
	err := r.withRetry(ctx, "deleting visit", func() error {
		result, err := r.db.ExecContext(ctx, "DELETE FROM visits WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Update overwrites the business fields of a record and returns the
// number of rows affected. Updating a missing id is not an error.
func (r *Repository) Update(ctx context.Context, id int64, rec Record) (int64, error) {
	var affected int64
	err := r.withRetry(ctx, "updating visit", func() error {
		result, err := r.db.ExecContext(ctx,
			`UPDATE visits
			 SET visit_date = ?, gender = ?, age_group = ?, residence = ?, purpose = ?, visit_type = ?
			 WHERE id = ?`,
			rec.VisitDate, string(rec.Gender), string(rec.AgeGroup), string(rec.Residence),
			rec.Purpose, string(rec.VisitType), id,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ListByDateRange returns records whose visit_date falls in [start, end],
// ordered by id ascending.
func (r *Repository) ListByDateRange(ctx context.Context, start, end string) (records []*Record, err error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM visits WHERE visit_date BETWEEN ? AND ? ORDER BY id ASC", selectColumns),
		start, end,
	)
	if err != nil {
		return nil, &PersistenceError{Op: "listing visits", Attempts: 1, Err: err}
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visits: %w", err)
	}

	return records, nil
}

// ResetAll deletes every record and restarts the id sequence at 1.
func (r *Repository) ResetAll(ctx context.Context) error {
	return r.withRetry(ctx, "resetting visits", func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM visits"); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = 'visits'"); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one visits row. NULL text columns become "".
func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var createdAt, visitDate, gender, age, res, purpose, vtype sql.NullString
	if err := s.Scan(&rec.ID, &createdAt, &visitDate, &gender, &age, &res, &purpose, &vtype); err != nil {
		return nil, err
	}

	rec.CreatedAt = parseCreatedAt(createdAt.String)
	rec.VisitDate = visitDate.String
	rec.Gender = Gender(gender.String)
	rec.AgeGroup = AgeGroup(age.String)
	rec.Residence = Residence(res.String)
	rec.Purpose = purpose.String
	rec.VisitType = VisitType(vtype.String)

	return &rec, nil
}

// parseCreatedAt accepts the stored audit timestamp; anything unparseable
// becomes the zero time.
func parseCreatedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(createdAtLayout, s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
