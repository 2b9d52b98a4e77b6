package visit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errLocked = errors.New("database is locked")

func mockRepo(t *testing.T, attempts int) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	d, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	repo := NewRepository(d, RetryPolicy{Attempts: attempts, Backoff: time.Millisecond})
	repo.now = func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) }
	return repo, mock
}

func TestInsertRetriesOnLock(t *testing.T) {
	repo, mock := mockRepo(t, 3)

	mock.ExpectExec("INSERT INTO visits").WillReturnError(errLocked)
	mock.ExpectExec("INSERT INTO visits").WillReturnError(errLocked)
	mock.ExpectExec("INSERT INTO visits").
		WithArgs("2024-06-03T10:00:00", "2024-06-03", "female", "25-29", "district A", sqlmock.AnyArg(), "first-visit").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Insert(context.Background(), sampleRecord("2024-06-03"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertGivesUpAfterAttempts(t *testing.T) {
	repo, mock := mockRepo(t, 3)

	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO visits").WillReturnError(errLocked)
	}

	_, err := repo.Insert(context.Background(), sampleRecord("2024-06-03"))
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Attempts)
	assert.ErrorIs(t, err, errLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNonLockErrorIsNotRetried(t *testing.T) {
	repo, mock := mockRepo(t, 3)

	boom := errors.New("disk I/O error")
	mock.ExpectExec("DELETE FROM visits").WillReturnError(boom)

	_, err := repo.Delete(context.Background(), 1)
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Attempts)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryStopsOnCancel(t *testing.T) {
	d, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	repo := NewRepository(d, RetryPolicy{Attempts: 3, Backoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	mock.ExpectExec("UPDATE visits").WillReturnError(errLocked)
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = repo.Update(ctx, 1, sampleRecord("2024-06-03"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResetAllRetriesTransaction(t *testing.T) {
	repo, mock := mockRepo(t, 2)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM visits").WillReturnError(errLocked)
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM visits").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM sqlite_sequence").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ResetAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsLocked(t *testing.T) {
	assert.True(t, isLocked(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isLocked(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, isLocked(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.True(t, isLocked(errors.New("database table is locked")))
	assert.False(t, isLocked(errors.New("no such table: visits")))
}
