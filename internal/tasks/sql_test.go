package tasks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupMockDB(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSQLStore(db, Postgres)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := NewSQLStore(nil, Postgres)
	lite := NewSQLStore(nil, SQLite)

	q := `UPDATE tasks SET title = ?, updated_at = ? WHERE id = ?`
	assert.Equal(t, `UPDATE tasks SET title = $1, updated_at = $2 WHERE id = $3`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestSQLStore_AddTask(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery(`INSERT INTO tasks .* RETURNING id`).
		WithArgs("buy milk", "", false, fixedNow, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	task, err := s.AddTask(context.Background(), " buy milk ")
	require.NoError(t, err)
	assert.Equal(t, 7, task.ID)
	assert.Equal(t, "buy milk", task.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_AddTask_DatabaseError(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery(`INSERT INTO tasks`).WillReturnError(errors.New("connection refused"))

	_, err := s.AddTask(context.Background(), "x")
	assert.ErrorIs(t, err, ErrTaskStoreFailed)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSQLStore_ListTasks(t *testing.T) {
	s, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "completed", "created_at", "updated_at"}).
		AddRow(1, "buy milk", "", false, fixedNow, fixedNow).
		AddRow(2, "walk dog", "", true, "2024-05-01 12:00:00", []byte("2024-05-01T12:00:00Z"))
	mock.ExpectQuery(`SELECT id, title, description, completed, created_at, updated_at FROM tasks ORDER BY id`).
		WillReturnRows(rows)

	tasks, err := s.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "walk dog", tasks[1].Title)
	assert.True(t, tasks[1].Completed)
	assert.True(t, tasks[1].CreatedAt.Equal(fixedNow))
	assert.True(t, tasks[1].UpdatedAt.Equal(fixedNow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetTask_NotFound(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT .* FROM tasks WHERE id = \$1`).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetTask(context.Background(), 9)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_CompleteTask(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE tasks SET completed = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(true, fixedNow, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CompleteTask(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_IncompleteTask(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE tasks SET completed = \$1`).
		WithArgs(false, fixedNow, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.IncompleteTask(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_UpdateTask(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`UPDATE tasks SET title = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("new title", fixedNow, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateTask(context.Background(), 4, "new title"))
	assert.ErrorIs(t, s.UpdateTask(context.Background(), 4, " "), ErrInvalidTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DeleteTask_NoRows(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteTask(context.Background(), 5), ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_NonPositiveIDSkipsQuery(t *testing.T) {
	s, mock := setupMockDB(t)

	assert.ErrorIs(t, s.DeleteTask(context.Background(), 0), ErrTaskNotFound)
	_, err := s.GetTask(context.Background(), -3)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlexTime_Scan(t *testing.T) {
	var f flexTime
	require.NoError(t, f.Scan(int64(0)))
	assert.Equal(t, int64(0), f.Unix())

	require.NoError(t, f.Scan(nil))
	assert.True(t, f.IsZero())

	assert.Error(t, f.Scan("yesterday"))
	assert.Error(t, f.Scan(3.14))
}
