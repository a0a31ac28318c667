package tasks

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupSQLite(t *testing.T) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := NewSQLStore(db, SQLite)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLStore_SQLiteRoundTrip(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	first, err := s.AddTask(ctx, "Buy milk")
	require.NoError(t, err)
	second, err := s.AddTask(ctx, "walk dog")
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)

	require.NoError(t, s.CompleteTask(ctx, 1))
	require.NoError(t, s.CompleteTask(ctx, 1))
	require.NoError(t, s.UpdateTask(ctx, 2, "walk the dog"))

	tasks, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, "walk the dog", tasks[1].Title)
	assert.False(t, tasks[1].CreatedAt.IsZero())

	require.NoError(t, s.IncompleteTask(ctx, 1))
	got, err := s.GetTask(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	require.NoError(t, s.DeleteTask(ctx, 2))
	assert.ErrorIs(t, s.DeleteTask(ctx, 2), ErrTaskNotFound)
	_, err = s.GetTask(ctx, 2)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSQLStore_SQLiteMigrateIdempotent(t *testing.T) {
	s := setupSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
