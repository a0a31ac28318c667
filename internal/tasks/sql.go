package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect selects placeholder style and DDL for SQLStore.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

const (
	postgresSchema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

	sqliteSchema = `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`

	taskColumns = `id, title, description, completed, created_at, updated_at`
)

// SQLStore persists tasks in a relational database. The same queries serve
// Postgres (lib/pq) and SQLite (modernc.org/sqlite); only placeholders differ.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the tasks table when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.dialect == SQLite {
		schema = sqliteSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: migrate %s: %v", ErrTaskStoreFailed, s.dialect, err)
	}
	return nil
}

func (s *SQLStore) AddTask(ctx context.Context, title string) (*Task, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	now := s.now()
	query := s.rebind(`INSERT INTO tasks (title, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`)

	var id int
	if err := s.db.QueryRowContext(ctx, query, title, "", false, now, now).Scan(&id); err != nil {
		return nil, fmt.Errorf("%w: insert task: %v", ErrTaskStoreFailed, err)
	}

	return &Task{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLStore) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %v", ErrTaskStoreFailed, err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan task: %v", ErrTaskStoreFailed, err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tasks: %v", ErrTaskStoreFailed, err)
	}
	return out, nil
}

func (s *SQLStore) GetTask(ctx context.Context, id int) (*Task, error) {
	if !validID(id) {
		return nil, ErrTaskNotFound
	}

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get task %d: %v", ErrTaskStoreFailed, id, err)
	}
	return t, nil
}

func (s *SQLStore) UpdateTask(ctx context.Context, id int, title string) error {
	title, err := cleanTitle(title)
	if err != nil {
		return err
	}
	return s.execByID(ctx, id, `UPDATE tasks SET title = ?, updated_at = ? WHERE id = ?`, title, s.now(), id)
}

func (s *SQLStore) CompleteTask(ctx context.Context, id int) error {
	return s.execByID(ctx, id, `UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?`, true, s.now(), id)
}

func (s *SQLStore) IncompleteTask(ctx context.Context, id int) error {
	return s.execByID(ctx, id, `UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?`, false, s.now(), id)
}

func (s *SQLStore) DeleteTask(ctx context.Context, id int) error {
	return s.execByID(ctx, id, `DELETE FROM tasks WHERE id = ?`, id)
}

// execByID runs a single-row statement and maps zero affected rows to
// ErrTaskNotFound.
func (s *SQLStore) execByID(ctx context.Context, id int, query string, args ...interface{}) error {
	if !validID(id) {
		return ErrTaskNotFound
	}

	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%w: task %d: %v", ErrTaskStoreFailed, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: task %d: %v", ErrTaskStoreFailed, id, err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t                Task
		created, updated flexTime
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &created, &updated); err != nil {
		return nil, err
	}
	t.CreatedAt = created.Time
	t.UpdatedAt = updated.Time
	return &t, nil
}

// flexTime scans timestamps that arrive as time.Time (lib/pq) or as text
// (SQLite DATETIME columns, depending on driver settings).
type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

func (f *flexTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		f.Time = v
		return nil
	case nil:
		f.Time = time.Time{}
		return nil
	case int64:
		f.Time = time.Unix(v, 0).UTC()
		return nil
	case []byte:
		return f.parse(string(v))
	case string:
		return f.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (f *flexTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
