package devserver

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT    NOT NULL UNIQUE,
	task      TEXT    NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);`

// SQLiteStore keeps tasks in a SQLite database so they survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path. ":memory:" gives a
// private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// List returns every task.
func (s *SQLiteStore) List(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task, completed FROM tasks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Task, &t.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Add stores a new task and returns it with its id.
func (s *SQLiteStore) Add(ctx context.Context, text string, completed bool) (Task, error) {
	t := Task{ID: uuid.NewString(), Task: text, Completed: completed}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, task, completed) VALUES (?, ?, ?)`, t.ID, t.Task, t.Completed); err != nil {
		return Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

// Update replaces the text and completion of id.
func (s *SQLiteStore) Update(ctx context.Context, id, text string, completed bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET task = ?, completed = ? WHERE id = ?`, text, completed, id)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return affected(res)
}

// Remove deletes id.
func (s *SQLiteStore) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return affected(res)
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
