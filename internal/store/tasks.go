// ABOUTME: Task CRUD operations for the SQLite store
// ABOUTME: Every owner-scoped statement filters on owner_id AND id in one query

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateTask inserts a new task for ownerID. Completed always starts false
// and the owner comes from the caller, never from client input.
func (s *SQLiteStore) CreateTask(ctx context.Context, ownerID, content string) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Content:   strings.TrimSpace(content),
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, content, completed, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, t.ID, t.OwnerID, t.Content, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created", "id", t.ID, "owner", ownerID)
	return t, nil
}

// GetTask retrieves a task by id, scoped to ownerID.
func (s *SQLiteStore) GetTask(ctx context.Context, ownerID, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, content, completed, created_at, updated_at
		FROM tasks WHERE id = ? AND owner_id = ?
	`, id, ownerID)
	return scanTask(row)
}

// ListTasks lists all tasks for ownerID, newest first.
func (s *SQLiteStore) ListTasks(ctx context.Context, ownerID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, content, completed, created_at, updated_at
		FROM tasks WHERE owner_id = ? ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// UpdateTask applies a partial update to the task owned by ownerID. The
// UPDATE itself carries the owner filter so the check-and-write is a
// single atomic statement.
func (s *SQLiteStore) UpdateTask(ctx context.Context, ownerID, id string, upd TaskUpdate) (*Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now())}

	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, strings.TrimSpace(*upd.Content))
	}
	if upd.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*upd.Completed))
	}
	args = append(args, id, ownerID)

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND owner_id = ?`,
		args...)
	if err != nil {
		return nil, err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}

	s.logger.Info("task updated", "id", id, "owner", ownerID)
	return s.GetTask(ctx, ownerID, id)
}

// DeleteTask hard-deletes the task owned by ownerID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("task deleted", "id", id, "owner", ownerID)
	return nil
}

// DeleteTasksByOwner removes every task owned by ownerID. Deleting zero
// rows is not an error; the cascade after a user deletion may find none.
func (s *SQLiteStore) DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	if n > 0 {
		s.logger.Info("tasks deleted for owner", "owner", ownerID, "count", n)
	}
	return n, nil
}

// TaskStats computes aggregate counts across all owners. LastWeek counts
// tasks created at or after since.
func (s *SQLiteStore) TaskStats(ctx context.Context, since time.Time) (*TaskStats, error) {
	var stats TaskStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(completed), 0),
		       COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM tasks
	`, formatTime(since)).Scan(&stats.Total, &stats.Completed, &stats.LastWeek)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskFrom(sc rowScanner) (*Task, error) {
	var t Task
	var completed int
	var createdAt, updatedAt string

	err := sc.Scan(&t.ID, &t.OwnerID, &t.Content, &completed, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Completed = completed != 0
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

func scanTask(row *sql.Row) (*Task, error) {
	return scanTaskFrom(row)
}

func collectTasks(rows *sql.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		t, err := scanTaskFrom(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
