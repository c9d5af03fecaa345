// ABOUTME: User directory persistence for the SQLite store
// ABOUTME: Backs the identity provider's user records

package store

import (
	"context"
	"database/sql"
	"time"
)

// UpsertUser inserts the user or refreshes its profile fields. The creation
// time of an existing row is preserved.
func (s *SQLiteStore) UpsertUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (uid, email, display_name, photo_url, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			email = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END,
			display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE users.display_name END,
			photo_url = CASE WHEN excluded.photo_url != '' THEN excluded.photo_url ELSE users.photo_url END
	`, u.UID, u.Email, u.DisplayName, u.PhotoURL, formatTime(u.CreatedAt))
	return err
}

// GetUser retrieves a user by uid.
func (s *SQLiteStore) GetUser(ctx context.Context, uid string) (*User, error) {
	var u User
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT uid, email, display_name, photo_url, created_at
		FROM users WHERE uid = ?
	`, uid).Scan(&u.UID, &u.Email, &u.DisplayName, &u.PhotoURL, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// ListUsers returns all users ordered by creation time.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, email, display_name, photo_url, created_at
		FROM users ORDER BY created_at ASC, uid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.UID, &u.Email, &u.DisplayName, &u.PhotoURL, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt = parseTime(createdAt)
		users = append(users, &u)
	}
	return users, rows.Err()
}

// DeleteUser removes the user by uid. Task cleanup is the caller's
// responsibility; see the admin cascade.
func (s *SQLiteStore) DeleteUser(ctx context.Context, uid string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE uid = ?`, uid)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("user deleted", "uid", uid)
	return nil
}

// CountUsers returns the total number of directory entries.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
