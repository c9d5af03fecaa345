// ABOUTME: Store interface and data types for spotter backend persistence
// ABOUTME: Defines Task, User structs and the store interfaces for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// MaxContentLength bounds task content size.
const MaxContentLength = 1000

// Task represents a single todo item owned by one user.
type Task struct {
	ID        string
	OwnerID   string // uid of the user who created the task; immutable
	Content   string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskUpdate carries a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Content   *string
	Completed *bool
}

// TaskStats holds aggregate task counts.
type TaskStats struct {
	Total     int
	Completed int
	LastWeek  int
}

// User is a directory record backing the identity provider.
type User struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	CreatedAt   time.Time
}

// TaskStore defines task persistence. Owner-scoped operations filter by
// both id and owner id in a single statement, so a task owned by someone
// else is indistinguishable from a missing one.
type TaskStore interface {
	// CreateTask inserts a new task. ID and timestamps are assigned here;
	// Completed always starts false.
	CreateTask(ctx context.Context, ownerID, content string) (*Task, error)

	// GetTask returns the task with the given id owned by ownerID, or
	// ErrNotFound.
	GetTask(ctx context.Context, ownerID, id string) (*Task, error)

	// ListTasks returns all tasks owned by ownerID, newest first.
	ListTasks(ctx context.Context, ownerID string) ([]*Task, error)

	// UpdateTask applies a partial update to the task owned by ownerID.
	// Returns the updated task, or ErrNotFound.
	UpdateTask(ctx context.Context, ownerID, id string, upd TaskUpdate) (*Task, error)

	// DeleteTask removes the task owned by ownerID, or returns ErrNotFound.
	DeleteTask(ctx context.Context, ownerID, id string) error

	// DeleteTasksByOwner removes every task owned by ownerID and returns
	// the number of rows removed.
	DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error)

	// TaskStats computes aggregate counts. LastWeek counts tasks created
	// at or after since.
	TaskStats(ctx context.Context, since time.Time) (*TaskStats, error)
}

// UserStore defines directory persistence for the identity provider.
type UserStore interface {
	// UpsertUser creates the user or refreshes its profile fields.
	UpsertUser(ctx context.Context, u *User) error

	// GetUser returns the user with the given uid, or ErrNotFound.
	GetUser(ctx context.Context, uid string) (*User, error)

	// ListUsers returns all users ordered by creation time.
	ListUsers(ctx context.Context) ([]*User, error)

	// DeleteUser removes the user, or returns ErrNotFound.
	DeleteUser(ctx context.Context, uid string) error

	// CountUsers returns the total number of directory entries.
	CountUsers(ctx context.Context) (int, error)
}
