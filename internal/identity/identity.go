// ABOUTME: Identity provider interface consumed by the auth gate and admin handlers
// ABOUTME: Mirrors an external identity service: verify, lookup, list, delete, mint

package identity

import (
	"context"
	"errors"
	"time"
)

// Provider errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrUserNotFound = errors.New("user not found")
)

// Token is the verified content of a bearer credential.
type Token struct {
	UID         string
	Email       string
	DisplayName string
}

// User is a full identity profile as known to the provider.
type User struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	CreatedAt   time.Time
}

// Provider is the identity verification collaborator. Handlers never talk
// to the underlying identity system directly; everything goes through this
// interface so tests can substitute their own implementation.
type Provider interface {
	// VerifyToken validates a bearer credential and returns its verified
	// content. Rejections map to ErrInvalidToken or ErrExpiredToken.
	VerifyToken(ctx context.Context, token string) (*Token, error)

	// GetUser resolves a uid to its full profile, or ErrUserNotFound.
	GetUser(ctx context.Context, uid string) (*User, error)

	// ListUsers returns every known user.
	ListUsers(ctx context.Context) ([]*User, error)

	// DeleteUser removes the user from the identity system, or returns
	// ErrUserNotFound.
	DeleteUser(ctx context.Context, uid string) error

	// CustomToken mints a short-lived exchange token for the given uid.
	CustomToken(ctx context.Context, uid string) (string, error)
}
