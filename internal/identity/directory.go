// ABOUTME: Directory is the built-in identity provider backed by the user table
// ABOUTME: Verifies and mints HS256 JWTs carrying uid/email/name claims

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/itayeylath/spotter-backend/internal/store"
)

// MinSecretLength is the minimum JWT secret size in bytes.
const MinSecretLength = 32

// DefaultCustomTokenTTL bounds the lifetime of minted exchange tokens.
const DefaultCustomTokenTTL = time.Hour

// Directory implements Provider on top of the local user table. A verified
// token implies an existing user, so verification upserts the directory
// row with whatever profile claims the token carries — the same contract
// an external identity service gives us.
type Directory struct {
	secret []byte
	users  store.UserStore
	logger *slog.Logger
}

// NewDirectory creates a Directory provider with the given signing secret.
func NewDirectory(secret []byte, users store.UserStore) (*Directory, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	return &Directory{
		secret: secret,
		users:  users,
		logger: slog.Default().With("component", "identity"),
	}, nil
}

// VerifyToken validates the token and extracts the identity from its claims.
func (d *Directory) VerifyToken(ctx context.Context, tokenString string) (*Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	t := &Token{UID: sub}
	if email, ok := claims["email"].(string); ok {
		t.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		t.DisplayName = name
	}

	// Keep the directory row in sync with the verified claims
	if err := d.users.UpsertUser(ctx, &store.User{
		UID:         t.UID,
		Email:       t.Email,
		DisplayName: t.DisplayName,
	}); err != nil {
		return nil, fmt.Errorf("recording user: %w", err)
	}

	return t, nil
}

// GetUser resolves a uid to its directory profile.
func (d *Directory) GetUser(ctx context.Context, uid string) (*User, error) {
	u, err := d.users.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromStoreUser(u), nil
}

// ListUsers returns every directory entry.
func (d *Directory) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := d.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]*User, len(rows))
	for i, u := range rows {
		users[i] = fromStoreUser(u)
	}
	return users, nil
}

// DeleteUser removes the user from the directory.
func (d *Directory) DeleteUser(ctx context.Context, uid string) error {
	err := d.users.DeleteUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// CustomToken mints a short-lived exchange token for the given uid.
func (d *Directory) CustomToken(ctx context.Context, uid string) (string, error) {
	if _, err := d.GetUser(ctx, uid); err != nil {
		return "", err
	}
	return d.Mint(uid, "", "", DefaultCustomTokenTTL)
}

// Mint creates a signed token for uid with the given lifetime. Used by
// CustomToken, the bootstrap command, and the admin CLI.
func (d *Directory) Mint(uid, email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": uid,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if name != "" {
		claims["name"] = name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(d.secret)
}

func fromStoreUser(u *store.User) *User {
	return &User{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		CreatedAt:   u.CreatedAt,
	}
}
