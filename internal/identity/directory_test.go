// ABOUTME: Tests for the Directory identity provider
// ABOUTME: Covers token verification, claim extraction, directory sync, and minting

package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/itayeylath/spotter-backend/internal/store"
)

// testSecret is a 32-byte secret that meets MinSecretLength.
var testSecret = []byte("identity-test-secret-32-bytes!!!")

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	d, err := NewDirectory(testSecret, s)
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	return d
}

func TestNewDirectory_ShortSecret(t *testing.T) {
	if _, err := NewDirectory([]byte("too-short"), nil); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	raw, err := d.Mint("user-123", "u@example.com", "User", time.Hour)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	token, err := d.VerifyToken(ctx, raw)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if token.UID != "user-123" {
		t.Errorf("expected uid 'user-123', got %q", token.UID)
	}
	if token.Email != "u@example.com" || token.DisplayName != "User" {
		t.Errorf("unexpected claims: %+v", token)
	}

	// Verification records the user in the directory
	user, err := d.GetUser(ctx, "user-123")
	if err != nil {
		t.Fatalf("GetUser after verify: %v", err)
	}
	if user.Email != "u@example.com" {
		t.Errorf("directory row not synced: %+v", user)
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.VerifyToken(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	d := newTestDirectory(t)

	raw, err := d.Mint("user-123", "", "", -time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	_, err = d.VerifyToken(context.Background(), raw)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	d := newTestDirectory(t)

	other, _ := NewDirectory([]byte("another-32-byte-secret-here!!!!!"), nil)
	raw, _ := other.Mint("user-123", "", "", time.Hour)

	if _, err := d.VerifyToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyToken_MissingSub(t *testing.T) {
	d := newTestDirectory(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, _ := token.SignedString(testSecret)

	if _, err := d.VerifyToken(context.Background(), raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for missing sub, got %v", err)
	}
}

func TestVerifyToken_RejectsNoneAlgorithm(t *testing.T) {
	d := newTestDirectory(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-123"})
	raw, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)

	if _, err := d.VerifyToken(context.Background(), raw); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestCustomToken(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	// Unknown uid cannot get a token
	if _, err := d.CustomToken(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	// Register via verification, then mint
	raw, _ := d.Mint("user-123", "", "", time.Hour)
	if _, err := d.VerifyToken(ctx, raw); err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}

	custom, err := d.CustomToken(ctx, "user-123")
	if err != nil {
		t.Fatalf("CustomToken: %v", err)
	}
	token, err := d.VerifyToken(ctx, custom)
	if err != nil {
		t.Fatalf("verifying custom token: %v", err)
	}
	if token.UID != "user-123" {
		t.Errorf("expected uid 'user-123', got %q", token.UID)
	}
}

func TestDeleteUser(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	raw, _ := d.Mint("user-123", "", "", time.Hour)
	d.VerifyToken(ctx, raw)

	if err := d.DeleteUser(ctx, "user-123"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := d.GetUser(ctx, "user-123"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound after delete, got %v", err)
	}
	if err := d.DeleteUser(ctx, "user-123"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound on repeat delete, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	for _, uid := range []string{"a", "b", "c"} {
		raw, _ := d.Mint(uid, "", "", time.Hour)
		if _, err := d.VerifyToken(ctx, raw); err != nil {
			t.Fatalf("VerifyToken(%s): %v", uid, err)
		}
	}

	users, err := d.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}
}
