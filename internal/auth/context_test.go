// ABOUTME: Tests for Principal context propagation
// ABOUTME: Covers WithPrincipal/FromContext/MustFromContext

package auth

import (
	"context"
	"testing"
)

func TestPrincipalRoundTrip(t *testing.T) {
	p := &Principal{UID: "user-1", IsAdmin: true}
	ctx := WithPrincipal(context.Background(), p)

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("expected principal")
	}
	if got.UID != "user-1" || !got.IsAdmin {
		t.Errorf("unexpected principal: %+v", got)
	}
}

func TestFromContext_Empty(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("expected nil principal for empty context")
	}
}

func TestMustFromContext_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing principal")
		}
	}()
	MustFromContext(context.Background())
}
