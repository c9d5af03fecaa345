// ABOUTME: Tests for the admin registry
// ABOUTME: Covers membership, deduplication, and copy semantics of UIDs

package auth

import "testing"

func TestRegistry_Membership(t *testing.T) {
	r := NewRegistry([]string{"admin123", "admin456"})

	if !r.IsAdmin("admin123") {
		t.Error("admin123 should be an admin")
	}
	if r.IsAdmin("user789") {
		t.Error("user789 should not be an admin")
	}
	if r.IsAdmin("") {
		t.Error("empty uid should never be an admin")
	}
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry(nil)

	if r.IsAdmin("anyone") {
		t.Error("empty registry grants nothing")
	}
	if len(r.UIDs()) != 0 {
		t.Errorf("expected no uids, got %v", r.UIDs())
	}
}

func TestRegistry_DedupAndOrder(t *testing.T) {
	r := NewRegistry([]string{"a", "b", "a", "", "c"})

	uids := r.UIDs()
	want := []string{"a", "b", "c"}
	if len(uids) != len(want) {
		t.Fatalf("expected %v, got %v", want, uids)
	}
	for i := range want {
		if uids[i] != want[i] {
			t.Errorf("uid %d: expected %q, got %q", i, want[i], uids[i])
		}
	}
}

func TestRegistry_UIDsIsACopy(t *testing.T) {
	r := NewRegistry([]string{"a", "b"})

	uids := r.UIDs()
	uids[0] = "mutated"

	if r.UIDs()[0] != "a" {
		t.Error("mutating the returned slice must not affect the registry")
	}
}
