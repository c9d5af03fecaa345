// ABOUTME: Admin registry holding the set of uids with admin access
// ABOUTME: Built once at startup from configuration and immutable afterwards

package auth

// Registry is the process-wide set of admin uids. It is constructed once
// from configuration and never mutated; changing membership requires a
// restart. Pass it explicitly to whatever needs an admin check instead of
// consulting the environment.
type Registry struct {
	uids    map[string]struct{}
	ordered []string
}

// NewRegistry builds a Registry from the configured uid list. Duplicates
// are collapsed; order of first appearance is preserved for listing.
func NewRegistry(uids []string) *Registry {
	r := &Registry{uids: make(map[string]struct{}, len(uids))}
	for _, uid := range uids {
		if uid == "" {
			continue
		}
		if _, seen := r.uids[uid]; seen {
			continue
		}
		r.uids[uid] = struct{}{}
		r.ordered = append(r.ordered, uid)
	}
	return r
}

// IsAdmin reports whether uid is in the registry.
func (r *Registry) IsAdmin(uid string) bool {
	_, ok := r.uids[uid]
	return ok
}

// UIDs returns the registered admin uids in configuration order. The
// returned slice is a copy; callers cannot mutate the registry through it.
func (r *Registry) UIDs() []string {
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}
