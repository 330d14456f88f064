// Package sessionmgr implements C7: session listing/revocation
// orchestration over the refresh-token rows C2/C5 already persist. The
// reference's session_manager tree is flattened into this one package:
// storage.go, audit.go, factory.go, service.go and models.go. Its
// backends/ layer is dropped — this module has exactly one session shape,
// the database row, so there is no JWT-vs-database backend choice to make
// — and the enrichers live in internal/enrich.
package sessionmgr

import (
	"strings"
	"time"

	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

// Session is a session-management view of a refresh-token row. It is a
// plain alias, not a copy: C7 never maintains a second source of truth for
// session state, grounded on the reference's SessionBase being the same
// entity the backend and storage layers both operate on.
type Session = store.RefreshToken

// Filters narrows ListSessions results, grounded on the reference's
// SessionFilters dataclass ("typed query parameters", not a DB model).
// Matching happens in Go after the storage Backend returns a user's rows;
// none of the backends push these down into SQL, since a user's session
// count is always small.
type Filters struct {
	ActiveOnly    bool
	DeviceType    string
	IPAddress     string
	Location      string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	IsTrusted     *bool
	Offset        int
	Limit         int
}

// Matches reports whether s satisfies f. An empty field in f imposes no
// constraint.
func (f Filters) Matches(s *Session, now time.Time) bool {
	if f.ActiveOnly && (s.IsRevoked || !now.Before(s.ExpiresAt)) {
		return false
	}
	if f.IPAddress != "" && (s.IPAddress == nil || *s.IPAddress != f.IPAddress) {
		return false
	}
	if f.Location != "" && (s.Location == nil || !strings.Contains(strings.ToLower(*s.Location), strings.ToLower(f.Location))) {
		return false
	}
	if f.CreatedAfter != nil && s.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && s.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	if f.IsTrusted != nil && s.IsTrustedDevice != *f.IsTrusted {
		return false
	}
	if f.DeviceType != "" && !strings.Contains(strings.ToLower(s.DeviceInfo), strings.ToLower(f.DeviceType)) {
		return false
	}
	return true
}
