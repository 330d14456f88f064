package sessionmgr

import (
	"fmt"
	"time"

	"context"

	"github.com/google/uuid"

	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
	"github.com/faiyaz7283/dashtam-authcore/internal/enrich"
)

// Manager orchestrates session listing and revocation over a pluggable
// Backend/Audit pair, grounded on the reference's service.py
// SessionManagerService facade (backend/storage/audit/enrichers wiring).
// Session creation itself is not here — it stays inside C6's Login, which
// must issue the access token and the session row in the same call.
type Manager struct {
	Storage   Backend
	Audit     Audit
	Locator   enrich.Locator
	UAParser  enrich.UAParser
	Enrich    bool
}

func NewManager(storage Backend, audit Audit, locator enrich.Locator, uaParser enrich.UAParser, enrich bool) *Manager {
	if audit == nil {
		audit = NoopAudit{}
	}
	return &Manager{Storage: storage, Audit: audit, Locator: locator, UAParser: uaParser, Enrich: enrich}
}

// ListSessions returns userID's sessions matching filters, sorted as the
// backend returns them (most-recently-used first for the database
// backend). Offset/Limit are applied last, after filtering, per spec.md
// §4.7's pagination parameters.
func (m *Manager) ListSessions(ctx context.Context, userID uuid.UUID, filters Filters) ([]*Session, error) {
	all, err := m.Storage.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sessionmgr: list: %w", err)
	}
	now := time.Now()
	out := make([]*Session, 0, len(all))
	for _, s := range all {
		if filters.Matches(s, now) {
			out = append(out, s)
		}
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return []*Session{}, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, nil
}

// RevokeSession revokes a single session owned by userID. A session that
// does not exist and a session owned by someone else are both reported as
// NotFound, undistinguished, so a caller cannot use this endpoint to probe
// which session IDs belong to other users. An already-revoked session is
// Invalid, not NotFound: the row exists, it is just no longer actionable.
func (m *Manager) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := m.Storage.Get(ctx, sessionID)
	if err != nil || session.UserID != userID {
		return apperr.NotFound("session not found")
	}
	if session.IsRevoked {
		return apperr.Invalid("session already revoked")
	}
	if err := m.Storage.Revoke(ctx, sessionID, time.Now()); err != nil {
		return fmt.Errorf("sessionmgr: revoke: %w", err)
	}
	m.Audit.LogRevoked(ctx, sessionID, "user_requested", map[string]string{"user_id": userID.String()})
	return nil
}

// RevokeOthers revokes every session of userID except keepSessionID (the
// one making this request), implementing "log out my other devices".
func (m *Manager) RevokeOthers(ctx context.Context, userID, keepSessionID uuid.UUID) (int, error) {
	n, err := m.Storage.RevokeAllExcept(ctx, userID, keepSessionID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("sessionmgr: revoke others: %w", err)
	}
	m.Audit.LogRevoked(ctx, keepSessionID, "user_requested_others", map[string]string{"user_id": userID.String(), "count": fmt.Sprint(n)})
	return n, nil
}

// RevokeAll revokes every session of userID, including the one making the
// request — "log out everywhere". Callers that also need the user's
// min_token_version bumped (e.g. after a password change) should call
// auth.RotationService.RotateUser instead, which does both atomically;
// this method is for the plain user-initiated "log out all devices" case.
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := m.Storage.RevokeAllExcept(ctx, userID, uuid.Nil, time.Now())
	if err != nil {
		return 0, fmt.Errorf("sessionmgr: revoke all: %w", err)
	}
	m.Audit.LogRevoked(ctx, uuid.Nil, "user_requested_all", map[string]string{"user_id": userID.String(), "count": fmt.Sprint(n)})
	return n, nil
}

// RecordAccess logs a session-bearing request via the audit sink, for
// deployments that want per-request session audit trails (spec.md §4.7,
// the "optional" access-log event the reference marks verbose).
func (m *Manager) RecordAccess(ctx context.Context, sessionID uuid.UUID, meta map[string]string) {
	m.Audit.LogAccessed(ctx, sessionID, meta)
}

// Enriched returns the location and device_info strings for a new session
// from the raw IP/User-Agent, for callers (C6's Login) that want C7's
// enrichment stubs without importing internal/enrich directly. Both are
// empty when enrichment is disabled.
func (m *Manager) Enriched(ctx context.Context, ip, userAgent string) (location, deviceInfo string) {
	if !m.Enrich {
		return "", ""
	}
	if m.Locator != nil {
		if loc, err := m.Locator.Lookup(ctx, ip); err == nil {
			location = loc
		}
	}
	if m.UAParser != nil {
		deviceInfo = enrich.Describe(m.UAParser.Parse(userAgent))
	}
	return location, deviceInfo
}
