// Package sessionapi implements component C8: the HTTP surface over
// internal/sessionmgr — list/revoke/revoke_others/revoke_all — grounded
// on the reference's internal/api/session_handlers.go, extended with
// revoke_others/revoke_all and a cache-backed revocation blacklist
// (absent in the reference, which relies solely on the database check).
package sessionapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/helpers"
	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/sessionmgr"
)

// Handler wraps a *sessionmgr.Manager with HTTP handlers. Blacklist, when
// non-nil, receives a revoked_token:{session_id} write whenever Revoke
// revokes a single session — an accelerator so callers holding a
// still-unexpired access token get rejected without a round trip to the
// database (spec.md §6 persisted state: "cache entries holding
// revoked-session markers ... TTL equal to the remaining session
// lifetime"). RevokeOthers and RevokeAll revoke in the database only and
// write no markers.
type Handler struct {
	Manager   *sessionmgr.Manager
	Blacklist cache.Cache
}

func New(manager *sessionmgr.Manager, blacklist cache.Cache) *Handler {
	return &Handler{Manager: manager, Blacklist: blacklist}
}

func (h *Handler) blacklistSession(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) {
	if h.Blacklist == nil || sessionID == uuid.Nil {
		return
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	_ = h.Blacklist.Set(ctx, fmt.Sprintf("revoked_token:%s", sessionID), "1", ttl)
}

type sessionView struct {
	ID          uuid.UUID  `json:"id"`
	DeviceInfo  string     `json:"device_info"`
	Location    *string    `json:"location"`
	IPAddress   *string    `json:"ip_address,omitempty"`
	LastActivity *time.Time `json:"last_activity"`
	CreatedAt   time.Time  `json:"created_at"`
	IsCurrent   bool       `json:"is_current"`
	IsTrusted   bool       `json:"is_trusted"`
}

func toView(s *sessionmgr.Session, currentID uuid.UUID) sessionView {
	return sessionView{
		ID:           s.ID,
		DeviceInfo:   s.DeviceInfo,
		Location:     s.Location,
		IPAddress:    s.IPAddress,
		LastActivity: s.LastUsedAt,
		CreatedAt:    s.CreatedAt,
		IsCurrent:    s.ID == currentID,
		IsTrusted:    s.IsTrustedDevice,
	}
}

// List handles GET /auth/sessions. offset/limit are optional query
// parameters (spec.md §4.7); a missing or malformed value imposes no
// pagination constraint rather than rejecting the request.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	currentID, _ := middleware.GetSessionID(r.Context())

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	sessions, err := h.Manager.ListSessions(r.Context(), userID, sessionmgr.Filters{ActiveOnly: true, Offset: offset, Limit: limit})
	if err != nil {
		helpers.RespondAppError(w, apperr.Internal("failed to list sessions", err))
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, toView(s, currentID))
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"sessions":    views,
		"total_count": len(views),
	})
}

// Revoke handles DELETE /auth/sessions/{id}. Revoking the session making
// this very request is rejected outright (400): the caller still holds a
// live access token bound to that session and must use logout instead,
// which tears down the session it is actually presenting (spec.md §4.8).
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	currentID, _ := middleware.GetSessionID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		helpers.RespondAppError(w, apperr.Invalid("invalid session id"))
		return
	}
	if sessionID == currentID {
		helpers.RespondAppError(w, apperr.Invalid("cannot revoke the current session; use logout instead"))
		return
	}

	session, getErr := h.Manager.Storage.Get(r.Context(), sessionID)
	if err := h.Manager.RevokeSession(r.Context(), userID, sessionID); err != nil {
		helpers.RespondAppError(w, err)
		return
	}
	if getErr == nil {
		h.blacklistSession(r.Context(), sessionID, session.ExpiresAt)
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "session revoked"})
}

// RevokeOthers handles DELETE /auth/sessions/others/revoke.
func (h *Handler) RevokeOthers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())
	currentID, _ := middleware.GetSessionID(r.Context())

	n, err := h.Manager.RevokeOthers(r.Context(), userID, currentID)
	if err != nil {
		helpers.RespondAppError(w, apperr.Internal("failed to revoke other sessions", err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"message":       "other sessions revoked",
		"revoked_count": n,
	})
}

// RevokeAll handles DELETE /auth/sessions/all/revoke.
func (h *Handler) RevokeAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	n, err := h.Manager.RevokeAll(r.Context(), userID)
	if err != nil {
		helpers.RespondAppError(w, apperr.Internal("failed to revoke sessions", err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"message":       "all sessions revoked",
		"revoked_count": n,
	})
}
