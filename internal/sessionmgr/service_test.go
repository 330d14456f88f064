package sessionmgr

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

func seed(backend *MemoryBackend, userID uuid.UUID, revoked bool) *store.RefreshToken {
	s := &store.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
		IsRevoked: revoked,
		CreatedAt: time.Now(),
	}
	backend.Seed(s)
	return s
}

func TestListSessions_Pagination(t *testing.T) {
	backend := NewMemoryBackend()
	manager := NewManager(backend, NoopAudit{}, nil, nil, false)
	userID := uuid.New()
	for i := 0; i < 5; i++ {
		seed(backend, userID, false)
	}

	page, err := manager.ListSessions(context.Background(), userID, Filters{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = manager.ListSessions(context.Background(), userID, Filters{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestFilters_LocationIsSubstringMatch(t *testing.T) {
	loc := "San Francisco, US"
	s := &store.RefreshToken{Location: &loc}
	f := Filters{Location: "francisco"}
	assert.True(t, f.Matches(s, time.Now()))

	f = Filters{Location: "berlin"}
	assert.False(t, f.Matches(s, time.Now()))
}

func TestRevokeSession_OtherUsersSessionIsNotFound(t *testing.T) {
	backend := NewMemoryBackend()
	manager := NewManager(backend, NoopAudit{}, nil, nil, false)
	owner := uuid.New()
	session := seed(backend, owner, false)

	err := manager.RevokeSession(context.Background(), uuid.New(), session.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRevokeSession_AlreadyRevokedIsInvalid(t *testing.T) {
	backend := NewMemoryBackend()
	manager := NewManager(backend, NoopAudit{}, nil, nil, false)
	userID := uuid.New()
	session := seed(backend, userID, true)

	err := manager.RevokeSession(context.Background(), userID, session.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestRevokeSession_UnknownIDIsNotFound(t *testing.T) {
	backend := NewMemoryBackend()
	manager := NewManager(backend, NoopAudit{}, nil, nil, false)

	err := manager.RevokeSession(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
