package sessionmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

// Backend is the storage strategy interface, grounded on the reference's
// storage/base.py SessionStorage ABC (list/get/revoke, no create — creation
// stays C5/C6's responsibility since it must share a transaction with
// token issuance).
type Backend interface {
	List(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Revoke(ctx context.Context, sessionID uuid.UUID, at time.Time) error
	RevokeAllExcept(ctx context.Context, userID, keepID uuid.UUID, at time.Time) (int, error)
}

// DatabaseBackend is the canonical, correctness-critical Backend: every
// deployment of this module runs this one, since C5/C6 already treat
// Postgres as the source of truth for session validity. Grounded on the
// reference's storage/database.py.
type DatabaseBackend struct {
	Store *store.Store
}

func NewDatabaseBackend(s *store.Store) *DatabaseBackend {
	return &DatabaseBackend{Store: s}
}

func (b *DatabaseBackend) List(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	return b.Store.ListNonRevokedForUser(ctx, b.Store.Pool, userID)
}

func (b *DatabaseBackend) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return b.Store.GetRefreshTokenByID(ctx, b.Store.Pool, sessionID)
}

func (b *DatabaseBackend) Revoke(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	return b.Store.RevokeRefreshToken(ctx, b.Store.Pool, sessionID, at)
}

func (b *DatabaseBackend) RevokeAllExcept(ctx context.Context, userID, keepID uuid.UUID, at time.Time) (int, error) {
	return b.Store.RevokeAllForUserExcept(ctx, b.Store.Pool, userID, keepID, at)
}

// CacheBackend fronts a DatabaseBackend with a read-through cache of each
// user's session list, grounded on the reference's storage/cache.py
// CacheSessionStorage (cache-agnostic via the cache.Cache interface this
// module already defines) — adapted from "cache is the source of truth" to
// "cache accelerates reads, writes still go to Postgres", since this
// module's refresh-token table backs live authentication decisions that
// must never depend on cache availability.
type CacheBackend struct {
	Database *DatabaseBackend
	Cache    cache.Cache
	TTL      time.Duration
}

func NewCacheBackend(db *DatabaseBackend, c cache.Cache, ttl time.Duration) *CacheBackend {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheBackend{Database: db, Cache: c, TTL: ttl}
}

func cacheKey(userID uuid.UUID) string {
	return "session:list:" + userID.String()
}

func (b *CacheBackend) List(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	if raw, ok, err := b.Cache.Get(ctx, cacheKey(userID)); err == nil && ok {
		var sessions []*Session
		if json.Unmarshal([]byte(raw), &sessions) == nil {
			return sessions, nil
		}
	}

	sessions, err := b.Database.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(sessions); err == nil {
		_ = b.Cache.Set(ctx, cacheKey(userID), string(encoded), b.TTL)
	}
	return sessions, nil
}

func (b *CacheBackend) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	return b.Database.Get(ctx, sessionID)
}

func (b *CacheBackend) Revoke(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	s, err := b.Database.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := b.Database.Revoke(ctx, sessionID, at); err != nil {
		return err
	}
	_ = b.Cache.Delete(ctx, cacheKey(s.UserID))
	return nil
}

func (b *CacheBackend) RevokeAllExcept(ctx context.Context, userID, keepID uuid.UUID, at time.Time) (int, error) {
	n, err := b.Database.RevokeAllExcept(ctx, userID, keepID, at)
	if err != nil {
		return 0, err
	}
	_ = b.Cache.Delete(ctx, cacheKey(userID))
	return n, nil
}

// MemoryBackend is a process-local, independent Backend implementation
// (not a cache in front of Postgres) for tests and single-process dev
// environments, grounded on the reference's storage/memory.py
// InMemorySessionStorage.
type MemoryBackend struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[uuid.UUID]*Session)}
}

// Seed inserts a session directly, for test setup.
func (b *MemoryBackend) Seed(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[s.ID] = s
}

func (b *MemoryBackend) List(_ context.Context, userID uuid.UUID) ([]*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Session
	for _, s := range b.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *MemoryBackend) Get(_ context.Context, sessionID uuid.UUID) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[sessionID]
	if !ok {
		return nil, store.ErrRefreshTokenNotFound
	}
	return s, nil
}

func (b *MemoryBackend) Revoke(_ context.Context, sessionID uuid.UUID, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[sessionID]
	if !ok {
		return fmt.Errorf("sessionmgr: revoke: %w", store.ErrRefreshTokenNotFound)
	}
	s.IsRevoked = true
	s.RevokedAt = &at
	return nil
}

func (b *MemoryBackend) RevokeAllExcept(_ context.Context, userID, keepID uuid.UUID, at time.Time) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.sessions {
		if s.UserID == userID && s.ID != keepID && !s.IsRevoked {
			s.IsRevoked = true
			s.RevokedAt = &at
			n++
		}
	}
	return n, nil
}
