package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AllowsUpToLimit(t *testing.T) {
	store := NewMemoryStore()
	rule := Rule{Limit: 3, Window: time.Minute, Scope: ScopeIP}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		dec, err := store.Allow(context.Background(), "ratelimit:login:1.2.3.4", rule, now)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, rule.Limit-(i+1), dec.Remaining)
	}

	dec, err := store.Allow(context.Background(), "ratelimit:login:1.2.3.4", rule, now)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
	assert.Equal(t, rule.Window, dec.RetryAfter)
}

func TestMemoryStore_WindowResets(t *testing.T) {
	store := NewMemoryStore()
	rule := Rule{Limit: 1, Window: time.Minute, Scope: ScopeIP}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	dec, err := store.Allow(context.Background(), "k", rule, now)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	dec, err = store.Allow(context.Background(), "k", rule, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)

	dec, err = store.Allow(context.Background(), "k", rule, now.Add(61*time.Second))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	rule := Rule{Limit: 1, Window: time.Minute, Scope: ScopeIP}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	dec, err := store.Allow(context.Background(), "k1", rule, now)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	dec, err = store.Allow(context.Background(), "k2", rule, now)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	rule := Rule{Limit: 1, Window: time.Minute, Scope: ScopeIP}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Allow(context.Background(), "k", rule, now)
	require.NoError(t, err)
	assert.Len(t, store.buckets, 1)

	store.Sweep(now.Add(2 * time.Minute))
	assert.Empty(t, store.buckets)
}

func TestLimiter_Check_NoRuleAllowsUnmetered(t *testing.T) {
	l := New(NewMemoryStore(), map[string]Rule{})
	dec, matched := l.Check(context.Background(), "GET /health", "1.2.3.4", time.Now())
	assert.False(t, matched)
	assert.True(t, dec.Allowed)
}

func TestLimiter_Check_EnforcesConfiguredRule(t *testing.T) {
	rules := map[string]Rule{
		"POST /auth/login": {Limit: 1, Window: time.Minute, Scope: ScopeIP},
	}
	l := New(NewMemoryStore(), rules)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	dec, matched := l.Check(context.Background(), "POST /auth/login", "1.2.3.4", now)
	assert.True(t, matched)
	assert.True(t, dec.Allowed)

	dec, matched = l.Check(context.Background(), "POST /auth/login", "1.2.3.4", now)
	assert.True(t, matched)
	assert.False(t, dec.Allowed)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, Rule, time.Time) (Decision, error) {
	return Decision{}, assert.AnError
}

func TestLimiter_Check_FailsOpenOnStoreError(t *testing.T) {
	rules := map[string]Rule{"POST /auth/login": {Limit: 1, Window: time.Minute, Scope: ScopeIP}}
	l := New(failingStore{}, rules)

	dec, matched := l.Check(context.Background(), "POST /auth/login", "1.2.3.4", time.Now())
	assert.True(t, matched)
	assert.True(t, dec.Allowed)
}

func TestKey_IsComposite(t *testing.T) {
	assert.Equal(t, "ratelimit:POST /auth/login:1.2.3.4", Key("POST /auth/login", "1.2.3.4"))
}
