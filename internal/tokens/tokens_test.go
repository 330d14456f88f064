package tokens

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider() *Provider {
	return NewProvider("test-signing-secret-do-not-use-in-prod", time.Minute, time.Hour, "authcore-test")
}

func TestMakeAccess_DecodeRoundTrip(t *testing.T) {
	p := testProvider()
	userID := uuid.NewString()
	sessionID := uuid.NewString()

	tok, err := p.MakeAccess(userID, "alice@example.com", sessionID)
	require.NoError(t, err)

	claims, err := p.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.Equal(t, sessionID, claims.ID)
}

func TestRequireType_RejectsWrongType(t *testing.T) {
	p := testProvider()
	userID := uuid.NewString()

	refresh, err := p.makeLegacyRefresh(userID, uuid.NewString())
	require.NoError(t, err)

	_, err = p.RequireType(refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongType)

	claims, err := p.RequireType(refresh, TypeLegacyRefresh)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
}

func TestDecode_RejectsMalformed(t *testing.T) {
	p := testProvider()
	_, err := p.Decode("not-a-jwt-at-all")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_RejectsWrongSecret(t *testing.T) {
	p1 := testProvider()
	p2 := NewProvider("a-different-secret-entirely", time.Minute, time.Hour, "authcore-test")

	tok, err := p1.MakeAccess(uuid.NewString(), "x@example.com", "")
	require.NoError(t, err)

	_, err = p2.Decode(tok)
	assert.Error(t, err)
}

func TestIsExpired(t *testing.T) {
	// NewProvider replaces a non-positive TTL with its 30-minute default, so
	// build the Provider directly to mint an already-expired token.
	p := &Provider{secret: []byte("secret"), accessTTL: -1 * time.Second, legacyRefTTL: time.Hour, issuer: "authcore-test"}
	tok, err := p.MakeAccess(uuid.NewString(), "x@example.com", "")
	require.NoError(t, err)

	assert.True(t, p.IsExpired(tok))
}

func TestIsExpired_SwallowsDecodeFailures(t *testing.T) {
	p := testProvider()
	assert.True(t, p.IsExpired("garbage"))
}

func TestUserIDOf_SessionIDOf(t *testing.T) {
	p := testProvider()
	userID := uuid.NewString()
	sessionID := uuid.NewString()

	tok, err := p.MakeAccess(userID, "a@example.com", sessionID)
	require.NoError(t, err)

	gotUser, err := p.UserIDOf(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)

	gotSession, err := p.SessionIDOf(tok)
	require.NoError(t, err)
	assert.Equal(t, sessionID, gotSession)
}

func TestSessionIDOf_MissingClaim(t *testing.T) {
	p := testProvider()
	tok, err := p.MakeAccess(uuid.NewString(), "a@example.com", "")
	require.NoError(t, err)

	_, err = p.SessionIDOf(tok)
	assert.ErrorIs(t, err, ErrMissingClaim)
}
