package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashVerifyRoundTrip(t *testing.T) {
	h := NewBcryptHasher(4) // low cost: fast tests
	hash, err := h.Hash("Tr0ub4dor&3")
	require.NoError(t, err)

	assert.True(t, h.Verify("Tr0ub4dor&3", hash))
	assert.False(t, h.Verify("wrong-password", hash))
}

func TestBcryptHasher_Truncation(t *testing.T) {
	h := NewBcryptHasher(4)
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	long[99] = 'Z' // outside the 72-byte retained prefix

	hash, err := h.Hash(string(long))
	require.NoError(t, err)

	truncatedVariant := make([]byte, 100)
	copy(truncatedVariant, long)
	truncatedVariant[99] = 'Q' // differs only past byte 72

	assert.True(t, h.Verify(string(truncatedVariant), hash))
}

func TestBcryptHasher_NeedsRehash(t *testing.T) {
	low := NewBcryptHasher(4)
	hash, err := low.Hash("Tr0ub4dor&3")
	require.NoError(t, err)

	assert.False(t, low.NeedsRehash(hash))

	high := NewBcryptHasher(6)
	assert.True(t, high.NeedsRehash(hash))
}

func TestValidateStrength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOK  bool
		wantMsg string
	}{
		{"exactly 8 chars passes length", "Abcdef1!", true, ""},
		{"7 chars fails length", "Abcde1!", false, "at least 8 characters"},
		{"missing uppercase", "abcdefg1!", false, "uppercase"},
		{"missing lowercase", "ABCDEFG1!", false, "lowercase"},
		{"missing digit", "Abcdefgh!", false, "digit"},
		{"missing special", "Abcdefgh1", false, "special character"},
		{"valid strong password", "C0mpl3x!Pass", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateStrength(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantMsg != "" {
				assert.Contains(t, msg, tt.wantMsg)
			}
		})
	}
}

func TestGenerateRandom_PassesPolicy(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GenerateRandom(16)
		require.NoError(t, err)
		ok, msg := ValidateStrength(pw)
		assert.True(t, ok, "generated password failed policy: %s (%s)", pw, msg)
	}
}

func TestGenerateRandom_MinimumLength(t *testing.T) {
	pw, err := GenerateRandom(2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(pw), 8)
}
