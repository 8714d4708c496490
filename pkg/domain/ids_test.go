package domain

import (
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custody/pkg/domain-errors"
)

func identityFrom(b byte) Identity {
	var id Identity
	for i := range id {
		id[i] = b
	}
	return id
}

// TestParseIdentity_Invariants validates the parsing invariant:
// "identities are 32 non-zero bytes in base58"
func TestParseIdentity_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non base58 input", func(t *testing.T) {
		_, err := ParseIdentity("0OIl")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseIdentity(base58.Encode([]byte{1, 2, 3}))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero identity", func(t *testing.T) {
		_, err := ParseIdentity(Identity{}.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts and round-trips a valid identity", func(t *testing.T) {
		want := identityFrom(7)
		got, err := ParseIdentity(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestParseAssetID(t *testing.T) {
	t.Run("zero asset is the native asset", func(t *testing.T) {
		a, err := ParseAssetID(NativeAsset.String())
		require.NoError(t, err)
		assert.True(t, a.IsNative())
	})

	t.Run("rejects oversized input", func(t *testing.T) {
		_, err := ParseAssetID(strings.Repeat("z", 100))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestParseBytes32(t *testing.T) {
	_, err := ParseBytes32("abcd")
	require.Error(t, err)

	v, err := ParseBytes32(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), v[31])
}

func TestParseTimeLockID(t *testing.T) {
	id := NewTimeLockID()
	parsed, err := ParseTimeLockID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseTimeLockID("00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
}

func TestIdentityTextRoundTrip(t *testing.T) {
	want := identityFrom(42)
	text, err := want.MarshalText()
	require.NoError(t, err)

	var got Identity
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, want, got)
}
