package passcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Deterministic(t *testing.T) {
	for _, raw := range []string{"a", "hunter2", "correct horse battery staple", "ñandú-🙂"} {
		first, err := Hash(raw)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Hash(raw)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
		assert.Len(t, first, 64)
	}
}

func TestHash_KnownDigest(t *testing.T) {
	got, err := Hash("abc")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)
}

func TestHash_RejectsEmpty(t *testing.T) {
	_, err := Hash("")
	assert.ErrorIs(t, err, ErrEmptyPasscode)
}

func TestVerify(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)
	empty := ""

	assert.True(t, Verify(nil, ""), "no passcode set grants access by ID alone")
	assert.True(t, Verify(&empty, "anything"))
	assert.True(t, Verify(&hash, "s3cret"))
	assert.False(t, Verify(&hash, "S3cret"))
	assert.False(t, Verify(&hash, ""))
	assert.False(t, Verify(&hash, hash), "the stored hash itself is not a passcode")
}

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		assert.True(t, LooksLikeID(id), id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNormalizeAndLooksLikeID(t *testing.T) {
	assert.Equal(t, "CMP-ABCD2345", NormalizeID("  cmp-abcd2345 "))
	assert.True(t, LooksLikeID("CMP-ABCD2345"))
	assert.False(t, LooksLikeID("CMP-ABCD234"))
	assert.False(t, LooksLikeID("CMP-ABCD2340"), "0 is not in the alphabet")
	assert.False(t, LooksLikeID("XYZ-ABCD2345"))
}
