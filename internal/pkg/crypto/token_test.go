package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSessionToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.False(t, seen[token], "token collision")
		seen[token] = true
	}
}

func TestDigestToken_Deterministic(t *testing.T) {
	token, err := GenerateSessionToken()
	require.NoError(t, err)

	d1 := DigestToken(token)
	d2 := DigestToken(token)
	require.Equal(t, d1, d2)
	require.Len(t, d1, 64)
	require.NotEqual(t, token, d1)

	other, err := GenerateSessionToken()
	require.NoError(t, err)
	require.NotEqual(t, DigestToken(other), d1)
}
