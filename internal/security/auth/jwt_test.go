package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "", time.Minute)

	token, err := tm.GenerateToken(7, "LIB002", "user@library.com", "USER")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "LIB002", claims.LibraryID)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", "librarydesk", time.Minute)
	token, err := tm.GenerateToken(1, "LIB001", "admin@library.com", "ADMIN")
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", "librarydesk", time.Minute).ValidateToken(token)
	assert.Error(t, err, "Should reject a token signed with another key")

	_, err = NewTokenManager("secret", "someone-else", time.Minute).ValidateToken(token)
	assert.Error(t, err, "Should reject a token from another issuer")

	_, err = tm.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestGenerateTokenRequiresIdentity(t *testing.T) {
	tm := NewTokenManager("secret", "", 0)
	_, err := tm.GenerateToken(0, "", "", "USER")
	assert.Error(t, err)
	assert.Equal(t, time.Hour, tm.TTL())
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		_, err := ExtractToken(h)
		assert.Error(t, err, h)
	}
}
