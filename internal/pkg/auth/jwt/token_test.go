package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoutsync/internal/app/session"
)

const testSecret = "test-secret-key"

func TestTokenRoundTrip(t *testing.T) {
	tokenString, err := GenerateToken("user-1", "Alice", session.RoleEditor, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ParseToken(tokenString, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Alice", claims.UserName)
	assert.Equal(t, session.RoleEditor, claims.Role)
	assert.Equal(t, TokenIssuer, claims.Issuer)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tokenString, err := GenerateToken("user-1", "Alice", session.RoleEditor, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tokenString, "a-different-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tokenString, err := GenerateToken("user-1", "Alice", session.RoleEditor, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(tokenString, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestParseTokenRequiresIdentity(t *testing.T) {
	tokenString, err := GenerateToken("", "Nameless", session.RoleViewer, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tokenString, testSecret)
	assert.Error(t, err)
}
