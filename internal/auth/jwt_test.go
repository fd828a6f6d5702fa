package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateToken(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken("secret", "alice", "admin", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, tokenTypeAccess, claims.TokenType)
	assert.Equal(t, "warden", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken("secret", "alice", "admin", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken("secret", "alice", "admin", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	t.Parallel()

	_, err := ValidateToken("secret", "not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenCarriesType(t *testing.T) {
	t.Parallel()

	token, err := IssueRefreshToken("secret", "alice", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, tokenTypeRefresh, claims.TokenType)
}
