package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	return NewService([]Operator{
		{Name: "alice", PasswordHash: hash, Role: "admin", ExternalID: "1001"},
		{Name: "bob", PasswordHash: hash, Role: "operator"},
	}, "test-secret", time.Minute, time.Hour)
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "alice", "correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.Equal(t, "admin", claims.Role)
}

func TestService_Login_BadCredentials(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		user     string
		password string
	}{
		{"wrong password", "alice", "not it"},
		{"unknown operator", "mallory", "correct horse battery staple"},
		{"empty password", "alice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Login(ctx, tt.user, tt.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestService_LoginExternal(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	ctx := context.Background()

	pair, err := svc.LoginExternal(ctx, "1001")
	require.NoError(t, err)

	claims, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)

	// Unlinked platform accounts cannot log in even with valid OAuth.
	_, err = svc.LoginExternal(ctx, "9999")
	require.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestService_Refresh(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "bob", "correct horse battery staple")
	require.NoError(t, err)

	access, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.Validate(access)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Operator)
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc := testService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "bob", "correct horse battery staple")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Validate_RejectsRefreshToken(t *testing.T) {
	t.Parallel()

	svc := testService(t)

	pair, err := svc.Login(context.Background(), "bob", "correct horse battery staple")
	require.NoError(t, err)

	_, err = svc.Validate(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same password")
	require.NoError(t, err)
	h2, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, verifyPassword("same password", h1))
	assert.True(t, verifyPassword("same password", h2))
	assert.False(t, verifyPassword("other password", h1))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	assert.False(t, verifyPassword("anything", ""))
	assert.False(t, verifyPassword("anything", "no-separator"))
	assert.False(t, verifyPassword("anything", "nothex$deadbeef"))
}
