// Package auth authenticates dashboard operators. Credentials are
// provisioned through configuration, not self-service signup: the
// operator roster is the small, fixed set of community staff.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"
)

// Sentinel errors for the auth package.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUnknownIdentity    = errors.New("auth: identity not linked to an operator")
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Operator is one provisioned dashboard account.
type Operator struct {
	Name         string
	PasswordHash string // output of HashPassword
	Role         string
	// ExternalID links the operator to their chat-platform account for
	// OAuth login. Empty disables OAuth for this operator.
	ExternalID string
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service validates operator credentials and issues JWTs.
type Service struct {
	byName     map[string]Operator
	byExternal map[string]Operator
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates the auth service over a fixed operator roster.
func NewService(operators []Operator, jwtSecret string, accessTTL, refreshTTL time.Duration) *Service {
	s := &Service{
		byName:     make(map[string]Operator, len(operators)),
		byExternal: make(map[string]Operator),
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
	for _, op := range operators {
		s.byName[op.Name] = op
		if op.ExternalID != "" {
			s.byExternal[op.ExternalID] = op
		}
	}
	return s
}

// Login validates name/password and returns access + refresh JWT tokens.
// Unknown names and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(_ context.Context, name, password string) (*TokenPair, error) {
	op, ok := s.byName[name]
	if !ok || !verifyPassword(password, op.PasswordHash) {
		return nil, fmt.Errorf("auth.Service.Login: %w", ErrInvalidCredentials)
	}

	return s.issuePair(op)
}

// LoginExternal issues tokens for a platform identity already verified by
// the OAuth provider. The identity must be linked to a provisioned
// operator.
func (s *Service) LoginExternal(_ context.Context, externalID string) (*TokenPair, error) {
	op, ok := s.byExternal[externalID]
	if !ok {
		return nil, fmt.Errorf("auth.Service.LoginExternal: %w", ErrUnknownIdentity)
	}

	return s.issuePair(op)
}

// Refresh validates a refresh token and issues a new access token.
func (s *Service) Refresh(_ context.Context, refreshToken string) (string, error) {
	claims, err := ValidateToken(s.jwtSecret, refreshToken)
	if err != nil {
		return "", fmt.Errorf("auth.Service.Refresh: %w", err)
	}

	if claims.TokenType != tokenTypeRefresh {
		return "", fmt.Errorf("auth.Service.Refresh: %w", ErrInvalidToken)
	}

	// The operator must still be provisioned; roster changes revoke
	// outstanding refresh tokens.
	op, ok := s.byName[claims.Operator]
	if !ok {
		return "", fmt.Errorf("auth.Service.Refresh: %w", ErrInvalidCredentials)
	}

	access, err := IssueAccessToken(s.jwtSecret, op.Name, op.Role, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("auth.Service.Refresh: %w", err)
	}

	return access, nil
}

// Validate checks an access token and returns its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtSecret, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("auth.Service.Validate: %w", ErrInvalidToken)
	}
	return claims, nil
}

func (s *Service) issuePair(op Operator) (*TokenPair, error) {
	access, err := IssueAccessToken(s.jwtSecret, op.Name, op.Role, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("auth.Service.issuePair: %w", err)
	}

	refresh, err := IssueRefreshToken(s.jwtSecret, op.Name, op.Role, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("auth.Service.issuePair: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// HashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	// Split salt$hash
	var saltHex, hashHex string
	for i := range len(encoded) {
		if encoded[i] == '$' {
			saltHex = encoded[:i]
			hashHex = encoded[i+1:]
			break
		}
	}

	if saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expectedHash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Constant-time comparison to prevent timing attacks.
	if len(computed) != len(expectedHash) {
		return false
	}

	var diff byte
	for i := range computed {
		diff |= computed[i] ^ expectedHash[i]
	}

	return diff == 0
}
