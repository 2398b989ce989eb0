package sso

import (
	"strings"
	"testing"
	"time"

	"github.com/coopsite/apiserver/config"
	"github.com/coopsite/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.SSOConfig {
	return config.SSOConfig{
		Secret:   "test-sso-secret",
		BaseURL:  "http://localhost:5000",
		Issuer:   "coopsite-backend",
		Audience: "chat-service",
		TokenTTL: 60 * time.Second,
	}
}

func testUser() types.User {
	return types.User{ID: 7, Email: "member@example.com", Role: types.RoleCommittee}
}

func parseToken(t *testing.T, token, secret string) *Claims {
	t.Helper()
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (any, error) {
		require.IsType(t, &jwt.SigningMethodHMAC{}, token.Method)
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims
}

func TestIssueClaims(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	claims := parseToken(t, token, cfg.Secret)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "member@example.com", claims.Email)
	assert.Equal(t, types.RoleCommittee, claims.Role)
	assert.Equal(t, "coopsite-backend", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"chat-service"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 60*time.Second, lifetime)
}

func TestIssueUniqueTokenIDs(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)

	first, err := issuer.Issue(testUser())
	require.NoError(t, err)
	second, err := issuer.Issue(testUser())
	require.NoError(t, err)

	firstClaims := parseToken(t, first, cfg.Secret)
	secondClaims := parseToken(t, second, cfg.Secret)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestIssueWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = ""
	issuer := NewIssuer(cfg)

	_, err := issuer.Issue(testUser())
	assert.ErrorIs(t, err, ErrNoSigningSecret)

	_, err = issuer.RedirectURL(testUser())
	assert.ErrorIs(t, err, ErrNoSigningSecret)
}

func TestRedirectURL(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)

	redirect, err := issuer.RedirectURL(testUser())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(redirect, "http://localhost:5000/auth/consume?token="))

	token := strings.TrimPrefix(redirect, "http://localhost:5000/auth/consume?token=")
	claims := parseToken(t, token, cfg.Secret)
	assert.Equal(t, "7", claims.Subject)
}

func TestEnabled(t *testing.T) {
	cfg := testConfig()
	assert.True(t, NewIssuer(cfg).Enabled())

	cfg.BaseURL = ""
	assert.False(t, NewIssuer(cfg).Enabled())
}
