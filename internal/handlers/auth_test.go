package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coopsite/apiserver/config"
	"github.com/coopsite/apiserver/internal/services"
	"github.com/coopsite/apiserver/internal/session"
	"github.com/coopsite/apiserver/internal/sso"
	"github.com/coopsite/apiserver/internal/store/storefake"
	"github.com/coopsite/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	router *chi.Mux
	users  *services.UserService
	admin  types.User
}

func newAuthFixture(t *testing.T, ssoCfg config.SSOConfig) *authFixture {
	t.Helper()

	userRepo := storefake.NewUserRepo()
	userService := services.NewUserService(userRepo)

	admin, err := userService.Create(context.Background(), types.User{
		Email: "admin@example.com",
		Name:  "Site Administrator",
		Role:  types.RoleAdmin,
	}, "12345678")
	require.NoError(t, err)

	sessionManager, err := services.NewSessionManager(session.NewMemoryRepo(), userRepo, config.SessionConfig{
		Secret:     "test-session-secret",
		CookieName: "coopsite_session",
	})
	require.NoError(t, err)

	handler := NewAuthHandler(
		userService,
		sessionManager,
		sso.NewIssuer(ssoCfg),
		nil,
		"http://localhost:5173",
		zerolog.Nop(),
	)

	router := chi.NewRouter()
	AuthRouter(router, handler)

	return &authFixture{router: router, users: userService, admin: admin}
}

func postLogin(t *testing.T, router *chi.Mux, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeLogin(t *testing.T, rec *httptest.ResponseRecorder) LoginResponse {
	t.Helper()
	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestLoginSuccessWithoutSSO(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	rec := postLogin(t, fixture.router, "admin@example.com", "12345678")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeLogin(t, rec)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Redirect)
	require.NotNil(t, resp.User)
	assert.Equal(t, fixture.admin.ID, resp.User.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "coopsite_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginPasswordHashNotExposed(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	rec := postLogin(t, fixture.router, "admin@example.com", "12345678")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLoginInvalidCredentials(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	for _, attempt := range []struct{ email, password string }{
		{"admin@example.com", "wrong-password"},
		{"nobody@example.com", "12345678"},
	} {
		rec := postLogin(t, fixture.router, attempt.email, attempt.password)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		resp := decodeLogin(t, rec)
		assert.False(t, resp.OK)
		// Same message for unknown email and wrong password.
		assert.Equal(t, "invalid credentials", resp.Message)
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestLoginMissingFields(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	rec := postLogin(t, fixture.router, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSSORedirect(t *testing.T) {
	ssoCfg := config.SSOConfig{
		Secret:   "test-sso-secret",
		BaseURL:  "http://localhost:5000",
		Issuer:   "coopsite-backend",
		Audience: "chat-service",
		TokenTTL: 60 * time.Second,
	}
	fixture := newAuthFixture(t, ssoCfg)

	rec := postLogin(t, fixture.router, "admin@example.com", "12345678")
	require.Equal(t, http.StatusOK, rec.Code)

	// The session cookie is set alongside the redirect.
	require.Len(t, rec.Result().Cookies(), 1)

	resp := decodeLogin(t, rec)
	require.True(t, resp.OK)
	require.True(t, strings.HasPrefix(resp.Redirect, "http://localhost:5000/auth/consume?token="))

	parsed, err := url.Parse(resp.Redirect)
	require.NoError(t, err)
	tokenString := parsed.Query().Get("token")
	require.NotEmpty(t, tokenString)

	claims := &sso.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(ssoCfg.Secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, jwt.ClaimStrings{"chat-service"}, claims.Audience)
}

func TestLoginSSOMissingSecret(t *testing.T) {
	// Base URL set but no signing secret: a deployment fault, answered
	// with a generic 500, never an unsigned token.
	fixture := newAuthFixture(t, config.SSOConfig{
		BaseURL:  "http://localhost:5000",
		Issuer:   "coopsite-backend",
		Audience: "chat-service",
		TokenTTL: 60 * time.Second,
	})

	rec := postLogin(t, fixture.router, "admin@example.com", "12345678")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeLogin(t, rec)
	assert.False(t, resp.OK)
	assert.Equal(t, "token generation error", resp.Message)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestAdminRequiresSession(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminWithSession(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	login := postLogin(t, fixture.router, "admin@example.com", "12345678")
	require.Equal(t, http.StatusOK, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, cookie := range login.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminStaleSession(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	login := postLogin(t, fixture.router, "admin@example.com", "12345678")
	require.Equal(t, http.StatusOK, login.Code)

	// The account disappears after the session was issued.
	require.NoError(t, fixture.users.Delete(context.Background(), fixture.admin.ID))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, cookie := range login.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	login := postLogin(t, fixture.router, "admin@example.com", "12345678")
	require.Equal(t, http.StatusOK, login.Code)

	req := httptest.NewRequest(http.MethodGet, "/logout?redirect=http://localhost:5173/bye", nil)
	for _, cookie := range login.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173/bye", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	// The session is gone afterwards.
	admin := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, cookie := range login.Result().Cookies() {
		admin.AddCookie(cookie)
	}
	adminRec := httptest.NewRecorder()
	fixture.router.ServeHTTP(adminRec, admin)
	assert.Equal(t, http.StatusUnauthorized, adminRec.Code)
}

func TestLogoutDefaultRedirect(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Location"))
}

func TestLogoutWithoutSession(t *testing.T) {
	fixture := newAuthFixture(t, config.SSOConfig{})

	// Logging out twice, or without ever logging in, still clears the
	// cookie and redirects.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	}
}
