package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coopsite/apiserver/internal/events"
	"github.com/coopsite/apiserver/internal/services"
	"github.com/coopsite/apiserver/internal/sso"
	"github.com/coopsite/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AuthHandler provides the login, logout, and protected-route endpoints.
type AuthHandler struct {
	users           *services.UserService
	sessions        *services.SessionManager
	issuer          *sso.Issuer
	events          *events.Publisher
	defaultRedirect string
	log             zerolog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	users *services.UserService,
	sessions *services.SessionManager,
	issuer *sso.Issuer,
	publisher *events.Publisher,
	defaultRedirect string,
	log zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:           users,
		sessions:        sessions,
		issuer:          issuer,
		events:          publisher,
		defaultRedirect: defaultRedirect,
		log:             log,
	}
}

// AuthRouter registers the auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/login", handler.Login)
	r.Get("/logout", handler.Logout)
	r.Get("/admin", handler.Admin)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OK       bool        `json:"ok"`
	Message  string      `json:"message,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
	User     *types.User `json:"user,omitempty"`
}

// Login verifies credentials, establishes a session, and either hands the
// browser off to the external chat system or confirms a local login. The
// session cookie is always set before the redirect URL is produced, so a
// client following the handoff already carries a valid session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, LoginResponse{OK: false, Message: "invalid request"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, LoginResponse{OK: false, Message: "missing credentials"})
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.publish(r, events.Event{Kind: events.KindLoginFailure, Email: req.Email})
			writeJSON(w, http.StatusUnauthorized, LoginResponse{OK: false, Message: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Msg("authentication lookup failed")
		writeJSON(w, http.StatusInternalServerError, LoginResponse{OK: false, Message: "failed to authenticate"})
		return
	}

	if err := h.sessions.Establish(r.Context(), w, user); err != nil {
		h.log.Error().Err(err).Int("user_id", user.ID).Msg("session establish failed")
		writeJSON(w, http.StatusInternalServerError, LoginResponse{OK: false, Message: "failed to establish session"})
		return
	}

	h.publish(r, events.Event{Kind: events.KindLoginSuccess, Email: user.Email, UserID: user.ID})

	if h.issuer.Enabled() {
		redirect, err := h.issuer.RedirectURL(user)
		if err != nil {
			// Deployment fault, not an authentication failure. The detail
			// stays in the log; the client gets a generic message.
			h.log.Error().Err(err).Msg("sso token issuance failed")
			writeJSON(w, http.StatusInternalServerError, LoginResponse{OK: false, Message: "token generation error"})
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{OK: true, Message: "login successful", Redirect: redirect, User: &user})
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{OK: true, Message: "login successful", User: &user})
}

// Logout destroys the session and redirects the browser. The cookie is
// cleared even when the session-store delete fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, resolveErr := h.sessions.Resolve(r.Context(), r)

	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		h.log.Error().Err(err).Msg("session destroy failed")
	}

	if resolveErr == nil {
		h.publish(r, events.Event{Kind: events.KindLogout, Email: user.Email, UserID: user.ID})
	}

	redirect := strings.TrimSpace(r.URL.Query().Get("redirect"))
	if redirect == "" {
		redirect = h.defaultRedirect
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

// Admin is the protected-route pattern: 200 only when the session resolves
// to a current user.
func (h *AuthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessions.Resolve(r.Context(), r)
	if err != nil {
		if errors.Is(err, services.ErrSessionInvalid) {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		h.log.Error().Err(err).Msg("session resolve failed")
		writeError(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "admin panel",
		"user":    user,
	})
}

func (h *AuthHandler) publish(r *http.Request, ev events.Event) {
	ev.At = time.Now()
	if err := h.events.Publish(r.Context(), ev); err != nil {
		h.log.Warn().Err(err).Str("kind", ev.Kind).Msg("event publish failed")
	}
}
