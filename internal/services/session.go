package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coopsite/apiserver/config"
	"github.com/coopsite/apiserver/internal/session"
	"github.com/coopsite/apiserver/internal/store"
	"github.com/coopsite/apiserver/types"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// ErrSessionInvalid is returned when a session is missing, malformed, or
// refers to a user that no longer exists. It always degrades to
// "unauthenticated", never to a server fault.
var ErrSessionInvalid = errors.New("session invalid")

// SessionManager issues and resolves server-side sessions tied to a signed
// HTTP-only cookie.
type SessionManager struct {
	repo       session.Repo
	users      UserRepository
	codec      *securecookie.SecureCookie
	cookieName string
	ttl        time.Duration
	now        func() time.Time
}

func NewSessionManager(repo session.Repo, users UserRepository, cfg config.SessionConfig) (*SessionManager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("session secret is required")
	}

	return &SessionManager{
		repo:       repo,
		users:      users,
		codec:      securecookie.New([]byte(cfg.Secret), nil),
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		now:        time.Now,
	}, nil
}

// Establish creates a session record for the user and sets the signed
// cookie on the response. Only the user id is serialized into the record.
func (m *SessionManager) Establish(ctx context.Context, w http.ResponseWriter, user types.User) error {
	rec := session.Record{
		ID:        uuid.NewString(),
		Value:     strconv.Itoa(user.ID),
		CreatedAt: m.now(),
	}
	if m.ttl > 0 {
		rec.ExpiresAt = rec.CreatedAt.Add(m.ttl)
	}

	if err := m.repo.Put(ctx, rec); err != nil {
		return err
	}

	encoded, err := m.codec.Encode(m.cookieName, rec.ID)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if m.ttl > 0 {
		cookie.MaxAge = int(m.ttl / time.Second)
	}
	http.SetCookie(w, cookie)
	return nil
}

// Resolve maps the request's session cookie back to a current user row.
// Any missing, malformed, or stale session yields ErrSessionInvalid;
// repository faults pass through.
func (m *SessionManager) Resolve(ctx context.Context, r *http.Request) (types.User, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return types.User{}, ErrSessionInvalid
	}

	var sessionID string
	if err := m.codec.Decode(m.cookieName, cookie.Value, &sessionID); err != nil {
		return types.User{}, ErrSessionInvalid
	}

	rec, err := m.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return types.User{}, ErrSessionInvalid
		}
		return types.User{}, err
	}

	userID, ok := normalizeUserID(rec.Value)
	if !ok {
		return types.User{}, ErrSessionInvalid
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrSessionInvalid
		}
		return types.User{}, err
	}
	return user, nil
}

// Destroy removes the server-side session record and clears the cookie.
// The cookie is cleared even when the record lookup or deletion fails, so
// a store fault can never leave a browser stuck logged in.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}

	var sessionID string
	if err := m.codec.Decode(m.cookieName, cookie.Value, &sessionID); err != nil {
		return nil
	}
	return m.repo.Delete(ctx, sessionID)
}

// normalizeUserID turns a stored session value into a clean integer id.
// Previously issued sessions may carry a plain integer, a numeric string,
// or a JSON-encoded object with an id field; anything else is invalid.
func normalizeUserID(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	if id, err := strconv.Atoi(raw); err == nil {
		return id, id > 0
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return 0, false
	}
	return userIDFromValue(decoded)
}

func userIDFromValue(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		id := int(v)
		return id, float64(id) == v && id > 0
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		return id, err == nil && id > 0
	case map[string]any:
		id, ok := v["id"]
		if !ok {
			return 0, false
		}
		return userIDFromValue(id)
	default:
		return 0, false
	}
}
