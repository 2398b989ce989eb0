// Package sso mints the short-lived signed tokens that hand an
// authenticated browser over to the external chat system.
package sso

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/coopsite/apiserver/config"
	"github.com/coopsite/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNoSigningSecret is returned when token issuance is attempted without
// a configured signing secret. This is a deployment fault: the request
// fails with a 5xx, and no unsigned or weakly signed token is ever issued.
var ErrNoSigningSecret = errors.New("sso signing secret is not configured")

const consumePath = "/auth/consume"

// Claims is the token payload consumed by the external system. Role is
// numeric; the consumer maps it to its own role names.
type Claims struct {
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 tokens carrying the authenticated identity.
type Issuer struct {
	secret   []byte
	baseURL  string
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewIssuer(cfg config.SSOConfig) *Issuer {
	var secret []byte
	if cfg.Secret != "" {
		secret = []byte(cfg.Secret)
	}
	return &Issuer{
		secret:   secret,
		baseURL:  cfg.BaseURL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TokenTTL,
		now:      time.Now,
	}
}

// Enabled reports whether logins should be handed off to the external
// system. Issuance config problems are still possible when enabled;
// those surface from Issue.
func (i *Issuer) Enabled() bool {
	return i.baseURL != ""
}

// Issue signs a token for the user: subject is the user id as a string,
// jti is a fresh UUID, and expiry is a short fixed window. Validity is
// proven purely by signature and expiry at the consumer.
func (i *Issuer) Issue(user types.User) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSigningSecret
	}

	now := i.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// RedirectURL issues a token and embeds it in the external consumption
// endpoint's URL.
func (i *Issuer) RedirectURL(user types.User) (string, error) {
	token, err := i.Issue(user)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s?token=%s", i.baseURL, consumePath, url.QueryEscape(token)), nil
}
