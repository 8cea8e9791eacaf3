// Package cookie signs session tokens into the sid cookie and reads them back.
//
// The cookie value is an HS256 JWT carrying the opaque session token in the
// "sid" claim. The signature only proves the value was issued by this server;
// liveness of the session is decided by the session store.
package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Name is the session cookie name.
const Name = "sid"

var ErrInvalid = errors.New("invalid session cookie")

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Codec issues and verifies session cookies.
type Codec struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewCodec returns a Codec signing with secret. secure adds the Secure flag.
func NewCodec(secret string, secure bool) *Codec {
	return &Codec{secret: []byte(secret), secure: secure, now: time.Now}
}

// Encode signs token with an expiry matching the session's.
func (c *Codec) Encode(token string, expiresAt time.Time) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies value and returns the session token it carries.
func (c *Codec) Decode(value string) (string, error) {
	if value == "" {
		return "", ErrInvalid
	}

	var cl claims
	tkn, err := jwt.ParseWithClaims(value, &cl, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid || cl.SessionID == "" {
		return "", ErrInvalid
	}
	return cl.SessionID, nil
}

// New builds the Set-Cookie value for a session expiring at expiresAt.
func (c *Codec) New(value string, expiresAt time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(c.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     Name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Clear builds a cookie that removes sid from the browser.
func (c *Codec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
