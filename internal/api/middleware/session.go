package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/squadron/asset-verification/internal/api/cookie"
	"github.com/squadron/asset-verification/internal/core/domain"
)

const (
	ctxUser       = "user"
	ctxToken      = "session_token"
	ctxSessionErr = "session_error"
)

// SessionResolver is the part of the auth service the middleware needs.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domain.User, error)
}

// Session reads the sid cookie and, when it names a live session, stores the
// user in the context. Requests without a valid session pass through
// anonymously; use RequireSession or RBAC to reject them. A failing session
// store does not stop the request either: the token is kept so logout can
// still clear the cookie, and RequireSession and RBAC report the failure.
func Session(resolver SessionResolver, codec *cookie.Codec, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(cookie.Name)
			if err != nil || ck.Value == "" {
				return next(c)
			}

			token, err := codec.Decode(ck.Value)
			if err != nil {
				log.Debug().Str("path", c.Path()).Msg("ignoring unverifiable session cookie")
				return next(c)
			}
			c.Set(ctxToken, token)

			user, err := resolver.ResolveSession(c.Request().Context(), token)
			switch {
			case err == nil:
				c.Set(ctxUser, user)
			case errors.Is(err, domain.ErrUnauthenticated):
			default:
				log.Error().Err(err).Str("path", c.Path()).Msg("session store unavailable")
				c.Set(ctxSessionErr, fmt.Errorf("session middleware: %w", err))
			}
			return next(c)
		}
	}
}

// RequireSession rejects requests without a resolved user.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				return anonymousError(c)
			}
			return next(c)
		}
	}
}

// anonymousError is the store failure recorded by Session, else ErrUnauthenticated.
func anonymousError(c echo.Context) error {
	if err, ok := c.Get(ctxSessionErr).(error); ok {
		return err
	}
	return domain.ErrUnauthenticated
}

// CurrentUser returns the user stored by Session, or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(ctxUser).(*domain.User)
	return u
}

// SessionToken returns the verified token from the sid cookie even when the
// session behind it is gone.
func SessionToken(c echo.Context) string {
	t, _ := c.Get(ctxToken).(string)
	return t
}

// WithUser stores u as the current user. Tests and internal callers only.
func WithUser(c echo.Context, u *domain.User) {
	c.Set(ctxUser, u)
}
