package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/squadron/asset-verification/internal/api/cookie"
	"github.com/squadron/asset-verification/internal/core/domain"
)

type resolverFunc func(ctx context.Context, token string) (*domain.User, error)

func (f resolverFunc) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	return f(ctx, token)
}

func knownToken(token string, user *domain.User) resolverFunc {
	return func(_ context.Context, got string) (*domain.User, error) {
		if got != token {
			return nil, domain.ErrUnauthenticated
		}
		return user, nil
	}
}

func runSession(t *testing.T, resolver SessionResolver, codec *cookie.Codec, cookieValue string, next echo.HandlerFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookieValue})
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return Session(resolver, codec, zerolog.Nop())(next)(c)
}

func TestSession_ValidCookie(t *testing.T) {
	codec := cookie.NewCodec("secret", false)
	value, _ := codec.Encode("tok-1", time.Now().Add(time.Hour))
	sarah := &domain.User{ID: 1, Username: "sarah.chen", Role: domain.RoleFinance}

	called := false
	err := runSession(t, knownToken("tok-1", sarah), codec, value, func(c echo.Context) error {
		called = true
		if u := CurrentUser(c); u == nil || u.Username != "sarah.chen" {
			t.Fatalf("user not set: %+v", u)
		}
		if SessionToken(c) != "tok-1" {
			t.Fatalf("token not set: %q", SessionToken(c))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestSession_AnonymousPassThrough(t *testing.T) {
	codec := cookie.NewCodec("secret", false)
	forged, _ := cookie.NewCodec("other", false).Encode("tok-1", time.Now().Add(time.Hour))
	stale, _ := codec.Encode("tok-dead", time.Now().Add(time.Hour))
	sarah := &domain.User{ID: 1, Username: "sarah.chen"}

	cases := map[string]string{
		"no cookie":    "",
		"garbage":      "not-a-jwt",
		"wrong key":    forged,
		"dead session": stale,
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			err := runSession(t, knownToken("tok-1", sarah), codec, value, func(c echo.Context) error {
				if CurrentUser(c) != nil {
					t.Fatalf("expected anonymous request")
				}
				return nil
			})
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
		})
	}
}

func TestSession_DeadSessionKeepsToken(t *testing.T) {
	codec := cookie.NewCodec("secret", false)
	stale, _ := codec.Encode("tok-dead", time.Now().Add(time.Hour))

	err := runSession(t, knownToken("tok-1", nil), codec, stale, func(c echo.Context) error {
		if SessionToken(c) != "tok-dead" {
			t.Fatalf("expected verified token to be kept, got %q", SessionToken(c))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestSession_BackendFailureContinuesAnonymously(t *testing.T) {
	codec := cookie.NewCodec("secret", false)
	value, _ := codec.Encode("tok-1", time.Now().Add(time.Hour))

	failing := resolverFunc(func(context.Context, string) (*domain.User, error) {
		return nil, errors.New("redis down")
	})
	called := false
	err := runSession(t, failing, codec, value, func(c echo.Context) error {
		called = true
		if CurrentUser(c) != nil {
			t.Fatalf("expected anonymous request")
		}
		if SessionToken(c) != "tok-1" {
			t.Fatalf("expected token to be kept for logout, got %q", SessionToken(c))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestRequireSession_ReportsStoreFailure(t *testing.T) {
	codec := cookie.NewCodec("secret", false)
	value, _ := codec.Encode("tok-1", time.Now().Add(time.Hour))
	boom := errors.New("redis down")

	failing := resolverFunc(func(context.Context, string) (*domain.User, error) { return nil, boom })
	protected := RequireSession()(func(echo.Context) error {
		t.Fatalf("protected handler must not run")
		return nil
	})
	if err := runSession(t, failing, codec, value, protected); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	rbac := RBAC(domain.RoleAdminManager)(func(echo.Context) error { return nil })
	if err := runSession(t, failing, codec, value, rbac); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error from RBAC, got %v", err)
	}
}

func TestRequireSession(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	h := RequireSession()(func(c echo.Context) error { return nil })
	if err := h(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	WithUser(c, &domain.User{Username: "x"})
	if err := h(c); err != nil {
		t.Fatalf("expected pass-through with a user, got %v", err)
	}
}
