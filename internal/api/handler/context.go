package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/squadron/asset-verification/internal/api/middleware"
	"github.com/squadron/asset-verification/internal/core/domain"
)

// ctxUser returns the session user or ErrUnauthenticated. Handlers behind
// RequireSession or RBAC can rely on it never failing.
func ctxUser(c echo.Context) (*domain.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}
