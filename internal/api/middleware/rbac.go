package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/squadron/asset-verification/internal/core/domain"
)

// RBAC enforces role-based access control on top of Session. Anonymous
// callers get ErrUnauthenticated (or the session store failure), other roles
// ErrForbidden.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return anonymousError(c)
			}
			if !user.HasRole(allowedRoles...) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
