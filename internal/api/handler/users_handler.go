package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/squadron/asset-verification/internal/core/ports"
)

const defaultAuditLimit = 50

// UsersHandler serves the administrative read endpoints.
type UsersHandler struct {
	authService ports.AuthService
	audit       ports.AuditRepository
}

func NewUsersHandler(authService ports.AuthService, audit ports.AuditRepository) *UsersHandler {
	return &UsersHandler{authService: authService, audit: audit}
}

// List returns every account. Password hashes are never serialized.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  usersResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/users [get]
func (h *UsersHandler) List(c echo.Context) error {
	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users, Count: len(users)})
}

// AuditEvents returns the most recent auth events, newest first.
//
// @Summary      Recent auth events
// @Tags         users
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of events (1-500, default 50)"
// @Success      200    {array}   auditEventResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /api/audit/events [get]
func (h *UsersHandler) AuditEvents(c echo.Context) error {
	var q auditEventsQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = defaultAuditLimit
	}

	events, err := h.audit.RecentEvents(c.Request().Context(), q.Limit)
	if err != nil {
		return err
	}

	out := make([]auditEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, auditEventResponse{
			Kind:       ev.Kind,
			Username:   ev.Username,
			Role:       ev.Role,
			RemoteAddr: ev.RemoteAddr,
			Timestamp:  ev.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, out)
}
