package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/squadron/asset-verification/internal/api/middleware"
	"github.com/squadron/asset-verification/internal/guard"
)

// RoutesHandler exposes the page route table to UI shells.
type RoutesHandler struct {
	table *guard.Table
}

func NewRoutesHandler(table *guard.Table) *RoutesHandler {
	return &RoutesHandler{table: table}
}

// List returns the route table.
//
// @Summary      Page routes
// @Tags         routes
// @Produce      json
// @Success      200  {object}  routesResponse
// @Router       /api/routes [get]
func (h *RoutesHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, routesResponse{Routes: h.table.Routes()})
}

// Decision evaluates the guard for path and the caller's session. The server
// already knows whether a session exists, so the result is never loading.
//
// @Summary      Guard decision
// @Tags         routes
// @Produce      json
// @Param        path  query     string  true  "Page path, e.g. /finance/reports"
// @Success      200   {object}  decisionResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/routes/decision [get]
func (h *RoutesHandler) Decision(c echo.Context) error {
	var q decisionQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	d := h.table.Authorize(q.Path, middleware.CurrentUser(c), false)
	return c.JSON(http.StatusOK, decisionResponse{Path: q.Path, Decision: d})
}
