package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/squadron/asset-verification/internal/api/cookie"
	"github.com/squadron/asset-verification/internal/api/metrics"
	"github.com/squadron/asset-verification/internal/api/middleware"
	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     *cookie.Codec
	service     string
	log         zerolog.Logger
}

// NewAuthHandler wires the /api/auth endpoints. service is the name reported
// by the auth health check.
func NewAuthHandler(authService ports.AuthService, cookies *cookie.Codec, service string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, service: service, log: log}
}

// Login authenticates a user and opens a cookie session.
//
// @Summary      Login
// @Description  Accepts username (or email) and password. When demo role login is enabled, a role alone signs in as that role's demo account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.User
// @Header       200   {string}  Set-Cookie  "sid session cookie"
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	method := "credentials"
	if req.Username == "" && req.Password == "" && req.Role != "" {
		method = "demo_role"
	}

	ctx := c.Request().Context()
	res, err := h.authService.Login(ctx, ports.LoginInput{
		Username:   req.Username,
		Password:   req.Password,
		Role:       req.Role,
		RemoteAddr: c.RealIP(),
	})
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrInvalidCredentials) {
			result = "invalid_credentials"
		}
		metrics.LoginAttemptsTotal.WithLabelValues(method, result).Inc()
		return err
	}

	value, err := h.cookies.Encode(res.Session.Token, res.Session.ExpiresAt)
	if err != nil {
		_ = h.authService.Logout(ctx, res.Session.Token, c.RealIP())
		metrics.LoginAttemptsTotal.WithLabelValues(method, "error").Inc()
		return err
	}

	// a fresh login replaces whatever session the browser carried before
	if prev := middleware.SessionToken(c); prev != "" && prev != res.Session.Token {
		if err := h.authService.Logout(ctx, prev, c.RealIP()); err != nil {
			h.log.Warn().Err(err).Msg("failed to drop previous session on login")
		}
	}

	c.SetCookie(h.cookies.New(value, res.Session.ExpiresAt))
	metrics.LoginAttemptsTotal.WithLabelValues(method, "success").Inc()
	metrics.SessionsCreatedTotal.Inc()

	return c.JSON(http.StatusOK, res.User)
}

// Me returns the user behind the session cookie.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Logout ends the session and clears the cookie. It succeeds for anonymous
// callers and when the session store fails; the failure is only logged.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.SessionToken(c), c.RealIP()); err != nil {
		h.log.Error().Err(err).Msg("logout failed to destroy session")
	}

	c.SetCookie(h.cookies.Clear())
	metrics.LogoutsTotal.Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// Register creates a new user account. It does not sign the user in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		Role:       req.Role,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Department: req.Department,
		EmployeeID: req.EmployeeID,
		RemoteAddr: c.RealIP(),
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()

	return c.JSON(http.StatusCreated, registerResponse{
		ID:         user.ID,
		Username:   user.Username,
		Name:       user.Name,
		Role:       user.Role,
		Email:      user.Email,
		Department: user.Department,
		EmployeeID: user.EmployeeID,
	})
}

// Health reports that the auth API is up.
//
// @Summary      Auth health
// @Tags         auth
// @Produce      json
// @Success      200  {object}  serviceHealthResponse
// @Router       /api/auth/health [get]
func (h *AuthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, serviceHealthResponse{OK: true, Service: h.service})
}

func registrationResult(err error) string {
	var mf *domain.MissingFieldError
	switch {
	case errors.As(err, &mf):
		return "missing_field"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, domain.ErrUserExists):
		return "conflict"
	default:
		return "error"
	}
}
