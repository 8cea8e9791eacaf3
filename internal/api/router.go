package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/squadron/asset-verification/docs"
	"github.com/squadron/asset-verification/internal/api/cookie"
	"github.com/squadron/asset-verification/internal/api/handler"
	"github.com/squadron/asset-verification/internal/api/middleware"
	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
	"github.com/squadron/asset-verification/internal/guard"
	"github.com/squadron/asset-verification/internal/infrastructure/http/handlers"
)

const metricsSubsystem = "asset_verification"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Auth    ports.AuthService
	Audit   ports.AuditRepository
	Routes  *guard.Table
	Cookies *cookie.Codec
	// Ready lists the backends checked by /health/ready.
	Ready       map[string]handlers.Pinger
	CORSOrigins []string
	ServiceName string
	// Metrics enables echoprometheus and /metrics. Off in tests, where the
	// default registry would reject a second registration.
	Metrics bool
	Swagger bool
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept},
	}))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware(metricsSubsystem))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(d.Ready)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	if d.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- API ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookies, d.ServiceName, d.Log)
	usersHandler := handler.NewUsersHandler(d.Auth, d.Audit)
	routesHandler := handler.NewRoutesHandler(d.Routes)

	apiGroup := e.Group("/api", middleware.Session(d.Auth, d.Cookies, d.Log))

	auth := apiGroup.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/register", authHandler.Register)
	auth.GET("/me", authHandler.Me, middleware.RequireSession())
	auth.GET("/health", authHandler.Health)

	privileged := middleware.RBAC(domain.RoleAdminManager, domain.RoleHRManager)
	apiGroup.GET("/users", usersHandler.List, privileged)
	apiGroup.GET("/audit/events", usersHandler.AuditEvents, middleware.RBAC(domain.RoleAdminManager))

	apiGroup.GET("/routes", routesHandler.List)
	apiGroup.GET("/routes/decision", routesHandler.Decision)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
