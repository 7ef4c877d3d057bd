// Package router assembles the echo application: global middleware, the
// error handler and every API route.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/healthcare-backend/internal/config"
	"github.com/iliyamo/healthcare-backend/internal/handler"
	"github.com/iliyamo/healthcare-backend/internal/middleware"
	"github.com/iliyamo/healthcare-backend/internal/policy"
	"github.com/iliyamo/healthcare-backend/internal/repository"
	"github.com/iliyamo/healthcare-backend/internal/schema"
	"github.com/iliyamo/healthcare-backend/internal/service"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Cfg       config.Config
	RateLimit config.RateLimitConfig
	DB        *sql.DB
	Redis     *redis.Client // nil selects the in-process limiter
	Log       zerolog.Logger
	Events    service.Emitter
}

// New builds the echo instance with all routes registered.
func New(d Deps) *echo.Echo {
	if d.Events == nil {
		d.Events = service.NopEmitter{}
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = schema.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(d.Log)

	// /api/patients and /api/patients/ route the same
	e.Pre(echomw.AddTrailingSlashWithConfig(echomw.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool { return c.Request().URL.Path == "/healthz" || c.Request().URL.Path == "/readyz" },
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.Log))
	e.Use(middleware.Recovery(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.Tracing("healthcare-backend"))
	e.Use(middleware.Authenticate(d.Cfg.JWTSecret))

	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	patients := repository.NewPatientRepo(d.DB)
	doctors := repository.NewDoctorRepo(d.DB)
	mappings := repository.NewMappingRepo(d.DB)

	issuer := service.NewCredentialIssuer(d.Cfg, users, tokens, d.Events)

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, handler.NewAuthHandler(issuer), middleware.RateLimit(d.RateLimit, d.Redis, d.Log))
	RegisterPatients(e, handler.NewPatientHandler(patients, d.Events))
	RegisterDoctors(e, handler.NewDoctorHandler(doctors, d.Events))
	RegisterMappings(e, handler.NewMappingHandler(mappings, patients, doctors, d.Events))
	return e
}

// RegisterRoutes registers the unauthenticated service routes.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/api/", handler.Index)
}

// RegisterAuth registers the credential endpoints. Register, login and
// refresh are throttled by limit.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register/", a.Register, limit)
	g.POST("/login/", a.Login, limit)
	g.POST("/token/refresh/", a.Refresh, limit)
	g.POST("/logout/", a.Logout)
	g.GET("/me/", a.Me, middleware.RequireAuth())
}

func RegisterPatients(e *echo.Echo, h *handler.PatientHandler) {
	g := e.Group("/api/patients")
	g.GET("/", h.List, middleware.Permit(policy.KindPatient, policy.Read))
	g.POST("/", h.Create, middleware.Permit(policy.KindPatient, policy.Create))
	g.GET("/:id/", h.Get, middleware.Permit(policy.KindPatient, policy.Read))
	g.PUT("/:id/", h.Update, middleware.Permit(policy.KindPatient, policy.Write))
	g.PATCH("/:id/", h.Patch, middleware.Permit(policy.KindPatient, policy.Write))
	g.DELETE("/:id/", h.Delete, middleware.Permit(policy.KindPatient, policy.Write))
}

func RegisterDoctors(e *echo.Echo, h *handler.DoctorHandler) {
	g := e.Group("/api/doctors")
	g.GET("/", h.List, middleware.Permit(policy.KindDoctor, policy.Read))
	g.POST("/", h.Create, middleware.Permit(policy.KindDoctor, policy.Create))
	g.GET("/:id/", h.Get, middleware.Permit(policy.KindDoctor, policy.Read))
	g.PUT("/:id/", h.Update, middleware.Permit(policy.KindDoctor, policy.Write))
	g.PATCH("/:id/", h.Patch, middleware.Permit(policy.KindDoctor, policy.Write))
	g.DELETE("/:id/", h.Delete, middleware.Permit(policy.KindDoctor, policy.Write))
}

// RegisterMappings registers the mapping routes. GET on /:id/ takes a
// patient id while DELETE takes a mapping id; the parameter shares one name
// because both live on the same path node.
func RegisterMappings(e *echo.Echo, h *handler.MappingHandler) {
	g := e.Group("/api/mappings")
	g.GET("/", h.List, middleware.Permit(policy.KindMapping, policy.Read))
	g.POST("/", h.Create, middleware.Permit(policy.KindMapping, policy.Create))
	g.GET("/:id/", h.ListByPatient, middleware.Permit(policy.KindMapping, policy.Read))
	g.DELETE("/:id/", h.Delete, middleware.Permit(policy.KindMapping, policy.Write))
}
