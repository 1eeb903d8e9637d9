package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-engine/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
	"github.com/jsamuelsen/quote-engine/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// Roles checked by the router when auth is enabled.
const (
	RoleCatalogAdmin = "catalog-admin"
	RoleSalesManager = "sales-manager"
)

// purgePath is exempt from the request timeout.
const purgePath = "/api/v1/trash"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	Logger     *slog.Logger
	AuthConfig *config.AuthConfig
	AppConfig  *config.AppConfig

	HealthHandler  *handlers.HealthHandler
	QuoteHandler   *handlers.QuoteHandler
	CatalogHandler *handlers.CatalogHandler

	// Timeout is the per-request deadline of /api/v1. Zero disables it.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips health endpoints)
//  6. Identity - acting user from the auth headers
//  7. Timeout - request deadline, except for the trash purge
//
// Route groups:
//   - /-/ (internal): health, build info and metrics, no auth
//   - /api/v1/ (public API): quotes, lines, workflow steps and catalog
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := "quote-engine"
	if cfg.AppConfig != nil {
		serviceName = cfg.AppConfig.Name
	}

	engine.HandleMethodNotAllowed = true
	engine.NoRoute(NoRoute)
	engine.NoMethod(NoMethod)

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Middleware(serviceName),
		middleware.Logging(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Register(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(identity(cfg.AuthConfig))

	if cfg.Timeout > 0 {
		apiV1.Use(middleware.TimeoutWithSkipPaths(cfg.Timeout, []string{purgePath}))
	}

	setupAPIRoutes(apiV1, cfg)
}

// identity requires a subject when auth is enabled and only attaches one
// otherwise.
func identity(auth *config.AuthConfig) gin.HandlerFunc {
	if auth != nil && auth.Enabled {
		return middleware.RequireAuth(auth)
	}

	return middleware.Identity(auth)
}

// restricted limits a group to the given roles when auth is enabled.
func restricted(rg *gin.RouterGroup, auth *config.AuthConfig, roles ...string) *gin.RouterGroup {
	g := rg.Group("")
	if auth != nil && auth.Enabled {
		g.Use(middleware.RequireAnyRole(auth, roles...))
	}

	return g
}

func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(rg)
		cfg.QuoteHandler.RegisterTrashRoutes(restricted(rg, cfg.AuthConfig, RoleSalesManager))
	}

	if cfg.CatalogHandler != nil {
		cfg.CatalogHandler.RegisterCatalogRoutes(rg, restricted(rg, cfg.AuthConfig, RoleCatalogAdmin))
	}
}

// NewDefaultRouterConfig creates a RouterConfig with the default timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	authCfg *config.AuthConfig,
	healthHandler *handlers.HealthHandler,
	quoteHandler *handlers.QuoteHandler,
	catalogHandler *handlers.CatalogHandler,
) RouterConfig {
	return RouterConfig{
		Logger:         logger,
		AuthConfig:     authCfg,
		AppConfig:      appCfg,
		HealthHandler:  healthHandler,
		QuoteHandler:   quoteHandler,
		CatalogHandler: catalogHandler,
		Timeout:        DefaultRequestTimeout,
	}
}
