package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

// Dependencies are the services the routes are wired to
type Dependencies struct {
	Composer   handlers.Composer
	Store      store.CompositionStore
	CloudWatch *metrics.Client // nil disables CloudWatch
}

func SetupRouter(deps Dependencies, cfg *config.Config, version string) (*gin.Engine, error) {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.CloudWatch))

	router.Use(apimiddleware.CORS())

	compositionHandler, err := handlers.NewCompositionHandler(deps.Composer, deps.Store, cfg.CacheSize, deps.CloudWatch)
	if err != nil {
		return nil, err
	}

	healthHandler := handlers.NewHealthHandler(deps.Store)
	router.GET("/health", healthHandler.HealthCheck)

	metricsHandler := handlers.NewMetricsHandler(version, deps.Store, compositionHandler.CacheLen)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	auth := apimiddleware.NoAuth()
	if cfg.IsGatewayMode() {
		auth = apimiddleware.GatewayAuth()
	}

	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		v1.POST("/compositions", compositionHandler.Compose)
		v1.GET("/compositions", compositionHandler.List)
		v1.GET("/compositions/:id", compositionHandler.Get)
	}

	return router, nil
}
