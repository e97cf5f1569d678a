package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/magda-composer/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/magda-composer/internal/api"
	"github.com/Conceptual-Machines/magda-composer/internal/config"
	"github.com/Conceptual-Machines/magda-composer/internal/database"
	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	logger.SetDebug(cfg.IsDebug())

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "magda-composer@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	compositions, err := newStore(cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize store: ", err)
	}

	orchestrator, err := coordination.NewOrchestrator(cfg.Composer)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to build composer: ", err)
	}

	cloudWatch, err := metrics.NewClient(context.Background(), cfg.Environment, cfg.CloudWatchNamespace)
	if err != nil {
		log.Printf("⚠️  CloudWatch unavailable: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := api.SetupRouter(api.Dependencies{
		Composer:   orchestrator,
		Store:      compositions,
		CloudWatch: cloudWatch,
	}, cfg, GetVersion())
	if err != nil {
		log.Fatal("Failed to set up router: ", err)
	}

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

// newStore connects to postgres when DATABASE_URL is set and keeps records in memory otherwise
func newStore(cfg *config.Config) (store.CompositionStore, error) {
	if cfg.DatabaseURL == "" {
		log.Println("⚠️  DATABASE_URL not set, compositions are kept in memory")
		return store.NewMemoryStore(), nil
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
		"x-user-email":  true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
