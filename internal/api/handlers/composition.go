package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Conceptual-Machines/magda-composer/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/magda-composer/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/metrics"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

const (
	composeTimeoutSecs = 30
	cacheHeader        = "X-Composition-Cache"
)

// Composer renders compositions; *coordination.Orchestrator implements it
type Composer interface {
	Resolve(req models.CompositionRequest) (models.CompositionRequest, error)
	Compose(ctx context.Context, req models.CompositionRequest) (*models.CompositionResult, error)
}

// cacheKey identifies a composition once its defaults are resolved
type cacheKey struct {
	seed uint64
	bars int
	key  string
}

type CompositionHandler struct {
	composer   Composer
	store      store.CompositionStore
	cache      *lru.Cache[cacheKey, *models.CompositionResult]
	sentry     *metrics.SentryMetrics
	cloudWatch *metrics.Client
}

// NewCompositionHandler caches up to cacheSize results. cloudWatch may be nil.
func NewCompositionHandler(
	composer Composer,
	compositions store.CompositionStore,
	cacheSize int,
	cloudWatch *metrics.Client,
) (*CompositionHandler, error) {
	cache, err := lru.New[cacheKey, *models.CompositionResult](cacheSize)
	if err != nil {
		return nil, err
	}
	return &CompositionHandler{
		composer:   composer,
		store:      compositions,
		cache:      cache,
		sentry:     metrics.NewSentryMetrics(),
		cloudWatch: cloudWatch,
	}, nil
}

// CacheLen returns the number of cached results
func (h *CompositionHandler) CacheLen() int {
	return h.cache.Len()
}

// Compose renders a composition. An empty body composes with a random seed and the default length.
func (h *CompositionHandler) Compose(c *gin.Context) {
	var req models.CompositionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.composer.Resolve(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key := cacheKey{seed: *req.Seed, bars: req.Bars, key: req.Key}
	if cached, ok := h.cache.Get(key); ok {
		c.Header(cacheHeader, "hit")
		c.JSON(http.StatusOK, cached)
		return
	}

	owner := middleware.Owner(c)
	log.Printf("🎼 Composition request from %s (seed %d, %d bars)", owner, *req.Seed, req.Bars)

	ctx, cancel := context.WithTimeout(c.Request.Context(), composeTimeoutSecs*time.Second)
	defer cancel()

	start := time.Now()
	result, err := h.composer.Compose(ctx, req)
	duration := time.Since(start)
	h.sentry.RecordComposition(c.Request.Context(), result, duration, err == nil)
	h.cloudWatch.RecordComposition(result, duration, err == nil)
	if err != nil {
		fields := logger.WithContext(c)
		fields["seed"] = *req.Seed
		logger.Error("Composition failed", err, fields)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	rec := result.Record()
	rec.Owner = owner
	if err := h.store.Save(c.Request.Context(), rec); err != nil {
		logger.Error("Failed to store composition", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store composition"})
		return
	}
	h.cache.Add(key, result)

	logger.LogComposition(c.Request.Context(), result.Seed, duration, logger.Fields{
		"notes":      len(result.Notes) - result.HitCount(),
		"hits":       result.HitCount(),
		"chords":     len(result.Chords),
		"unresolved": len(result.Unresolved),
	}, logger.WithContext(c))

	c.Header(cacheHeader, "miss")
	c.JSON(http.StatusCreated, result)
}

// Get returns the stored record of one composition
func (h *CompositionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid composition id"})
		return
	}

	rec, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to load composition", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load composition"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// List returns the caller's newest compositions
func (h *CompositionHandler) List(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxListPageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must lie within 1..50"})
			return
		}
		limit = n
	}

	records, err := h.store.List(c.Request.Context(), middleware.Owner(c), limit)
	if err != nil {
		logger.Error("Failed to list compositions", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list compositions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"compositions": records})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, coordination.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
