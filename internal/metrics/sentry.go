package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordComposition records one composition run. result may be nil when composing failed.
func (m *SentryMetrics) RecordComposition(ctx context.Context, result *models.CompositionResult, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "composer.request")
	defer span.Finish()

	span.SetTag("success", fmt.Sprintf("%t", success))
	span.SetData("duration_ms", duration.Milliseconds())

	if result != nil {
		hits := result.HitCount()
		span.SetTag("seed", fmt.Sprintf("%d", result.Seed))
		span.SetTag("time_signature", result.TimeSignature)
		span.SetData("bars", result.Bars)
		span.SetData("notes", len(result.Notes)-hits)
		span.SetData("hits", hits)
		span.SetData("chords", len(result.Chords))
		span.SetData("unresolved", len(result.Unresolved))

		// Attach the counts to the request transaction as well
		if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
			transaction.SetTag("composer.seed", fmt.Sprintf("%d", result.Seed))
			transaction.SetData("composer.unresolved", len(result.Unresolved))
		}
	}

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("Composition: %t", success)
}
