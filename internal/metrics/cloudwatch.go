package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

const (
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
	namespace   string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment, namespace string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
			namespace:   namespace,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false, environment: environment, namespace: namespace}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
		namespace:   namespace,
	}, nil
}

// Enabled reports whether metrics are shipped
func (m *Client) Enabled() bool {
	return m != nil && m.enabled
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	go func() {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{Name: aws.String("Endpoint"), Value: aws.String(endpoint)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}
		data := []types.MetricDatum{
			datum(metricName, 1, types.StandardUnitCount, dimensions),
			datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions),
		}
		if err := m.putMetrics(data); err != nil {
			log.Printf("Failed to record %s metrics: %v", metricName, err)
		}
	}()
}

// RecordComposition records the duration and size of one composition. result may be nil.
func (m *Client) RecordComposition(result *models.CompositionResult, duration time.Duration, success bool) {
	if !m.Enabled() {
		return
	}

	go func() {
		if err := m.putMetrics(compositionData(m.environment, result, duration, success)); err != nil {
			log.Printf("Failed to record composition metrics: %v", err)
		}
	}()
}

// compositionData builds the composition datums: a count and duration always, sizes on success
func compositionData(environment string, result *models.CompositionResult, duration time.Duration, success bool) []types.MetricDatum {
	dimensions := []types.Dimension{
		{Name: aws.String("Success"), Value: aws.String(boolToString(success))},
		{Name: aws.String("Environment"), Value: aws.String(environment)},
	}
	data := []types.MetricDatum{
		datum("Compositions", 1, types.StandardUnitCount, dimensions),
		datum("CompositionDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions),
	}
	if result == nil {
		return data
	}

	hits := result.HitCount()
	return append(data,
		datum("CompositionBars", float64(result.Bars), types.StandardUnitCount, dimensions),
		datum("CompositionNotes", float64(len(result.Notes)-hits), types.StandardUnitCount, dimensions),
		datum("CompositionHits", float64(hits), types.StandardUnitCount, dimensions),
		datum("UnresolvedNodes", float64(len(result.Unresolved)), types.StandardUnitCount, dimensions),
	)
}

func datum(name string, value float64, unit types.StandardUnit, dimensions []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dimensions,
	}
}

// putMetrics sends metrics to CloudWatch in one call
func (m *Client) putMetrics(data []types.MetricDatum) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	})
	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
