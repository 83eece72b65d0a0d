package observability

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"sweatstakes/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the settlement engine
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	webhooksReceivedCounter      metric.Int64Counter
	webhooksRejectedCounter      metric.Int64Counter
	duplicateEventsCounter       metric.Int64Counter
	claimsCounter                metric.Int64Counter
	claimDurationHist            metric.Float64Histogram
	fulfillmentOrdersCounter     metric.Int64Counter
	payoutsExpiredCounter        metric.Int64Counter
	natsMessagesPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Println("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Println("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	// Create appropriate exporter based on config
	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Println("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.Printf("Using OTLP metric exporter: %s", mp.config.OTelOTLPEndpoint)

	case "none":
		log.Println("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	// Create meter provider with periodic reader
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	// Set as global meter provider
	otel.SetMeterProvider(mp.meterProvider)

	// Get meter for creating instruments
	mp.meter = mp.meterProvider.Meter("settlement-engine")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Println("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.webhooksReceivedCounter, err = mp.meter.Int64Counter(
		WebhooksReceivedTotal,
		metric.WithDescription("Total number of webhook events received"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create webhooks received counter: %w", err)
	}

	mp.webhooksRejectedCounter, err = mp.meter.Int64Counter(
		WebhooksRejectedTotal,
		metric.WithDescription("Total number of webhook events rejected before processing"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create webhooks rejected counter: %w", err)
	}

	mp.duplicateEventsCounter, err = mp.meter.Int64Counter(
		DuplicateEventsTotal,
		metric.WithDescription("Total number of redelivered webhook events acknowledged without processing"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create duplicate events counter: %w", err)
	}

	mp.claimsCounter, err = mp.meter.Int64Counter(
		ClaimsTotal,
		metric.WithDescription("Total number of payout claim attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create claims counter: %w", err)
	}

	mp.claimDurationHist, err = mp.meter.Float64Histogram(
		ClaimDuration,
		metric.WithDescription("Duration of payout claim processing in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create claim duration histogram: %w", err)
	}

	mp.fulfillmentOrdersCounter, err = mp.meter.Int64Counter(
		FulfillmentOrdersTotal,
		metric.WithDescription("Total number of reward orders sent to the fulfillment provider"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create fulfillment orders counter: %w", err)
	}

	mp.payoutsExpiredCounter, err = mp.meter.Int64Counter(
		PayoutsExpiredTotal,
		metric.WithDescription("Total number of payouts expired by the sweep"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create payouts expired counter: %w", err)
	}

	mp.natsMessagesPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordWebhookReceived records an incoming webhook event
func (mp *MetricsProvider) RecordWebhookReceived(provider, eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.webhooksReceivedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelProvider, provider),
			attribute.String(LabelEventType, eventType),
		),
	)
}

// RecordWebhookRejected records a webhook rejected before processing
func (mp *MetricsProvider) RecordWebhookRejected(provider, reason string) {
	if !mp.isEnabled() {
		return
	}

	mp.webhooksRejectedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelProvider, provider),
			attribute.String(LabelReason, reason),
		),
	)
}

// RecordDuplicateEvent records a redelivered event acknowledged without work
func (mp *MetricsProvider) RecordDuplicateEvent(provider string) {
	if !mp.isEnabled() {
		return
	}

	mp.duplicateEventsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelProvider, provider),
		),
	)
}

// RecordClaim records a claim attempt with its outcome and duration
func (mp *MetricsProvider) RecordClaim(outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(LabelOutcome, outcome),
	)

	mp.claimsCounter.Add(context.Background(), 1, attrs)
	mp.claimDurationHist.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordFulfillmentOrder records a reward order sent to the provider
func (mp *MetricsProvider) RecordFulfillmentOrder(outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.fulfillmentOrdersCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOutcome, outcome),
		),
	)
}

// RecordPayoutsExpired records payouts flagged by the expiry sweep
func (mp *MetricsProvider) RecordPayoutsExpired(count int64) {
	if !mp.isEnabled() || count == 0 {
		return
	}

	mp.payoutsExpiredCounter.Add(context.Background(), count)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.config.OTelEnabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
