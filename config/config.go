package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"sweatstakes/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	HTTPAddr    string // Listen address for the webhook and claim API
	CORSOrigins []string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Webhook verification secrets, one per provider
	PaymentWebhookSecret     string
	FulfillmentWebhookSecret string

	// Claim API authentication
	JWTSecret string

	// Fulfillment service configuration
	FulfillmentServiceURL string
	FulfillmentAPIKey     string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Claim lifecycle
	ClaimWindowDays      int           // How long winners get to claim a payout
	ExpirySweepInterval  time.Duration // How often the expiry sweep runs
	ProcessingStuckAfter time.Duration // Age at which a processing claim is flagged

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// ClaimWindow returns the claim window as a duration
func (c *Config) ClaimWindow() time.Duration {
	return time.Duration(c.ClaimWindowDays) * 24 * time.Hour
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine; production sets real env vars.
	_ = godotenv.Load()

	config := &Config{
		// HTTP
		HTTPAddr: getEnvWithDefault("HTTP_ADDR", ":8080"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Webhook secrets
		PaymentWebhookSecret:     os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		FulfillmentWebhookSecret: os.Getenv("FULFILLMENT_WEBHOOK_SECRET"),

		// Claim API
		JWTSecret: os.Getenv("JWT_SECRET"),

		// Fulfillment service
		FulfillmentServiceURL: os.Getenv("FULFILLMENT_SERVICE_URL"),
		FulfillmentAPIKey:     os.Getenv("FULFILLMENT_API_KEY"),

		// NATS. Left empty the engine runs with a no-op publisher.
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Claim lifecycle defaults
		ClaimWindowDays:      90,
		ExpirySweepInterval:  time.Hour,
		ProcessingStuckAfter: 30 * time.Minute,

		// OpenTelemetry defaults
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "settlement-engine"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: 60000,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				config.CORSOrigins = append(config.CORSOrigins, origin)
			}
		}
	}

	if days := os.Getenv("CLAIM_WINDOW_DAYS"); days != "" {
		if parsed, err := strconv.Atoi(days); err == nil && parsed > 0 {
			config.ClaimWindowDays = parsed
		}
	}
	if interval := os.Getenv("EXPIRY_SWEEP_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil && parsed > 0 {
			config.ExpirySweepInterval = parsed
		}
	}
	if stuckAfter := os.Getenv("PROCESSING_STUCK_AFTER"); stuckAfter != "" {
		if parsed, err := time.ParseDuration(stuckAfter); err == nil && parsed > 0 {
			config.ProcessingStuckAfter = parsed
		}
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		config.OTelEnabled = enabled == "true" || enabled == "1"
	}
	if millis := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); millis != "" {
		if parsed, err := strconv.Atoi(millis); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.PaymentWebhookSecret == "" {
			return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required")
		}
		if config.FulfillmentWebhookSecret == "" {
			return nil, fmt.Errorf("FULFILLMENT_WEBHOOK_SECRET is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		if config.FulfillmentServiceURL == "" {
			return nil, fmt.Errorf("FULFILLMENT_SERVICE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		HTTPAddr:                 ":0",
		PaymentWebhookSecret:     "test-payment-secret",
		FulfillmentWebhookSecret: "test-fulfillment-secret",
		JWTSecret:                "test-jwt-secret",
		ClaimWindowDays:          90,
		ExpirySweepInterval:      time.Hour,
		ProcessingStuckAfter:     30 * time.Minute,
		OTelExporterType:         "none",
	}
}
