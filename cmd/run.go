package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"sweatstakes/application"
	"sweatstakes/config"
	"sweatstakes/database"
	"sweatstakes/domain/interfaces"
	"sweatstakes/infrastructure"
	"sweatstakes/infrastructure/observability"
	"sweatstakes/server"

	"golang.org/x/sync/errgroup"
)

// Run initializes and starts the settlement engine
func Run(ctx context.Context) error {
	log.Println("Starting settlement engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize metrics
	log.Println("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	log.Println("Metrics initialized successfully")

	// Initialize NATS event publishing. Without NATS_SERVERS the engine
	// runs with a no-op publisher and skips the competition consumer.
	var eventPublisher interfaces.EventPublisher
	var natsClient *infrastructure.NATSClient
	if cfg.NATSServers != "" {
		log.Println("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := natsPublisher.EnsureSettlementEventStream(); err != nil {
			return fmt.Errorf("failed to ensure settlement event stream: %w", err)
		}
		eventPublisher = natsPublisher
		log.Println("NATS connection established successfully")
	} else {
		log.Println("NATS_SERVERS not set, running without event publishing")
		eventPublisher = infrastructure.NewNoopEventPublisher()
	}

	// Initialize unit of work factory
	log.Println("Initializing unit of work factory...")
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	log.Println("Unit of work factory initialized successfully")

	// Initialize application handlers
	log.Println("Initializing handlers...")
	fulfillmentClient := infrastructure.NewHTTPFulfillmentClient(cfg.FulfillmentServiceURL, cfg.FulfillmentAPIKey)
	paymentHandler := application.NewPaymentEventHandler(uowFactory)
	fulfillmentHandler := application.NewFulfillmentEventHandler(uowFactory)
	claimProcessor := application.NewClaimProcessor(uowFactory, fulfillmentClient)
	settlementHandler := application.NewSettlementEventHandler(uowFactory, cfg.ClaimWindow())
	log.Println("Handlers initialized successfully")

	// Consume competition results so completed competitions settle their pools
	if natsClient != nil {
		log.Println("Starting message consumer...")
		consumer := infrastructure.NewMessageConsumer(natsClient, settlementHandler)
		if err := consumer.Start(); err != nil {
			return fmt.Errorf("failed to start message consumer: %w", err)
		}
		log.Println("Message consumer started successfully")
	}

	// Start the expiry sweep
	log.Println("Starting expiry worker...")
	expiryWorker := application.NewExpiryWorker(uowFactory, cfg.ExpirySweepInterval, cfg.ProcessingStuckAfter)
	if err := expiryWorker.Start(); err != nil {
		return fmt.Errorf("failed to start expiry worker: %w", err)
	}
	log.Println("Expiry worker started successfully")

	// Start the HTTP server
	httpServer := server.New(cfg, server.Deps{
		Payments:    paymentHandler,
		Fulfillment: fulfillmentHandler,
		Claims:      claimProcessor,
		UoWFactory:  uowFactory,
		DB:          db,
	})

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Start()
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	log.Printf("Settlement engine is running in %s mode...", cfg.Environment)
	runErr := g.Wait()

	// Cleanup resources
	log.Println("Shutting down settlement engine...")

	if err := expiryWorker.Stop(); err != nil {
		log.Printf("Error stopping expiry worker: %v", err)
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return runErr
}
