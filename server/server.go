package server

import (
	"context"
	"net/http"
	"time"

	"sweatstakes/application"
	"sweatstakes/config"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the HTTP layer dispatches into
type Deps struct {
	Payments    application.PaymentEventHandler
	Fulfillment application.FulfillmentEventHandler
	Claims      application.ClaimProcessor
	UoWFactory  application.UnitOfWorkFactory
	DB          Pinger
}

// Server exposes the webhook endpoints and the winner-facing API
type Server struct {
	cfg        *config.Config
	deps       Deps
	router     *chi.Mux
	httpServer *http.Server
}

// New builds the router and wires every route. The webhook routes verify
// signatures before anything touches the body; the API routes require a
// bearer token.
func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SignatureHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", s.handleHealth)

	router.Route("/webhooks", func(r chi.Router) {
		r.With(VerifySignature(ProviderPayment, []byte(cfg.PaymentWebhookSecret))).
			Post("/payments", s.handlePaymentWebhook)
		r.With(VerifySignature(ProviderFulfillment, []byte(cfg.FulfillmentWebhookSecret))).
			Post("/fulfillment", s.handleFulfillmentWebhook)
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(Authenticate([]byte(cfg.JWTSecret)))
		r.Use(limitBody)
		r.Post("/payouts/claim", s.handleClaim)
		r.Get("/payouts", s.handleListPayouts)
		r.Get("/pools/{competitionID}", s.handleGetPool)
	})

	s.router = router
	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown or a listener error
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			log.WithError(err).Error("Health check cannot reach the database")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limitBody caps API request bodies at the same size the webhook reader allows
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with the outcome status
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}
