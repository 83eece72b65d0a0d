package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"sweatstakes/application"

	log "github.com/sirupsen/logrus"
)

// MessageHandler defines a function that handles raw message bytes
type MessageHandler func(ctx context.Context, data []byte) error

// MessageConsumer routes inbound NATS messages to their handlers. It shares
// the engine's NATS client; the caller owns connect and close.
type MessageConsumer struct {
	natsClient *NATSClient
	handlers   map[string]MessageHandler
	mu         sync.RWMutex
}

// NewMessageConsumer creates a message consumer with all handlers configured
func NewMessageConsumer(natsClient *NATSClient, settlementHandler application.SettlementEventHandler) *MessageConsumer {
	mc := &MessageConsumer{
		natsClient: natsClient,
		handlers:   make(map[string]MessageHandler),
	}

	listener := NewCompetitionEventListener(settlementHandler)
	mc.RegisterHandler(SubjectCompetitionCompleted, listener.HandleCompetitionEvent)

	return mc
}

// RegisterHandler registers a handler for a specific subject pattern
func (mc *MessageConsumer) RegisterHandler(subject string, handler MessageHandler) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.handlers[subject] = handler
	log.WithField("subject", subject).Info("Registered message handler")
}

// Start ensures the inbound streams exist and subscribes to every registered
// subject. Messages are delivered on JetStream's goroutines until the shared
// client closes.
func (mc *MessageConsumer) Start() error {
	if err := mc.natsClient.EnsureCompetitionEventStream(); err != nil {
		return fmt.Errorf("failed to ensure competition event stream: %w", err)
	}

	mc.mu.RLock()
	subjects := make([]string, 0, len(mc.handlers))
	for subject := range mc.handlers {
		subjects = append(subjects, subject)
	}
	mc.mu.RUnlock()

	for _, subject := range subjects {
		if err := mc.subscribe(subject); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}

	log.WithField("subjects", subjects).Info("Message consumer subscribed")
	return nil
}

// subscribe sets up a subscription for a specific subject
func (mc *MessageConsumer) subscribe(subject string) error {
	return mc.natsClient.Subscribe(subject, func(data []byte) error {
		mc.mu.RLock()
		handler, exists := mc.handlers[subject]
		mc.mu.RUnlock()

		if !exists {
			return fmt.Errorf("no handler registered for subject: %s", subject)
		}

		return handler(context.Background(), data)
	})
}
