package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sweatstakes/application"
	"sweatstakes/domain/interfaces"
	"sweatstakes/domain/services"

	log "github.com/sirupsen/logrus"
)

// SubjectCompetitionCompleted is the subject the competition engine publishes
// final rankings on
const SubjectCompetitionCompleted = "competitions.completed"

// competitionCompletedPayload is the wire shape of a competition-completed
// envelope payload
type competitionCompletedPayload struct {
	CompetitionID int64     `json:"competition_id"`
	CompletedAt   time.Time `json:"completed_at"`
	Rankings      []struct {
		Placement int   `json:"placement"`
		UserID    int64 `json:"user_id"`
	} `json:"rankings"`
}

// CompetitionEventListener decodes competition engine messages and routes
// them to the settlement handler
type CompetitionEventListener struct {
	settlementHandler application.SettlementEventHandler
}

// NewCompetitionEventListener creates a new competition event listener
func NewCompetitionEventListener(settlementHandler application.SettlementEventHandler) *CompetitionEventListener {
	return &CompetitionEventListener{
		settlementHandler: settlementHandler,
	}
}

// HandleCompetitionEvent processes competition lifecycle events from NATS
func (l *CompetitionEventListener) HandleCompetitionEvent(ctx context.Context, data []byte) error {
	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal competition event envelope: %w", err)
	}

	if envelope.EventType != interfaces.CompetitionEventCompleted {
		log.WithField("eventType", envelope.EventType).Debug("Ignoring non-completion competition event")
		return nil
	}
	if envelope.EventID == "" {
		return errors.New("competition event envelope carries no event id")
	}

	var payload competitionCompletedPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal competition completed payload: %w", err)
	}
	if payload.CompetitionID == 0 {
		return errors.New("competition completed payload carries no competition id")
	}

	log.WithFields(log.Fields{
		"eventId":       envelope.EventID,
		"competitionID": payload.CompetitionID,
		"rankings":      len(payload.Rankings),
	}).Debug("Processing competition completed event")

	event := interfaces.CompetitionEvent{
		EventRef:      envelope.EventID,
		CompetitionID: payload.CompetitionID,
		CompletedAt:   payload.CompletedAt,
		Rankings:      make([]interfaces.PlacementResult, 0, len(payload.Rankings)),
	}
	for _, ranking := range payload.Rankings {
		event.Rankings = append(event.Rankings, interfaces.PlacementResult{
			Placement: ranking.Placement,
			WinnerID:  ranking.UserID,
		})
	}

	if err := l.settlementHandler.HandleCompetitionCompleted(ctx, event); err != nil {
		if errors.Is(err, services.ErrDuplicateEvent) {
			// Ack redeliveries, the first delivery already settled the pool
			return nil
		}
		return err
	}
	return nil
}
