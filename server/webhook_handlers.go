package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sweatstakes/domain/interfaces"
	"sweatstakes/domain/services"
	"sweatstakes/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// paymentWebhookBody mirrors the payment processor's event envelope. The
// processor stuffs routing context into the payment intent's metadata, all
// string-valued.
type paymentWebhookBody struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string            `json:"id"`
			Amount           int64             `json:"amount"`
			Metadata         map[string]string `json:"metadata"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

// fulfillmentWebhookBody mirrors the reward provider's status events
type fulfillmentWebhookBody struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		OrderRef string `json:"order_ref"`
		Reason   string `json:"reason"`
	} `json:"data"`
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var body paymentWebhookBody
	if err := readJSON(r, &body); err != nil {
		observability.GetMetrics().RecordWebhookRejected(ProviderPayment, observability.RejectReasonMalformedPayload)
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	if body.Data.Object.ID == "" {
		observability.GetMetrics().RecordWebhookRejected(ProviderPayment, observability.RejectReasonMalformedPayload)
		writeError(w, http.StatusBadRequest, "missing transaction reference")
		return
	}
	observability.GetMetrics().RecordWebhookReceived(ProviderPayment, body.Type)

	event := interfaces.PaymentEvent{
		TransactionRef: body.Data.Object.ID,
		EventType:      body.Type,
		Amount:         body.Data.Object.Amount,
		Kind:           body.Data.Object.Metadata["kind"],
		PendingPoolID:  metadataID(body.Data.Object.Metadata, "pending_pool_id"),
		CompetitionID:  metadataID(body.Data.Object.Metadata, "competition_id"),
		UserID:         metadataID(body.Data.Object.Metadata, "user_id"),
		InvitationID:   metadataID(body.Data.Object.Metadata, "invitation_id"),
	}
	if body.Data.Object.LastPaymentError != nil {
		event.FailureReason = body.Data.Object.LastPaymentError.Message
	}

	if err := s.deps.Payments.HandlePaymentEvent(r.Context(), event); err != nil {
		s.acknowledgeOrFail(w, ProviderPayment, body.ID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"received": true})
}

func (s *Server) handleFulfillmentWebhook(w http.ResponseWriter, r *http.Request) {
	var body fulfillmentWebhookBody
	if err := readJSON(r, &body); err != nil {
		observability.GetMetrics().RecordWebhookRejected(ProviderFulfillment, observability.RejectReasonMalformedPayload)
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}
	if body.ID == "" || body.Data.OrderRef == "" {
		observability.GetMetrics().RecordWebhookRejected(ProviderFulfillment, observability.RejectReasonMalformedPayload)
		writeError(w, http.StatusBadRequest, "missing event or order reference")
		return
	}
	observability.GetMetrics().RecordWebhookReceived(ProviderFulfillment, body.Type)

	occurredAt := body.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	err := s.deps.Fulfillment.HandleFulfillmentEvent(r.Context(), interfaces.FulfillmentEvent{
		EventRef:   body.ID,
		EventType:  body.Type,
		OrderRef:   body.Data.OrderRef,
		Reason:     body.Data.Reason,
		OccurredAt: occurredAt,
	})
	if err != nil {
		s.acknowledgeOrFail(w, ProviderFulfillment, body.ID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"received": true})
}

// acknowledgeOrFail answers a webhook processing error. Redelivered and
// unrecoverable events get 200 so the provider stops retrying; everything
// else returns its mapped status and relies on the provider's retry
// schedule.
func (s *Server) acknowledgeOrFail(w http.ResponseWriter, provider, eventID string, err error) {
	if errors.Is(err, services.ErrDuplicateEvent) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"received": true, "duplicate": true})
		return
	}
	log.WithError(err).WithFields(log.Fields{
		"provider": provider,
		"eventID":  eventID,
	}).Error("Webhook processing failed")
	if errors.Is(err, services.ErrPendingPoolNotFound) {
		// No retry can make the pending pool appear; redelivering this
		// event forever would be noise, so it is logged and acknowledged.
		writeJSON(w, http.StatusOK, map[string]interface{}{"received": true})
		return
	}
	status, message := mapServiceError(err)
	writeError(w, status, message)
}

// metadataID parses a numeric metadata value, 0 when absent or malformed
func metadataID(metadata map[string]string, key string) int64 {
	raw, ok := metadata[key]
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
