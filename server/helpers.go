package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"sweatstakes/domain/services"

	log "github.com/sirupsen/logrus"
)

// readJSON decodes a single JSON value from the body. Unknown fields are
// allowed: providers add fields to their payloads without notice.
func readJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.WithError(err).Error("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// mapServiceError translates the service error taxonomy to an HTTP status
// and a client-safe message. Messages are fixed strings so internal state
// never leaks through error text.
func mapServiceError(err error) (int, string) {
	var providerErr *services.FulfillmentProviderError
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"
	case errors.Is(err, services.ErrNotAuthorized):
		return http.StatusForbidden, "not authorized"
	case errors.Is(err, services.ErrAlreadyClaimed):
		return http.StatusBadRequest, "payout already claimed"
	case errors.Is(err, services.ErrClaimExpired):
		return http.StatusBadRequest, "claim window expired"
	case errors.Is(err, services.ErrPoolNotAccepting):
		return http.StatusBadRequest, "pool is not accepting payments"
	case errors.As(err, &providerErr):
		return http.StatusInternalServerError, "reward fulfillment failed, please try again"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
