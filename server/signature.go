package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"sweatstakes/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// SignatureHeader carries the hex HMAC-SHA256 digest of the raw request body
const SignatureHeader = "X-Webhook-Signature"

// Provider labels for webhook metrics and logs
const (
	ProviderPayment     = "payment"
	ProviderFulfillment = "fulfillment"
)

const maxRequestBodyBytes = 1 << 20

// VerifySignature authenticates a webhook before anything parses it. The
// digest is computed over the raw body bytes; comparison is constant time.
// Failures get 401 and the body is never decoded.
func VerifySignature(provider string, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
			if err != nil {
				log.WithError(err).WithField("provider", provider).Warn("Failed to read webhook body")
				writeError(w, http.StatusBadRequest, "could not read request body")
				return
			}
			r.Body.Close()

			if !signatureMatches(secret, body, r.Header.Get(SignatureHeader)) {
				observability.GetMetrics().RecordWebhookRejected(provider, observability.RejectReasonInvalidSignature)
				log.WithField("provider", provider).Warn("Rejected webhook with invalid signature")
				writeError(w, http.StatusUnauthorized, "invalid webhook signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

func signatureMatches(secret, body []byte, header string) bool {
	if header == "" {
		return false
	}
	provided, err := hex.DecodeString(header)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}

// ComputeSignature returns the hex digest a caller must send for body
func ComputeSignature(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
