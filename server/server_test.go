package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sweatstakes/application"
	"sweatstakes/config"
	"sweatstakes/domain/interfaces"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

type stubPaymentHandler struct {
	events []interfaces.PaymentEvent
	err    error
}

func (s *stubPaymentHandler) HandlePaymentEvent(ctx context.Context, event interfaces.PaymentEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type stubFulfillmentHandler struct {
	events []interfaces.FulfillmentEvent
	err    error
}

func (s *stubFulfillmentHandler) HandleFulfillmentEvent(ctx context.Context, event interfaces.FulfillmentEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type stubClaimProcessor struct {
	lastUserID   int64
	lastPayoutID int64
	calls        int
	result       *application.ClaimResult
	err          error
}

func (s *stubClaimProcessor) ProcessClaim(ctx context.Context, userID, payoutID int64) (*application.ClaimResult, error) {
	s.calls++
	s.lastUserID = userID
	s.lastPayoutID = payoutID
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

type testStubs struct {
	payments    *stubPaymentHandler
	fulfillment *stubFulfillmentHandler
	claims      *stubClaimProcessor
	uowFactory  *application.TestUnitOfWorkFactory
	db          *stubPinger
}

func newTestServer() (http.Handler, *testStubs) {
	stubs := &testStubs{
		payments:    &stubPaymentHandler{},
		fulfillment: &stubFulfillmentHandler{},
		claims:      &stubClaimProcessor{},
		uowFactory:  application.NewTestUnitOfWorkFactory(),
		db:          &stubPinger{},
	}
	srv := New(config.NewTestConfig(), Deps{
		Payments:    stubs.payments,
		Fulfillment: stubs.fulfillment,
		Claims:      stubs.claims,
		UoWFactory:  stubs.uowFactory,
		DB:          stubs.db,
	})
	return srv.Handler(), stubs
}

func TestHealth(t *testing.T) {
	t.Run("reports ok while the database responds", func(t *testing.T) {
		handler, _ := newTestServer()

		rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", decodeBody(t, rec)["status"])
	})

	t.Run("reports degraded when the database is unreachable", func(t *testing.T) {
		handler, stubs := newTestServer()
		stubs.db.err = errors.New("connection refused")

		rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "degraded", decodeBody(t, rec)["status"])
	})
}

// signedPost builds a webhook request with a valid signature over body
func signedPost(t *testing.T, path, secret string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, ComputeSignature([]byte(secret), body))
	return req
}

func bearerToken(t *testing.T, secret string, userID int64) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doRequest(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
