package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sweatstakes/application"
	"sweatstakes/domain/entities"
	"sweatstakes/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func authorizedRequest(t *testing.T, method, path string, userID int64) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, "test-jwt-secret", userID))
	return req
}

func authorizedClaim(t *testing.T, userID int64, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payouts/claim", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, "test-jwt-secret", userID))
	return req
}

func TestClaimEndpoint(t *testing.T) {
	t.Run("claim returns the order reference", func(t *testing.T) {
		handler, stubs := newTestServer()
		stubs.claims.result = &application.ClaimResult{
			Payout: &entities.PrizePayout{
				ID:     300,
				Amount: 7000,
				Status: entities.PayoutStatusExecuted,
			},
			OrderRef: "order_abc",
		}

		rec := doRequest(handler, authorizedClaim(t, 200, `{"payoutId": 300}`))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "order_abc", body["orderId"])
		assert.NotEmpty(t, body["message"])

		assert.Equal(t, 1, stubs.claims.calls)
		assert.Equal(t, int64(200), stubs.claims.lastUserID)
		assert.Equal(t, int64(300), stubs.claims.lastPayoutID)
	})

	t.Run("claim without a token is unauthorized", func(t *testing.T) {
		handler, stubs := newTestServer()

		req := httptest.NewRequest(http.MethodPost, "/api/payouts/claim", strings.NewReader(`{"payoutId": 300}`))
		rec := doRequest(handler, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, stubs.claims.calls)
	})

	t.Run("claim with a foreign token is unauthorized", func(t *testing.T) {
		handler, stubs := newTestServer()

		req := httptest.NewRequest(http.MethodPost, "/api/payouts/claim", strings.NewReader(`{"payoutId": 300}`))
		req.Header.Set("Authorization", "Bearer "+bearerToken(t, "some-other-secret", 200))
		rec := doRequest(handler, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, stubs.claims.calls)
	})

	t.Run("invalid payout id is a bad request", func(t *testing.T) {
		bodies := []struct {
			name string
			body string
		}{
			{"non-numeric id", `{"payoutId": "abc"}`},
			{"missing id", `{}`},
			{"not json", `payout 300 please`},
		}

		for _, tc := range bodies {
			t.Run(tc.name, func(t *testing.T) {
				handler, stubs := newTestServer()

				rec := doRequest(handler, authorizedClaim(t, 200, tc.body))

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Zero(t, stubs.claims.calls)
			})
		}
	})

	t.Run("claim errors map onto their statuses", func(t *testing.T) {
		cases := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{"missing payout", fmt.Errorf("payout 300: %w", services.ErrRecordNotFound), http.StatusNotFound},
			{"foreign payout", fmt.Errorf("user 200 does not own payout 300: %w", services.ErrNotAuthorized), http.StatusForbidden},
			{"already claimed", fmt.Errorf("payout 300 is executed: %w", services.ErrAlreadyClaimed), http.StatusBadRequest},
			{"window closed", fmt.Errorf("payout 300 expired: %w", services.ErrClaimExpired), http.StatusBadRequest},
			{"provider down", services.NewFulfillmentProviderError(502, fmt.Errorf("upstream unavailable")), http.StatusInternalServerError},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				handler, stubs := newTestServer()
				stubs.claims.err = tc.err

				rec := doRequest(handler, authorizedClaim(t, 200, `{"payoutId": 300}`))

				assert.Equal(t, tc.wantStatus, rec.Code)
				assert.Equal(t, false, decodeBody(t, rec)["success"])
			})
		}
	})

	t.Run("ownership rejection does not leak payout state", func(t *testing.T) {
		handler, stubs := newTestServer()
		stubs.claims.err = fmt.Errorf("user 999 does not own payout 300: %w", services.ErrNotAuthorized)

		rec := doRequest(handler, authorizedClaim(t, 999, `{"payoutId": 300}`))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not authorized", decodeBody(t, rec)["message"])
	})
}

func TestPayoutListing(t *testing.T) {
	t.Run("returns the caller's payouts", func(t *testing.T) {
		handler, stubs := newTestServer()

		orderRef := "order_abc"
		stubs.uowFactory.Mocks.PayoutRepo.On("ListByWinner", mock.Anything, int64(200)).Return([]*entities.PrizePayout{
			{
				ID:                  300,
				CompetitionID:       55,
				WinnerID:            200,
				Placement:           1,
				Amount:              7000,
				Status:              entities.PayoutStatusExecuted,
				ClaimExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
				FulfillmentOrderRef: &orderRef,
			},
			{
				ID:             301,
				CompetitionID:  56,
				WinnerID:       200,
				Placement:      2,
				Amount:         3000,
				Status:         entities.PayoutStatusUnclaimed,
				ClaimExpiresAt: time.Now().Add(30 * 24 * time.Hour),
			},
		}, nil)

		rec := doRequest(handler, authorizedRequest(t, http.MethodGet, "/api/payouts", 200))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		payouts, ok := body["payouts"].([]interface{})
		require.True(t, ok)
		require.Len(t, payouts, 2)

		first := payouts[0].(map[string]interface{})
		assert.Equal(t, float64(300), first["id"])
		assert.Equal(t, "executed", first["status"])
		assert.Equal(t, "order_abc", first["orderId"])

		second := payouts[1].(map[string]interface{})
		assert.Equal(t, "unclaimed", second["status"])
		assert.NotContains(t, second, "orderId")

		require.Len(t, stubs.uowFactory.Created, 1)
		assert.True(t, stubs.uowFactory.Created[0].Committed)
	})

	t.Run("overdue unclaimed payouts list as expired", func(t *testing.T) {
		handler, stubs := newTestServer()

		// The sweep has not flagged this one yet; the listing must still
		// render it unclaimable.
		stubs.uowFactory.Mocks.PayoutRepo.On("ListByWinner", mock.Anything, int64(200)).Return([]*entities.PrizePayout{
			{
				ID:             302,
				CompetitionID:  57,
				WinnerID:       200,
				Placement:      1,
				Amount:         5000,
				Status:         entities.PayoutStatusUnclaimed,
				ClaimExpiresAt: time.Now().Add(-time.Hour),
			},
			{
				ID:             303,
				CompetitionID:  58,
				WinnerID:       200,
				Placement:      1,
				Amount:         2500,
				Status:         entities.PayoutStatusDelivered,
				ClaimExpiresAt: time.Now().Add(-time.Hour),
			},
		}, nil)

		rec := doRequest(handler, authorizedRequest(t, http.MethodGet, "/api/payouts", 200))

		assert.Equal(t, http.StatusOK, rec.Code)
		payouts, ok := decodeBody(t, rec)["payouts"].([]interface{})
		require.True(t, ok)
		require.Len(t, payouts, 2)

		overdue := payouts[0].(map[string]interface{})
		assert.Equal(t, "expired", overdue["status"])

		// A delivered payout is past its window by definition and keeps
		// its real status.
		delivered := payouts[1].(map[string]interface{})
		assert.Equal(t, "delivered", delivered["status"])
	})

	t.Run("listing without a token is unauthorized", func(t *testing.T) {
		handler, stubs := newTestServer()

		rec := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/payouts", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, stubs.uowFactory.Created)
	})
}

func TestPoolSummary(t *testing.T) {
	t.Run("includes balances and participant count", func(t *testing.T) {
		handler, stubs := newTestServer()

		stubs.uowFactory.Mocks.PoolRepo.On("GetByCompetition", mock.Anything, int64(55)).Return(&entities.PrizePool{
			ID:               9,
			CompetitionID:    55,
			CreatorID:        100,
			TotalAmount:      14000,
			RemainingBalance: 4200,
			PayoutStructure:  entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}},
			Status:           entities.PoolStatusSettled,
		}, nil)
		stubs.uowFactory.Mocks.ParticipantRepo.On("CountByCompetition", mock.Anything, int64(55)).Return(3, nil)

		rec := doRequest(handler, authorizedRequest(t, http.MethodGet, "/api/pools/55", 200))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(55), body["competitionId"])
		assert.Equal(t, "settled", body["status"])
		assert.Equal(t, float64(14000), body["totalAmount"])
		assert.Equal(t, float64(4200), body["remainingBalance"])
		assert.Equal(t, float64(3), body["participantCount"])
	})

	t.Run("missing pool is not found", func(t *testing.T) {
		handler, stubs := newTestServer()

		stubs.uowFactory.Mocks.PoolRepo.On("GetByCompetition", mock.Anything, int64(77)).Return(nil, nil)

		rec := doRequest(handler, authorizedRequest(t, http.MethodGet, "/api/pools/77", 200))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
