package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sweatstakes/domain/interfaces"
	"sweatstakes/domain/services"

	log "github.com/sirupsen/logrus"
)

// HTTPFulfillmentClient calls the external reward fulfillment service over
// HTTP. The engine holds no database transaction while this runs.
type HTTPFulfillmentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPFulfillmentClient creates a fulfillment client for the given
// service endpoint
func NewHTTPFulfillmentClient(baseURL, apiKey string) *HTTPFulfillmentClient {
	return &HTTPFulfillmentClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rewardOrderRequest struct {
	PayoutID      int64 `json:"payout_id"`
	CompetitionID int64 `json:"competition_id"`
	WinnerID      int64 `json:"winner_id"`
	Amount        int64 `json:"amount"`
}

type rewardOrderResponse struct {
	OrderRef  string `json:"order_ref"`
	RewardRef string `json:"reward_ref"`
}

// CreateRewardOrder asks the provider to issue the reward. The idempotency
// key travels as a header, so provider-side retries of the same claim
// attempt resolve to one order.
func (c *HTTPFulfillmentClient) CreateRewardOrder(ctx context.Context, req interfaces.RewardOrderRequest) (*interfaces.RewardOrderResult, error) {
	body, err := json.Marshal(rewardOrderRequest{
		PayoutID:      req.PayoutID,
		CompetitionID: req.CompetitionID,
		WinnerID:      req.WinnerID,
		Amount:        req.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reward order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reward-orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, services.NewFulfillmentProviderError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.WithFields(log.Fields{
			"status":   resp.StatusCode,
			"payoutID": req.PayoutID,
			"body":     string(snippet),
		}).Error("Fulfillment provider rejected reward order")
		return nil, services.NewFulfillmentProviderError(resp.StatusCode,
			fmt.Errorf("reward order rejected: %s", string(snippet)))
	}

	var result rewardOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, services.NewFulfillmentProviderError(resp.StatusCode,
			fmt.Errorf("failed to decode reward order response: %w", err))
	}
	if result.OrderRef == "" {
		return nil, services.NewFulfillmentProviderError(resp.StatusCode,
			fmt.Errorf("reward order response missing order_ref"))
	}

	log.WithFields(log.Fields{
		"payoutID": req.PayoutID,
		"orderRef": result.OrderRef,
	}).Info("Fulfillment provider accepted reward order")

	return &interfaces.RewardOrderResult{
		OrderRef:  result.OrderRef,
		RewardRef: result.RewardRef,
	}, nil
}
