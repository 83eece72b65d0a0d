package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sweatstakes/application"
	"sweatstakes/domain/entities"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type claimRequest struct {
	PayoutID int64 `json:"payoutId"`
}

// claimResponse is the winner-facing claim contract
type claimResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

type payoutResponse struct {
	ID             int64      `json:"id"`
	CompetitionID  int64      `json:"competitionId"`
	Placement      int        `json:"placement"`
	Amount         int64      `json:"amount"`
	Status         string     `json:"status"`
	OrderID        *string    `json:"orderId,omitempty"`
	ClaimExpiresAt time.Time  `json:"claimExpiresAt"`
	ClaimedAt      *time.Time `json:"claimedAt,omitempty"`
}

type poolResponse struct {
	CompetitionID    int64                    `json:"competitionId"`
	Status           string                   `json:"status"`
	TotalAmount      int64                    `json:"totalAmount"`
	RemainingBalance int64                    `json:"remainingBalance"`
	PayoutStructure  entities.PayoutStructure `json:"payoutStructure"`
	ParticipantCount int                      `json:"participantCount"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req claimRequest
	if err := readJSON(r, &req); err != nil || req.PayoutID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payout id")
		return
	}

	result, err := s.deps.Claims.ProcessClaim(r.Context(), userID, req.PayoutID)
	if err != nil {
		status, message := mapServiceError(err)
		writeJSON(w, status, claimResponse{Success: false, Message: message})
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{
		Success: true,
		Message: fmt.Sprintf("Prize of %d claimed, your reward is on its way", result.Payout.Amount),
		OrderID: result.OrderRef,
	})
}

func (s *Server) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var payouts []*entities.PrizePayout
	err := s.readOnly(r.Context(), func(ctx context.Context, uow application.UnitOfWork) error {
		var err error
		payouts, err = uow.PrizePayoutRepository().ListByWinner(ctx, userID)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("userID", userID).Error("Failed to list payouts")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now()
	responses := make([]payoutResponse, 0, len(payouts))
	for _, payout := range payouts {
		status := payout.Status
		if payout.IsClaimExpired(now) {
			// Overdue payouts the sweep has not flagged yet must not render
			// as claimable.
			status = entities.PayoutStatusExpired
		}
		responses = append(responses, payoutResponse{
			ID:             payout.ID,
			CompetitionID:  payout.CompetitionID,
			Placement:      payout.Placement,
			Amount:         payout.Amount,
			Status:         string(status),
			OrderID:        payout.FulfillmentOrderRef,
			ClaimExpiresAt: payout.ClaimExpiresAt,
			ClaimedAt:      payout.ClaimedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payouts": responses})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	competitionID, err := strconv.ParseInt(chi.URLParam(r, "competitionID"), 10, 64)
	if err != nil || competitionID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid competition id")
		return
	}

	var pool *entities.PrizePool
	var participants int
	err = s.readOnly(r.Context(), func(ctx context.Context, uow application.UnitOfWork) error {
		var err error
		pool, err = uow.PrizePoolRepository().GetByCompetition(ctx, competitionID)
		if err != nil {
			return err
		}
		if pool == nil {
			return nil
		}
		participants, err = uow.ParticipantRepository().CountByCompetition(ctx, competitionID)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("competitionID", competitionID).Error("Failed to load pool")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if pool == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	writeJSON(w, http.StatusOK, poolResponse{
		CompetitionID:    pool.CompetitionID,
		Status:           string(pool.Status),
		TotalAmount:      pool.TotalAmount,
		RemainingBalance: pool.RemainingBalance,
		PayoutStructure:  pool.PayoutStructure,
		ParticipantCount: participants,
	})
}

// readOnly runs fn inside a short-lived unit of work for queries
func (s *Server) readOnly(ctx context.Context, fn func(context.Context, application.UnitOfWork) error) error {
	uow := s.deps.UoWFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(ctx, uow); err != nil {
		return err
	}
	return uow.Commit()
}
