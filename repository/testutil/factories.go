package testutil

import (
	"time"

	"sweatstakes/domain/entities"
)

// CreateTestPendingPool creates a pending pool with default values
func CreateTestPendingPool(competitionID, creatorID int64) *entities.PendingPool {
	return &entities.PendingPool{
		CompetitionID:   competitionID,
		CreatorID:       creatorID,
		Amount:          10000,
		PayoutStructure: entities.PayoutStructure{{Placement: 1, Percent: 100}},
		Status:          entities.PendingPoolStatusPending,
	}
}

// CreateTestPrizePool creates an active prize pool with default values
func CreateTestPrizePool(competitionID, creatorID int64) *entities.PrizePool {
	return &entities.PrizePool{
		CompetitionID:    competitionID,
		CreatorID:        creatorID,
		TotalAmount:      10000,
		RemainingBalance: 10000,
		PayoutStructure:  entities.PayoutStructure{{Placement: 1, Percent: 70}, {Placement: 2, Percent: 30}},
		Status:           entities.PoolStatusActive,
	}
}

// CreateTestPrizePoolWithAmount creates an active prize pool with a specific amount
func CreateTestPrizePoolWithAmount(competitionID, creatorID, amount int64) *entities.PrizePool {
	pool := CreateTestPrizePool(competitionID, creatorID)
	pool.TotalAmount = amount
	pool.RemainingBalance = amount
	return pool
}

// CreateTestBuyIn creates a completed buy-in payment
func CreateTestBuyIn(poolID, competitionID, userID int64, transactionRef string) *entities.BuyInPayment {
	return &entities.BuyInPayment{
		PoolID:         poolID,
		CompetitionID:  competitionID,
		UserID:         userID,
		Amount:         2000,
		TransactionRef: transactionRef,
		Status:         entities.BuyInStatusCompleted,
	}
}

// CreateTestParticipant creates a prize-eligible participant
func CreateTestParticipant(competitionID, userID int64) *entities.CompetitionParticipant {
	return &entities.CompetitionParticipant{
		CompetitionID: competitionID,
		UserID:        userID,
		PrizeEligible: true,
	}
}

// CreateTestInvitation creates a pending invitation
func CreateTestInvitation(competitionID, inviterID, inviteeID int64) *entities.Invitation {
	return &entities.Invitation{
		CompetitionID: competitionID,
		InviterID:     inviterID,
		InviteeID:     inviteeID,
		Status:        entities.InvitationStatusPending,
	}
}

// CreateTestPayout creates an unclaimed payout with a future claim deadline
func CreateTestPayout(poolID, competitionID, winnerID int64, placement int, amount int64) *entities.PrizePayout {
	return &entities.PrizePayout{
		PoolID:         poolID,
		CompetitionID:  competitionID,
		WinnerID:       winnerID,
		Placement:      placement,
		Amount:         amount,
		Status:         entities.PayoutStatusUnclaimed,
		ClaimExpiresAt: time.Now().Add(90 * 24 * time.Hour),
	}
}

// CreateTestPayoutExpiring creates an unclaimed payout with a specific deadline
func CreateTestPayoutExpiring(poolID, competitionID, winnerID int64, placement int, amount int64, expiresAt time.Time) *entities.PrizePayout {
	payout := CreateTestPayout(poolID, competitionID, winnerID, placement, amount)
	payout.ClaimExpiresAt = expiresAt
	return payout
}

// CreateTestAuditEntry creates an audit entry for a money movement
func CreateTestAuditEntry(poolID *int64, competitionID, actorID int64, action entities.AuditAction, amount int64) *entities.PoolAuditEntry {
	return &entities.PoolAuditEntry{
		PoolID:        poolID,
		CompetitionID: competitionID,
		ActorID:       actorID,
		Action:        action,
		Amount:        amount,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
