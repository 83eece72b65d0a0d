package repository

import (
	"context"
	"fmt"

	"sweatstakes/database"
	"sweatstakes/domain/entities"

	"github.com/jackc/pgx/v5"
)

// BuyInPaymentRepository implements buy-in payment data access
type BuyInPaymentRepository struct {
	q Queryable
}

// NewBuyInPaymentRepository creates a new buy-in payment repository
func NewBuyInPaymentRepository(db *database.DB) *BuyInPaymentRepository {
	return &BuyInPaymentRepository{q: db.Pool}
}

// newBuyInPaymentRepository creates a new buy-in payment repository with a transaction
func newBuyInPaymentRepository(tx Queryable) *BuyInPaymentRepository {
	return &BuyInPaymentRepository{q: tx}
}

// Create records a processed buy-in payment
func (r *BuyInPaymentRepository) Create(ctx context.Context, payment *entities.BuyInPayment) error {
	query := `
		INSERT INTO buy_in_payments (pool_id, competition_id, user_id, amount, transaction_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		payment.PoolID,
		payment.CompetitionID,
		payment.UserID,
		payment.Amount,
		payment.TransactionRef,
		payment.Status,
	).Scan(&payment.ID, &payment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create buy-in payment: %w", err)
	}

	return nil
}

// GetByTransactionRef retrieves a buy-in by the payment processor's reference
func (r *BuyInPaymentRepository) GetByTransactionRef(ctx context.Context, transactionRef string) (*entities.BuyInPayment, error) {
	query := `
		SELECT id, pool_id, competition_id, user_id, amount, transaction_ref, status, created_at
		FROM buy_in_payments
		WHERE transaction_ref = $1
	`

	var payment entities.BuyInPayment
	err := r.q.QueryRow(ctx, query, transactionRef).Scan(
		&payment.ID,
		&payment.PoolID,
		&payment.CompetitionID,
		&payment.UserID,
		&payment.Amount,
		&payment.TransactionRef,
		&payment.Status,
		&payment.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get buy-in by transaction ref %s: %w", transactionRef, err)
	}

	return &payment, nil
}

// GetCompletedByPoolAndUser retrieves a user's completed buy-in for a pool
func (r *BuyInPaymentRepository) GetCompletedByPoolAndUser(ctx context.Context, poolID, userID int64) (*entities.BuyInPayment, error) {
	query := `
		SELECT id, pool_id, competition_id, user_id, amount, transaction_ref, status, created_at
		FROM buy_in_payments
		WHERE pool_id = $1 AND user_id = $2 AND status = 'completed'
	`

	var payment entities.BuyInPayment
	err := r.q.QueryRow(ctx, query, poolID, userID).Scan(
		&payment.ID,
		&payment.PoolID,
		&payment.CompetitionID,
		&payment.UserID,
		&payment.Amount,
		&payment.TransactionRef,
		&payment.Status,
		&payment.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get buy-in for pool %d user %d: %w", poolID, userID, err)
	}

	return &payment, nil
}

// ListByPool returns all buy-ins recorded against a pool
func (r *BuyInPaymentRepository) ListByPool(ctx context.Context, poolID int64) ([]*entities.BuyInPayment, error) {
	query := `
		SELECT id, pool_id, competition_id, user_id, amount, transaction_ref, status, created_at
		FROM buy_in_payments
		WHERE pool_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buy-ins for pool %d: %w", poolID, err)
	}
	defer rows.Close()

	var payments []*entities.BuyInPayment
	for rows.Next() {
		var payment entities.BuyInPayment
		err := rows.Scan(
			&payment.ID,
			&payment.PoolID,
			&payment.CompetitionID,
			&payment.UserID,
			&payment.Amount,
			&payment.TransactionRef,
			&payment.Status,
			&payment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buy-in payment: %w", err)
		}
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buy-in payments: %w", err)
	}

	return payments, nil
}
