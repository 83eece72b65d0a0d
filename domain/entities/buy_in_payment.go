package entities

import "time"

// BuyInStatus represents the outcome of a buy-in payment
type BuyInStatus string

const (
	BuyInStatusCompleted BuyInStatus = "completed"
	BuyInStatusFailed    BuyInStatus = "failed"
)

// BuyInPayment represents one participant's processed buy-in for a
// competition. TransactionRef is the payment processor's reference and is
// unique, which makes webhook redelivery structurally harmless.
type BuyInPayment struct {
	ID             int64       `db:"id"`
	PoolID         int64       `db:"pool_id"`
	CompetitionID  int64       `db:"competition_id"`
	UserID         int64       `db:"user_id"`
	Amount         int64       `db:"amount"`
	TransactionRef string      `db:"transaction_ref"`
	Status         BuyInStatus `db:"status"`
	CreatedAt      time.Time   `db:"created_at"`
}

// IsCompleted checks if the buy-in contributed money to the pool
func (b *BuyInPayment) IsCompleted() bool {
	return b.Status == BuyInStatusCompleted
}
