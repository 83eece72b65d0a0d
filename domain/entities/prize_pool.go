package entities

import "time"

// PoolStatus represents the state of a confirmed prize pool
type PoolStatus string

const (
	PoolStatusActive  PoolStatus = "active"
	PoolStatusSettled PoolStatus = "settled"
	PoolStatusClosed  PoolStatus = "closed"
)

// PrizePool represents confirmed money attached to a competition. TotalAmount
// only grows through funding events; RemainingBalance only shrinks through
// payout execution debits and never exceeds TotalAmount.
type PrizePool struct {
	ID               int64           `db:"id"`
	CompetitionID    int64           `db:"competition_id"`
	CreatorID        int64           `db:"creator_id"`
	TotalAmount      int64           `db:"total_amount"`
	RemainingBalance int64           `db:"remaining_balance"`
	PayoutStructure  PayoutStructure `db:"payout_structure"`
	Status           PoolStatus      `db:"status"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// IsActive checks if the pool is accepting money
func (p *PrizePool) IsActive() bool {
	return p.Status == PoolStatusActive
}

// IsSettled checks if payouts have been created for the pool
func (p *PrizePool) IsSettled() bool {
	return p.Status == PoolStatusSettled
}

// CanAcceptBuyIns checks if buy-in payments may still be applied
func (p *PrizePool) CanAcceptBuyIns() bool {
	return p.IsActive()
}

// HasAvailable checks if the pool can cover a debit of the given amount
func (p *PrizePool) HasAvailable(amount int64) bool {
	return p.RemainingBalance >= amount
}

// Settle marks the pool as settled once payouts exist
func (p *PrizePool) Settle() {
	if p.Status == PoolStatusActive {
		p.Status = PoolStatusSettled
	}
}
