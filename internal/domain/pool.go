package domain

import "time"

// Revenue pool names. The funding pool is debited on disbursement; the
// category pools accumulate fee and interest revenue; deposits_held
// carries refundable deposits until refund approval.
const (
	PoolFunding       = "funding"
	PoolInterest      = "interest"
	PoolInsurance     = "insurance"
	PoolServiceCharge = "service_charge"
	PoolDepositsHeld  = "deposits_held"
)

// RevenuePool is a named running balance in minor currency units.
type RevenuePool struct {
	Name      string    `json:"name" db:"name"`
	Balance   int64     `json:"balance" db:"balance"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Wallet is a borrower's standing balance, the source for automatic
// deductions and the destination for deposit refunds.
type Wallet struct {
	BorrowerID string    `json:"borrower_id" db:"borrower_id"`
	Balance    int64     `json:"balance" db:"balance"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
