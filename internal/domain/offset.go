package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	OffsetStatusPending  = "pending"
	OffsetStatusApproved = "approved"
	OffsetStatusRejected = "rejected"
)

const (
	OffsetKindOffset = "offset"
	OffsetKindRefund = "refund"
)

// Sources of funds for an offset.
const (
	OffsetSourceDeposit         = "deposit"
	OffsetSourceStandingBalance = "standing_balance"
	OffsetSourceExternal        = "external"
)

// OffsetRequest covers both request types sharing one shape: an offset
// applies funds against a loan's remaining balance, a refund returns the
// refundable deposit after completion. Created pending by the borrower
// side; only an operator decision moves money, and a decision is
// terminal.
type OffsetRequest struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	LoanID     uuid.UUID  `json:"loan_id" db:"loan_id"`
	BorrowerID string     `json:"borrower_id" db:"borrower_id"`
	Kind       string     `json:"kind" db:"kind"`
	Source     string     `json:"source" db:"source"`
	Amount     int64      `json:"amount" db:"amount"`
	Status     string     `json:"status" db:"status"`
	Note       string     `json:"note" db:"note"`
	DecidedAt  *time.Time `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IsDecided reports whether the request has reached a terminal status.
func (r *OffsetRequest) IsDecided() bool {
	return r.Status != OffsetStatusPending
}

// ValidOffsetSource reports whether s names a known source of funds.
func ValidOffsetSource(s string) bool {
	switch s {
	case OffsetSourceDeposit, OffsetSourceStandingBalance, OffsetSourceExternal:
		return true
	}
	return false
}
