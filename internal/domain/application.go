package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// Loan categories, tiered by principal size.
const (
	CategoryMicro    = "micro"
	CategoryStandard = "standard"
	CategorySME      = "sme"
)

// LoanApplication represents a borrower's request for a loan. It is
// mutated only by the approval decision; once approved or rejected it is
// immutable except for audit fields.
type LoanApplication struct {
	ID              uuid.UUID `json:"id" db:"id"`
	BorrowerID      string    `json:"borrower_id" db:"borrower_id"`
	Principal       int64     `json:"principal" db:"principal"`
	TermWeeks       int       `json:"term_weeks" db:"term_weeks"`
	Category        string    `json:"category" db:"category"`
	Purpose         string    `json:"purpose" db:"purpose"`
	Status          string    `json:"status" db:"status"`
	Deposit         int64     `json:"deposit" db:"deposit"`
	InsuranceFee    int64     `json:"insurance_fee" db:"insurance_fee"`
	ServiceCharge   int64     `json:"service_charge" db:"service_charge"`
	TotalUpfront    int64     `json:"total_upfront" db:"total_upfront"`
	UpfrontPaid     bool      `json:"upfront_paid" db:"upfront_paid"`
	PaymentProofRef string    `json:"payment_proof_ref" db:"payment_proof_ref"`
	RejectReason    string    `json:"reject_reason" db:"reject_reason"`
	DecidedAt       *time.Time `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// IsDecided reports whether the application has reached a terminal status.
func (a *LoanApplication) IsDecided() bool {
	return a.Status != ApplicationStatusPending
}

// UpfrontCostBreakdown is derived from principal and category; it is
// never stored independently of the application and must always equal
// the sum of its parts.
type UpfrontCostBreakdown struct {
	Deposit       int64 `json:"deposit"`
	InsuranceFee  int64 `json:"insurance_fee"`
	ServiceCharge int64 `json:"service_charge"`
	Total         int64 `json:"total"`
}
