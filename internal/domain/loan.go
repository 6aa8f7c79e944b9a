package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusCompleted = "completed"
	LoanStatusDefaulted = "defaulted"
	LoanStatusSuspended = "suspended"
)

// Loan is the active record created from an approved application. Its ID
// is shared with the originating application. Loans are never hard
// deleted; completed and suspended are terminal for money flow but the
// record persists for history.
type Loan struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	BorrowerID       string          `json:"borrower_id" db:"borrower_id"`
	Principal        int64           `json:"principal" db:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	TotalRepayable   int64           `json:"total_repayable" db:"total_repayable"`
	Installment      int64           `json:"installment" db:"installment"`
	FinalInstallment int64           `json:"final_installment" db:"final_installment"`
	TermWeeks        int             `json:"term_weeks" db:"term_weeks"`
	Repaid           int64           `json:"repaid" db:"repaid"`
	NextDueDate      time.Time       `json:"next_due_date" db:"next_due_date"`
	Deposit          int64           `json:"deposit" db:"deposit"`
	DepositRefunded  bool            `json:"deposit_refunded" db:"deposit_refunded"`
	Status           string          `json:"status" db:"status"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Outstanding returns the remaining balance on the loan.
func (l *Loan) Outstanding() int64 {
	if l.Repaid >= l.TotalRepayable {
		return 0
	}
	return l.TotalRepayable - l.Repaid
}

// NextInstallment returns the amount due on the next due date. The final
// installment absorbs the rounding remainder, and an approved offset can
// leave less than a regular installment outstanding, so the amount is
// capped by what is left.
func (l *Loan) NextInstallment() int64 {
	outstanding := l.Outstanding()
	if outstanding <= l.FinalInstallment {
		return outstanding
	}
	return l.Installment
}

// IsFullyRepaid reports whether the loan has reached its total repayable.
func (l *Loan) IsFullyRepaid() bool {
	return l.Repaid >= l.TotalRepayable
}

// IsSchedulable reports whether the repayment scheduler should still
// evaluate this loan.
func (l *Loan) IsSchedulable() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusDefaulted
}

// RepaymentTerms is the calculator's output for a principal and term.
type RepaymentTerms struct {
	InterestRate     decimal.Decimal `json:"interest_rate"`
	TotalRepayable   int64           `json:"total_repayable"`
	Installment      int64           `json:"installment"`
	FinalInstallment int64           `json:"final_installment"`
}
