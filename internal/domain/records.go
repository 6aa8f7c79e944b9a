package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reminder timings relative to a due date.
const (
	ReminderTimingT3 = "T-3"
	ReminderTimingT1 = "T-1"
	ReminderTimingT0 = "T0"
)

// AutoDeductionRecord marks that the scheduler has already deducted the
// installment for one (loan, due date) pair. Its presence gates the
// deduction, so running a tick any number of times moves cash at most
// once per due date.
type AutoDeductionRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LoanID    uuid.UUID `json:"loan_id" db:"loan_id"`
	DueDate   time.Time `json:"due_date" db:"due_date"`
	Amount    int64     `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReminderRecord marks that a reminder was already emitted for one
// (loan, due date, timing) triple.
type ReminderRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LoanID    uuid.UUID `json:"loan_id" db:"loan_id"`
	DueDate   time.Time `json:"due_date" db:"due_date"`
	Timing    string    `json:"timing" db:"timing"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ContactLog records a collection contact made against an overdue loan.
// Mark-as-paid clears the loan's contact history.
type ContactLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LoanID    uuid.UUID `json:"loan_id" db:"loan_id"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
