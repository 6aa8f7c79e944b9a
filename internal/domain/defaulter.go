package domain

import (
	"time"

	"github.com/google/uuid"
)

// Severity tiers for overdue loans.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// ValidSeverity reports whether s names a known severity tier.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// DefaulterView is a derived, read-only classification of an overdue
// loan. It never mutates the loan record.
type DefaulterView struct {
	LoanID         uuid.UUID `json:"loan_id"`
	BorrowerID     string    `json:"borrower_id"`
	Status         string    `json:"status"`
	DaysOverdue    int       `json:"days_overdue"`
	Severity       string    `json:"severity"`
	MissedPayments int       `json:"missed_payments"`
	OverdueAmount  int64     `json:"overdue_amount"`
	NextDueDate    time.Time `json:"next_due_date"`
}

// Classify derives the defaulter view for a loan as of today. It returns
// nil when the loan is not overdue or not schedulable.
func Classify(l *Loan, today time.Time, termPeriodDays int) *DefaulterView {
	if !l.IsSchedulable() {
		return nil
	}

	daysOverdue := daysBetween(l.NextDueDate, today)
	if daysOverdue <= 0 {
		return nil
	}

	severity := SeverityMild
	switch {
	case daysOverdue > 30:
		severity = SeveritySevere
	case daysOverdue > 7:
		severity = SeverityModerate
	}

	// ceil(daysOverdue / termPeriodDays)
	missed := (daysOverdue + termPeriodDays - 1) / termPeriodDays

	return &DefaulterView{
		LoanID:         l.ID,
		BorrowerID:     l.BorrowerID,
		Status:         l.Status,
		DaysOverdue:    daysOverdue,
		Severity:       severity,
		MissedPayments: missed,
		OverdueAmount:  int64(missed) * l.Installment,
		NextDueDate:    l.NextDueDate,
	}
}

// daysBetween counts whole calendar days from a to b, ignoring the time
// of day on either side.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// DaysUntilDue counts whole calendar days from today until the loan's
// next due date. Negative means overdue.
func (l *Loan) DaysUntilDue(today time.Time) int {
	return daysBetween(today, l.NextDueDate)
}
