package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/microlend/loan-engine/internal/domain"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

type deductionRecordRepository struct {
	db sqlx.ExtContext
}

func NewDeductionRecordRepository(db *sqlx.DB) DeductionRecordRepository {
	return &deductionRecordRepository{db: db}
}

func (r *deductionRecordRepository) Exists(ctx context.Context, loanID uuid.UUID, dueDate time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM auto_deduction_records WHERE loan_id = $1 AND due_date = $2
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, query, loanID, dueDate)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *deductionRecordRepository) Create(ctx context.Context, record *domain.AutoDeductionRecord) error {
	query := `
		INSERT INTO auto_deduction_records (id, loan_id, due_date, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	record.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.LoanID,
		record.DueDate,
		record.Amount,
		record.CreatedAt,
	)
	if isUniqueViolation(err) {
		return customError.ErrDuplicateRecord
	}

	return err
}

type reminderRecordRepository struct {
	db sqlx.ExtContext
}

func NewReminderRecordRepository(db *sqlx.DB) ReminderRecordRepository {
	return &reminderRecordRepository{db: db}
}

func (r *reminderRecordRepository) Exists(ctx context.Context, loanID uuid.UUID, dueDate time.Time, timing string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminder_records WHERE loan_id = $1 AND due_date = $2 AND timing = $3
		)
	`

	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, query, loanID, dueDate, timing)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *reminderRecordRepository) Create(ctx context.Context, record *domain.ReminderRecord) error {
	query := `
		INSERT INTO reminder_records (id, loan_id, due_date, timing, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	record.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.LoanID,
		record.DueDate,
		record.Timing,
		record.CreatedAt,
	)
	if isUniqueViolation(err) {
		return customError.ErrDuplicateRecord
	}

	return err
}
