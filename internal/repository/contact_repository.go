package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/microlend/loan-engine/internal/domain"
)

type contactLogRepository struct {
	db sqlx.ExtContext
}

func NewContactLogRepository(db *sqlx.DB) ContactLogRepository {
	return &contactLogRepository{db: db}
}

func (r *contactLogRepository) Create(ctx context.Context, log *domain.ContactLog) error {
	query := `
		INSERT INTO contact_logs (id, loan_id, note, created_at)
		VALUES ($1, $2, $3, $4)
	`

	log.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, log.ID, log.LoanID, log.Note, log.CreatedAt)
	return err
}

func (r *contactLogRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.ContactLog, error) {
	query := `
		SELECT id, loan_id, note, created_at
		FROM contact_logs
		WHERE loan_id = $1
		ORDER BY created_at DESC
	`

	var logs []*domain.ContactLog
	err := sqlx.SelectContext(ctx, r.db, &logs, query, loanID)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *contactLogRepository) DeleteByLoan(ctx context.Context, loanID uuid.UUID) error {
	query := `DELETE FROM contact_logs WHERE loan_id = $1`

	_, err := r.db.ExecContext(ctx, query, loanID)
	return err
}
