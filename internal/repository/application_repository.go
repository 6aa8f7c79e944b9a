package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/microlend/loan-engine/internal/domain"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

type applicationRepository struct {
	db sqlx.ExtContext
}

func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

const applicationColumns = `id, borrower_id, principal, term_weeks, category, purpose, status,
		deposit, insurance_fee, service_charge, total_upfront, upfront_paid,
		payment_proof_ref, reject_reason, decided_at, created_at, updated_at`

func (r *applicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.BorrowerID,
		app.Principal,
		app.TermWeeks,
		app.Category,
		app.Purpose,
		app.Status,
		app.Deposit,
		app.InsuranceFee,
		app.ServiceCharge,
		app.TotalUpfront,
		app.UpfrontPaid,
		app.PaymentProofRef,
		app.RejectReason,
		app.DecidedAt,
		app.CreatedAt,
		app.UpdatedAt,
	)

	return err
}

func (r *applicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *applicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.LoanApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *applicationRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.LoanApplication, error) {
	var app domain.LoanApplication
	err := sqlx.GetContext(ctx, r.db, &app, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapApplicationNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.LoanApplication) error {
	query := `
		UPDATE applications
		SET status = $2, upfront_paid = $3, payment_proof_ref = $4, reject_reason = $5,
		    decided_at = $6, updated_at = $7
		WHERE id = $1
	`

	app.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.Status,
		app.UpfrontPaid,
		app.PaymentProofRef,
		app.RejectReason,
		app.DecidedAt,
		app.UpdatedAt,
	)

	return err
}
