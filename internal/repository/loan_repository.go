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

type loanRepository struct {
	db sqlx.ExtContext
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, borrower_id, principal, interest_rate, total_repayable, installment,
		final_installment, term_weeks, repaid, next_due_date, deposit, deposit_refunded,
		status, created_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	now := time.Now()
	loan.CreatedAt = now
	loan.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.BorrowerID,
		loan.Principal,
		loan.InterestRate,
		loan.TotalRepayable,
		loan.Installment,
		loan.FinalInstallment,
		loan.TermWeeks,
		loan.Repaid,
		loan.NextDueDate,
		loan.Deposit,
		loan.DepositRefunded,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *loanRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Loan, error) {
	var loan domain.Loan
	err := sqlx.GetContext(ctx, r.db, &loan, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET repaid = $2, next_due_date = $3, deposit_refunded = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	loan.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.Repaid,
		loan.NextDueDate,
		loan.DepositRefunded,
		loan.Status,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) ListSchedulable(ctx context.Context) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status IN ($1, $2)
		ORDER BY next_due_date
	`

	var loans []*domain.Loan
	err := sqlx.SelectContext(ctx, r.db, &loans, query, domain.LoanStatusActive, domain.LoanStatusDefaulted)
	if err != nil {
		return nil, err
	}

	return loans, nil
}
