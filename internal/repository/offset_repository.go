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

type offsetRepository struct {
	db sqlx.ExtContext
}

func NewOffsetRepository(db *sqlx.DB) OffsetRepository {
	return &offsetRepository{db: db}
}

const offsetColumns = `id, loan_id, borrower_id, kind, source, amount, status, note, decided_at, created_at`

func (r *offsetRepository) Create(ctx context.Context, request *domain.OffsetRequest) error {
	query := `
		INSERT INTO offset_requests (` + offsetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	request.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		request.ID,
		request.LoanID,
		request.BorrowerID,
		request.Kind,
		request.Source,
		request.Amount,
		request.Status,
		request.Note,
		request.DecidedAt,
		request.CreatedAt,
	)

	return err
}

func (r *offsetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OffsetRequest, error) {
	query := `SELECT ` + offsetColumns + ` FROM offset_requests WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *offsetRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.OffsetRequest, error) {
	query := `SELECT ` + offsetColumns + ` FROM offset_requests WHERE id = $1 FOR UPDATE`
	return r.get(ctx, query, id)
}

func (r *offsetRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.OffsetRequest, error) {
	var request domain.OffsetRequest
	err := sqlx.GetContext(ctx, r.db, &request, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapOffsetRequestNotFound(id.String())
	}
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func (r *offsetRepository) Update(ctx context.Context, request *domain.OffsetRequest) error {
	query := `
		UPDATE offset_requests
		SET status = $2, note = $3, decided_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		request.ID,
		request.Status,
		request.Note,
		request.DecidedAt,
	)

	return err
}

func (r *offsetRepository) ListPending(ctx context.Context) ([]*domain.OffsetRequest, error) {
	query := `
		SELECT ` + offsetColumns + `
		FROM offset_requests
		WHERE status = $1
		ORDER BY created_at
	`

	var requests []*domain.OffsetRequest
	err := sqlx.SelectContext(ctx, r.db, &requests, query, domain.OffsetStatusPending)
	if err != nil {
		return nil, err
	}

	return requests, nil
}
