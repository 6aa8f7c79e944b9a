package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/microlend/loan-engine/internal/domain"
	customError "github.com/microlend/loan-engine/pkg/errors"
)

type poolRepository struct {
	db sqlx.ExtContext
}

func NewPoolRepository(db *sqlx.DB) PoolRepository {
	return &poolRepository{db: db}
}

func (r *poolRepository) GetBalance(ctx context.Context, name string) (int64, error) {
	query := `SELECT balance FROM revenue_pools WHERE name = $1`

	var balance int64
	err := sqlx.GetContext(ctx, r.db, &balance, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("revenue pool %q is not provisioned", name)
	}
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *poolRepository) Credit(ctx context.Context, name string, amount int64) error {
	query := `
		UPDATE revenue_pools
		SET balance = balance + $2, updated_at = $3
		WHERE name = $1
	`

	result, err := r.db.ExecContext(ctx, query, name, amount, time.Now())
	if err != nil {
		return err
	}

	return requireOneRow(result, fmt.Sprintf("revenue pool %q is not provisioned", name))
}

func (r *poolRepository) Debit(ctx context.Context, name string, amount int64) error {
	// The balance guard in the WHERE clause makes overdraw impossible
	// even under concurrent debits.
	query := `
		UPDATE revenue_pools
		SET balance = balance - $2, updated_at = $3
		WHERE name = $1 AND balance >= $2
	`

	result, err := r.db.ExecContext(ctx, query, name, amount, time.Now())
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		balance, balErr := r.GetBalance(ctx, name)
		if balErr != nil {
			return balErr
		}
		return customError.WrapInsufficientFunds("pool "+name, balance, amount)
	}

	return nil
}

func (r *poolRepository) GetWallet(ctx context.Context, borrowerID string) (*domain.Wallet, error) {
	query := `SELECT borrower_id, balance, updated_at FROM wallets WHERE borrower_id = $1`

	var wallet domain.Wallet
	err := sqlx.GetContext(ctx, r.db, &wallet, query, borrowerID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Wallet{BorrowerID: borrowerID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}

func (r *poolRepository) CreditWallet(ctx context.Context, borrowerID string, amount int64) error {
	query := `
		INSERT INTO wallets (borrower_id, balance, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (borrower_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, borrowerID, amount, time.Now())
	return err
}

func (r *poolRepository) DebitWallet(ctx context.Context, borrowerID string, amount int64) error {
	query := `
		UPDATE wallets
		SET balance = balance - $2, updated_at = $3
		WHERE borrower_id = $1 AND balance >= $2
	`

	result, err := r.db.ExecContext(ctx, query, borrowerID, amount, time.Now())
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		wallet, walErr := r.GetWallet(ctx, borrowerID)
		if walErr != nil {
			return walErr
		}
		return customError.WrapInsufficientFunds("wallet "+borrowerID, wallet.Balance, amount)
	}

	return nil
}

func requireOneRow(result sql.Result, message string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s", message)
	}

	return nil
}
