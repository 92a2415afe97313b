package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"withdrawal-service/internal/domain"
	"withdrawal-service/internal/errors"
)

// balanceRepository is the Postgres-backed BalanceStore. Concurrency policy:
// transactions run at read committed, and correctness under contention comes
// from the `AND balance >= $1` predicate evaluated atomically by the UPDATE,
// not from row locks acquired on read.
type balanceRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewBalanceRepository(db SQLExecutor, logger *slog.Logger) domain.BalanceStore {
	return &balanceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *balanceRepository) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	query := `
		SELECT balance
		FROM accounts WHERE id = $1
	`

	var balanceStr string
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&balanceStr)
	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_id", accountID)
			return decimal.Zero, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get balance", "account_id", accountID, "error", err)
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to get balance").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_id", accountID, "balance_str", balanceStr, "error", err)
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	return balance, nil
}

func (r *balanceRepository) DecrementBalance(ctx context.Context, accountID int64, amount decimal.Decimal) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = $2
		WHERE id = $3 AND balance >= $1
	`

	result, err := r.db.ExecContext(ctx, query, amount.String(), time.Now(), accountID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" { // check_violation
			r.logger.Warn("Balance check constraint rejected decrement", "account_id", accountID)
			return 0, nil
		}
		r.logger.Error("Failed to decrement balance", "account_id", accountID, "error", err)
		return 0, errors.NewAppError(errors.InternalError, "failed to decrement balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	r.logger.Info("Balance decrement executed", "account_id", accountID, "amount", amount, "rows_affected", rowsAffected)
	return rowsAffected, nil
}

// WithTransaction executes fn against a store bound to a single database
// transaction at read committed isolation. The transaction is rolled back on
// error or panic and committed otherwise.
func (r *balanceRepository) WithTransaction(ctx context.Context, fn func(store domain.BalanceStore) error) error {
	// Only sql.DB can begin transactions
	db, ok := r.db.(*sql.DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to begin transaction").WithDetails(err.Error())
	}

	txRepo := &balanceRepository{
		db:     &TxWrapper{Tx: tx},
		logger: r.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txRepo); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
