package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"withdrawal-service/internal/domain"
	"withdrawal-service/internal/errors"
)

// WithdrawalSuccessMessage is the caller-visible outcome of a committed withdrawal.
const WithdrawalSuccessMessage = "Withdrawal successful"

// balanceScale is the decimal precision of stored balances.
const balanceScale = 2

type WithdrawalService struct {
	store     domain.BalanceStore
	cache     domain.BalanceCache
	publisher domain.NotificationPublisher
	logger    *slog.Logger
}

func NewWithdrawalService(
	store domain.BalanceStore,
	cache domain.BalanceCache,
	publisher domain.NotificationPublisher,
	logger *slog.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessWithdrawal runs the withdrawal pipeline: validate, fast-path
// sufficiency check against the cached balance, guarded decrement inside a
// read-committed transaction, cache invalidation after the write is settled,
// and a fire-and-forget notification after commit. The cached balance is only
// a pre-check; the decrement's `balance >= amount` predicate is authoritative,
// so a stale cache can cause a spurious rejection but never an overdraft.
func (s *WithdrawalService) ProcessWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal) (string, error) {
	s.logger.Info("Processing withdrawal", "account_id", accountID, "amount", amount)

	if accountID <= 0 {
		return "", errors.ErrInvalidAccountID
	}
	// Trailing zeros beyond the scale are fine; "40.001" is not.
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(balanceScale)) {
		return "", errors.ErrInvalidAmount
	}

	balance, err := s.cache.Get(ctx, accountID)
	if err != nil {
		return "", err
	}

	if balance.LessThan(amount) {
		s.logger.Info("Insufficient funds", "account_id", accountID, "amount", amount)
		return "", errors.ErrInsufficientFunds
	}

	err = s.store.WithTransaction(ctx, func(store domain.BalanceStore) error {
		rowsAffected, err := store.DecrementBalance(ctx, accountID, amount)
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			// The account vanished or a concurrent withdrawal won the race.
			s.logger.Warn("Withdrawal failed, decrement affected no rows", "account_id", accountID)
			return errors.ErrWithdrawalFailed
		}
		return nil
	})

	// The entry may be stale either way once the store was touched, so it is
	// evicted on failure too. Invalidation must stay after the transaction
	// settles, never before.
	s.cache.Invalidate(ctx, accountID)

	if err != nil {
		return "", err
	}

	s.publisher.Publish(domain.WithdrawalEvent{
		Amount:    amount,
		AccountID: accountID,
		Status:    domain.WithdrawalStatusSuccess,
	})

	s.logger.Info("Withdrawal successful", "account_id", accountID, "amount", amount)
	return WithdrawalSuccessMessage, nil
}

// GetBalance returns the current balance via the read-through cache.
func (s *WithdrawalService) GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	if accountID <= 0 {
		return decimal.Zero, errors.ErrInvalidAccountID
	}

	return s.cache.Get(ctx, accountID)
}
