package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// BalanceStore is the authoritative balance storage. DecrementBalance applies
// the guarded conditional update and reports affected rows; a count of 0 means
// the row is missing or a concurrent withdrawal got there first.
type BalanceStore interface {
	GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error)
	DecrementBalance(ctx context.Context, accountID int64, amount decimal.Decimal) (int64, error)
	WithTransaction(ctx context.Context, fn func(store BalanceStore) error) error
}

// BalanceCache sits in front of BalanceStore for fast-path reads. It is never
// the source of truth: a stale entry can only cause a spurious rejection,
// never an overdraft.
type BalanceCache interface {
	Get(ctx context.Context, accountID int64) (decimal.Decimal, error)
	Invalidate(ctx context.Context, accountID int64)
}
