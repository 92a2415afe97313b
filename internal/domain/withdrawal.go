package domain

import (
	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusSuccess = "SUCCESS"
)

// WithdrawalEvent is the payload published after a confirmed decrement.
// Field names match the wire contract consumed by downstream subscribers.
type WithdrawalEvent struct {
	Amount    decimal.Decimal `json:"amount"`
	AccountID int64           `json:"accountId"`
	Status    string          `json:"status"`
}

// NotificationPublisher delivers withdrawal events outside the request path.
// Publish must not block the caller; delivery is best-effort and failures
// never reach the withdrawal outcome.
type NotificationPublisher interface {
	Publish(event WithdrawalEvent)
}
