package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound   ErrorCode = "account_not_found"
	InsufficientFunds ErrorCode = "insufficient_funds"
	WithdrawalFailed  ErrorCode = "withdrawal_failed"
	InvalidRequest    ErrorCode = "invalid_request"
	InternalError     ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// HTTPStatus maps the error code to the response status for the HTTP adapter.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound:
		return http.StatusNotFound
	case InsufficientFunds, InvalidRequest:
		return http.StatusBadRequest
	case WithdrawalFailed, InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrAccountNotFound   = NewAppError(AccountNotFound, "account not found")
	ErrInsufficientFunds = NewAppError(InsufficientFunds, "insufficient funds for withdrawal")
	ErrWithdrawalFailed  = NewAppError(WithdrawalFailed, "withdrawal failed due to an internal error")
	ErrInvalidAmount     = NewAppError(InvalidRequest, "amount must be positive with at most two decimal places")
	ErrInvalidAccountID  = NewAppError(InvalidRequest, "account ID must be a positive integer")

	ErrCannotBeginTransaction = NewAppError(InternalError, "cannot begin a transaction from within a transaction")
)
