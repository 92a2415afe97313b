package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected int
	}{
		{"account not found", ErrAccountNotFound, http.StatusNotFound},
		{"insufficient funds", ErrInsufficientFunds, http.StatusBadRequest},
		{"invalid request", ErrInvalidAmount, http.StatusBadRequest},
		{"withdrawal failed", ErrWithdrawalFailed, http.StatusInternalServerError},
		{"internal", NewAppError(InternalError, "boom"), http.StatusInternalServerError},
		{"unknown code", NewAppError(ErrorCode("mystery"), "boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.HTTPStatus())
		})
	}
}

func TestErrorFormat(t *testing.T) {
	err := NewAppErrorf(InsufficientFunds, "account %d is short", 7).WithDetails("balance 30.00")

	assert.Equal(t, "insufficient_funds: account 7 is short", err.Error())
	assert.Equal(t, "balance 30.00", err.Details)
}
