package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"withdrawal-service/internal/errors"
	"withdrawal-service/internal/service"
)

type WithdrawalHandler struct {
	withdrawalService *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawalService *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{
		withdrawalService: withdrawalService,
	}
}

type WithdrawRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
}

type WithdrawResponse struct {
	Message   string `json:"message"`
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
}

type BalanceResponse struct {
	AccountID int64  `json:"account_id"`
	Balance   string `json:"balance"`
}

func (h *WithdrawalHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidRequest, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidRequest, "invalid amount format").WithDetails(err.Error()))
		return
	}

	message, err := h.withdrawalService.ProcessWithdrawal(r.Context(), req.AccountID, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := WithdrawResponse{
		Message:   message,
		AccountID: req.AccountID,
		Amount:    amount.String(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *WithdrawalHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	accountID, err := strconv.ParseInt(vars["account_id"], 10, 64)
	if err != nil {
		writeError(w, errors.ErrInvalidAccountID)
		return
	}

	balance, err := h.withdrawalService.GetBalance(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := BalanceResponse{
		AccountID: accountID,
		Balance:   balance.String(),
	}

	writeJSON(w, http.StatusOK, response)
}
