package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/service"
)

// CreateAccount records a manually tracked account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var input service.ManualAccountInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	account, err := h.svc.CreateManualAccount(r.Context(), userID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, account)
}

// ListAccounts returns the user's accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	accounts, err := h.svc.ListAccounts(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, accounts)
}

// GetAccount returns one account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	account, err := h.svc.Account(r.Context(), userID, accountID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, account)
}

type updateBalanceRequest struct {
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

// UpdateAccountBalance sets the current balance of an account.
func (h *Handler) UpdateAccountBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateBalanceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	account, err := h.svc.UpdateAccountBalance(r.Context(), userID, accountID, req.CurrentBalance)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, account)
}

// RefreshAccounts pulls fresh account data from the aggregation API.
func (h *Handler) RefreshAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	message, err := h.svc.FetchAccounts(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}
