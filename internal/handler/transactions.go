package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/billpayhq/billpay-service/internal/service"
)

const dateLayout = "2006-01-02"

// statement uploads are small text files; cap reads defensively
const maxStatementBytes = 4 << 20

// ListTransactions returns the user's transactions, filtered by the query
// string (start_date, end_date, category, account_id, search, limit).
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	query := service.TransactionQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	if value := r.URL.Query().Get("start_date"); value != "" {
		start, err := time.Parse(dateLayout, value)
		if err != nil {
			h.respondMessage(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		query.Start = start
	}
	if value := r.URL.Query().Get("end_date"); value != "" {
		end, err := time.Parse(dateLayout, value)
		if err != nil {
			h.respondMessage(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		query.End = end
	}
	if value := r.URL.Query().Get("account_id"); value != "" {
		accountID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			h.respondMessage(w, http.StatusBadRequest, "invalid account_id")
			return
		}
		query.AccountID = accountID
	}
	if value := r.URL.Query().Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil {
			h.respondMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		query.Limit = limit
	}

	txns, err := h.svc.ListTransactions(r.Context(), userID, query)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, txns)
}

// GetTransaction returns one transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	transactionID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	txn, err := h.svc.Transaction(r.Context(), userID, transactionID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, txn)
}

// CreateTransaction records a manually entered transaction.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var input service.ManualTransactionInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	txn, err := h.svc.CreateManualTransaction(r.Context(), userID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, txn)
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

// UpdateTransactionNotes sets the user note on a transaction.
func (h *Handler) UpdateTransactionNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	transactionID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateNotesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.svc.UpdateTransactionNotes(r.Context(), userID, transactionID, req.Notes); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "Notes updated")
}

// RefreshTransactions pulls fresh transactions from the aggregation API and
// re-runs recurring detection.
func (h *Handler) RefreshTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	message, err := h.svc.FetchTransactions(r.Context(), userID, time.Time{}, time.Time{})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}

// ImportStatement ingests an OFX statement body into the given account.
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxStatementBytes))
	if err != nil {
		h.respondMessage(w, http.StatusBadRequest, "failed to read statement body")
		return
	}
	imported, err := h.svc.ImportStatement(r.Context(), userID, accountID, data)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"imported": imported,
	})
}
