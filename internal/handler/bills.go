package handler

import (
	"net/http"

	"github.com/billpayhq/billpay-service/internal/service"
)

// CreateBill records a manually entered bill.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var input service.BillInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	bill, err := h.svc.CreateBill(r.Context(), userID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, bill)
}

// ListBills returns the user's bills.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	bills, err := h.svc.ListBills(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, bills)
}

// GetBill returns one bill.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	billID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	bill, err := h.svc.Bill(r.Context(), userID, billID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, bill)
}

// UpdateBill replaces a bill's editable fields.
func (h *Handler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	billID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.BillInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	bill, err := h.svc.UpdateBill(r.Context(), userID, billID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, bill)
}

// ToggleBillPaid flips a bill between paid and unpaid.
func (h *Handler) ToggleBillPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	billID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	bill, err := h.svc.ToggleBillPaid(r.Context(), userID, billID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, bill)
}

// DeleteBill removes a manually created bill.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	billID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBill(r.Context(), userID, billID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "Bill deleted")
}

// RefreshLiabilities pulls liabilities from the aggregation API and syncs
// them into bills.
func (h *Handler) RefreshLiabilities(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	message, err := h.svc.FetchLiabilities(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}

// DetectRecurringBills re-runs recurring detection over stored transactions.
func (h *Handler) DetectRecurringBills(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	message, err := h.svc.DetectRecurring(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}
