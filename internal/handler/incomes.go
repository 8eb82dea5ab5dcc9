package handler

import (
	"net/http"

	"github.com/billpayhq/billpay-service/internal/service"
)

// CreateIncome records a manually entered income source.
func (h *Handler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var input service.IncomeInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	income, err := h.svc.CreateIncome(r.Context(), userID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, income)
}

// ListIncomes returns the user's income records with the naive monthly
// estimate alongside.
func (h *Handler) ListIncomes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	incomes, err := h.svc.ListIncomes(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"incomes":           incomes,
		"estimated_monthly": service.EstimatedMonthlyIncome(incomes),
	})
}

// GetIncome returns one income record.
func (h *Handler) GetIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	incomeID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	income, err := h.svc.Income(r.Context(), userID, incomeID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, income)
}

// UpdateIncome replaces an income record's editable fields.
func (h *Handler) UpdateIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	incomeID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var input service.IncomeInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	income, err := h.svc.UpdateIncome(r.Context(), userID, incomeID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, income)
}

// DeleteIncome removes a manually created income record.
func (h *Handler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	incomeID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteIncome(r.Context(), userID, incomeID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "Income deleted")
}

// DetectIncomes re-runs income detection over recent deposits.
func (h *Handler) DetectIncomes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	message, err := h.svc.DetectIncome(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}

// IncomeProjection returns the current month's projected take-home income.
func (h *Handler) IncomeProjection(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	projection, err := h.svc.MonthlyIncomeSummary(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, projection)
}
