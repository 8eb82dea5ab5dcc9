package handler

import "net/http"

// Dashboard returns the aggregated overview for the landing page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	overview, err := h.svc.DashboardData(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, overview)
}
