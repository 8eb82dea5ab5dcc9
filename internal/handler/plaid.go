package handler

import (
	"encoding/json"
	"net/http"
)

// CreateLinkToken issues a link token for the client-side link flow.
func (h *Handler) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	token, err := h.svc.CreateLinkToken(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"link_token": token})
}

type exchangeTokenRequest struct {
	PublicToken string `json:"public_token" validate:"required"`
}

// ExchangePublicToken completes the link flow and kicks off the initial sync.
func (h *Handler) ExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req exchangeTokenRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	message, err := h.svc.ExchangePublicToken(r.Context(), userID, req.PublicToken)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}

type unlinkRequest struct {
	ResetData bool `json:"reset_data"`
}

// Unlink removes the stored bank connection, optionally purging synced data.
func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req unlinkRequest
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	message, err := h.svc.Unlink(r.Context(), userID, req.ResetData)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, message)
}

type webhookRequest struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

// Webhook receives upstream item and transaction notifications. Always
// answers 200 so the upstream does not retry; failures are logged.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid webhook body")
		return
	}

	h.log.Infof("Webhook received: type=%s code=%s item=%s",
		req.WebhookType, req.WebhookCode, req.ItemID)

	switch req.WebhookType {
	case "TRANSACTIONS":
		if err := h.svc.HandleTransactionsWebhook(r.Context(), req.ItemID); err != nil {
			h.log.Errorf("Webhook transaction refresh failed: %v", err)
		}
	case "ITEM":
		if req.WebhookCode == "USER_PERMISSION_REVOKED" {
			if err := h.svc.HandlePermissionRevoked(r.Context(), req.ItemID); err != nil {
				h.log.Errorf("Webhook unlink failed: %v", err)
			}
		}
	}
	h.respondMessage(w, http.StatusOK, "received")
}
