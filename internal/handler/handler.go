package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/billpayhq/billpay-service/internal/middleware"
	"github.com/billpayhq/billpay-service/internal/repository"
	"github.com/billpayhq/billpay-service/internal/service"
)

// Handler exposes the HTTP API over the service layer.
type Handler struct {
	svc      *service.Service
	log      *logrus.Logger
	validate *validator.Validate
}

// NewHandler initializes the HTTP handler set.
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{
		svc:      svc,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// respondMessage writes the common success/message envelope.
func (h *Handler) respondMessage(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]any{"success": status < 400, "message": message})
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.respondMessage(w, http.StatusNotFound, "record not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		h.respondMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		h.respondMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDerivedRecord):
		h.respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoAccessToken):
		h.respondMessage(w, http.StatusBadRequest, "no linked bank connection")
	case errors.Is(err, service.ErrTransactionsNotReady):
		h.respondMessage(w, http.StatusAccepted, err.Error())
	default:
		h.log.Errorf("Request failed: %v", err)
		h.respondMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation, writing the error response itself on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondMessage(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

// userID pulls the authenticated user from the request context.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondMessage(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

// pathID parses the named numeric path variable.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		h.respondMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
