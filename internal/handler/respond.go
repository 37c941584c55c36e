package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/platemate/order-api/internal/domain/cart"
	"github.com/platemate/order-api/internal/domain/menu"
	"github.com/platemate/order-api/internal/domain/order"
	"github.com/platemate/order-api/internal/domain/user"
)

// errorResponse is the JSON body for every error outcome.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps the closed set of domain errors to HTTP statuses.
// Anything unrecognized is a 500 and gets logged; the body stays generic.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, menu.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, cart.ErrCartEmpty),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, order.ErrNotCustomer):
		respondError(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, order.ErrCancelWindowExpired):
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	var unavailable *cart.ItemUnavailableError
	if errors.As(err, &unavailable) {
		respondError(w, http.StatusUnprocessableEntity, unavailable.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}
