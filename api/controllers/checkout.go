package controllers

import (
	"net/http"

	"github.com/kasirpos/kasir-terminal/api/middleware"
	"github.com/kasirpos/kasir-terminal/api/responses"
	"github.com/kasirpos/kasir-terminal/api/validators"
	"github.com/kasirpos/kasir-terminal/internal/checkout"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

type checkoutRequest struct {
	PaymentMethodID int64 `json:"paymentMethodId" validate:"required,gt=0"`
}

// CheckoutSubmit turns the session's cart into a backend order.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionKey := middleware.SessionKeyFromContext(r.Context())
		if sessionKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), sessionKey, payload.PaymentMethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
