package cart

import (
	"net/http"

	"github.com/kasirpos/kasir-terminal/api/middleware"
	"github.com/kasirpos/kasir-terminal/api/responses"
	"github.com/kasirpos/kasir-terminal/api/validators"
	cartsvc "github.com/kasirpos/kasir-terminal/internal/cart"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

// CartFetch returns the session's cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey, ok := sessionKeyOrError(w, r, svc, logg)
		if !ok {
			return
		}

		ledger, err := svc.Get(r.Context(), sessionKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(ledger, nil))
	}
}

// CartAddItem adds one unit of a product, creating the line when needed.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey, ok := sessionKeyOrError(w, r, svc, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ledger, err := svc.Add(r.Context(), sessionKey, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(ledger, nil))
	}
}

func CartDecrementItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey, ok := sessionKeyOrError(w, r, svc, logg)
		if !ok {
			return
		}

		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ledger, err := svc.Decrement(r.Context(), sessionKey, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(ledger, nil))
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey, ok := sessionKeyOrError(w, r, svc, logg)
		if !ok {
			return
		}

		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ledger, err := svc.Remove(r.Context(), sessionKey, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(ledger, nil))
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey, ok := sessionKeyOrError(w, r, svc, logg)
		if !ok {
			return
		}

		if err := svc.Clear(r.Context(), sessionKey); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// CartRefresh re-reads every line's product and reports what changed.
func CartRefresh(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionKey, ok := sessionKeyOrError(w, r, svc, logg)
		if !ok {
			return
		}

		ledger, adjustments, err := svc.Refresh(r.Context(), sessionKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartView(ledger, adjustments))
	}
}

func sessionKeyOrError(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	sessionKey := middleware.SessionKeyFromContext(r.Context())
	if sessionKey == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
		return "", false
	}
	return sessionKey, true
}
