package controllers

import (
	"net/http"

	"github.com/kasirpos/kasir-terminal/api/responses"
	"github.com/kasirpos/kasir-terminal/api/validators"
	"github.com/kasirpos/kasir-terminal/internal/receipt"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

func ReceiptFetch(svc receipt.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := loadReceipt(w, r, svc, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, rec)
	}
}

// ReceiptText serves the receipt laid out for a thermal printer.
func ReceiptText(svc receipt.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := loadReceipt(w, r, svc, logg)
		if !ok {
			return
		}
		responses.WriteText(w, http.StatusOK, receipt.Render(*rec))
	}
}

func ReceiptEmail(svc receipt.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		orderID, err := validators.ParsePathID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Email(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]any{"orderId": orderID, "status": "sent"})
	}
}

func loadReceipt(w http.ResponseWriter, r *http.Request, svc receipt.Service, logg *logger.Logger) (*receipt.Receipt, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
		return nil, false
	}

	orderID, err := validators.ParsePathID(r, "orderID")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}

	rec, err := svc.Get(r.Context(), orderID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return rec, true
}
