package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kasirpos/kasir-terminal/internal/cart"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/kasirpos/kasir-terminal/pkg/metrics"
	"github.com/kasirpos/kasir-terminal/pkg/models"
)

// ReceiptPathFormat locates the receipt of a created order on this service.
const ReceiptPathFormat = "/api/v1/receipts/%d"

type cartReader interface {
	Get(ctx context.Context, sessionKey string) (*cart.Ledger, error)
	Clear(ctx context.Context, sessionKey string) error
}

type orderCreator interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.OrderReference, error)
}

type submissionRecorder interface {
	ObserveCheckout(outcome string, duration time.Duration)
	IncCheckoutRejected()
}

// Service turns a session's cart into a backend order.
type Service interface {
	Submit(ctx context.Context, sessionKey string, paymentMethodID int64) (*Result, error)
}

// Result points the cashier UI at the created order's receipt.
type Result struct {
	OrderID     int64  `json:"orderId"`
	ReceiptPath string `json:"receiptPath"`
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Carts   cartReader
	Orders  orderCreator
	Guard   Guard
	Metrics submissionRecorder
	Logger  *logger.Logger
}

type service struct {
	carts   cartReader
	orders  orderCreator
	guard   Guard
	metrics submissionRecorder
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the checkout service. The guard defaults to an in-process
// flag.
func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	guard := params.Guard
	if guard == nil {
		guard = NewMemoryGuard()
	}
	recorder := params.Metrics
	if recorder == nil {
		recorder = (*metrics.POSMetrics)(nil)
	}
	return &service{
		carts:   params.Carts,
		orders:  params.Orders,
		guard:   guard,
		metrics: recorder,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// Submit sends the session's cart to the backend as one order. Local checks
// run first so an empty cart or a missing payment method never reaches the
// network. The order call is made once; on success the cart is emptied, on
// failure it is left exactly as it was.
func (s *service) Submit(ctx context.Context, sessionKey string, paymentMethodID int64) (*Result, error) {
	if strings.TrimSpace(sessionKey) == "" {
		s.metrics.IncCheckoutRejected()
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier session required")
	}
	if paymentMethodID <= 0 {
		s.metrics.IncCheckoutRejected()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a payment method")
	}

	release, err := s.guard.Acquire(ctx, sessionKey)
	if err != nil {
		s.metrics.IncCheckoutRejected()
		return nil, err
	}
	defer release()

	ledger, err := s.carts.Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if ledger.IsEmpty() {
		s.metrics.IncCheckoutRejected()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	req := BuildOrderRequest(ledger, paymentMethodID)
	started := s.now()
	ref, err := s.orders.CreateOrder(ctx, req)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.metrics.ObserveCheckout(metrics.OutcomeFailure, elapsed)
		if s.logg != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"cart_id":    ledger.ID().String(),
				"item_count": len(req.Items),
				"error":      err.Error(),
			}), "order submission failed")
		}
		return nil, err
	}
	s.metrics.ObserveCheckout(metrics.OutcomeSuccess, elapsed)

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(ctx, ref.OrderID)
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"cart_id":    ledger.ID().String(),
			"item_count": len(req.Items),
			"total":      ledger.Total().String(),
		}), "order submitted")
	}

	// The order exists now; a failure to empty the cart must not be reported
	// as a failed checkout or the cashier would submit it twice.
	if err := s.carts.Clear(ctx, sessionKey); err != nil && s.logg != nil {
		s.logg.Error(logCtx, "clear cart after order", err)
	}

	return &Result{
		OrderID:     ref.OrderID,
		ReceiptPath: fmt.Sprintf(ReceiptPathFormat, ref.OrderID),
	}, nil
}

// BuildOrderRequest lists each cart line as a product id and quantity. Prices
// are left out; the backend prices the order itself.
func BuildOrderRequest(ledger *cart.Ledger, paymentMethodID int64) models.OrderRequest {
	lines := ledger.Lines()
	items := make([]models.OrderRequestItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderRequestItem{
			ProductID: line.Product.ID,
			Qty:       line.Quantity,
		})
	}
	return models.OrderRequest{PaymentMethodID: paymentMethodID, Items: items}
}
