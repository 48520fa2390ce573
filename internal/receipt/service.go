package receipt

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/kasirpos/kasir-terminal/pkg/metrics"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	defaultCashierName       = "Kasir"
	defaultPaymentMethodName = "Tidak diketahui"
)

type orderReader interface {
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	SendReceiptEmail(ctx context.Context, id int64) error
}

type skipRecorder interface {
	AddSkippedReceiptRecords(n int)
}

// Receipt is a finalized order as the customer sees it.
type Receipt struct {
	OrderID           int64            `json:"orderId"`
	Number            string           `json:"number"`
	CashierName       string           `json:"cashierName"`
	PaymentMethodName string           `json:"paymentMethodName"`
	CreatedAt         time.Time        `json:"createdAt"`
	Lines             []AggregatedLine `json:"lines"`
	Total             decimal.Decimal  `json:"total"`
}

// Service builds receipts from backend orders.
type Service interface {
	Get(ctx context.Context, orderID int64) (*Receipt, error)
	Email(ctx context.Context, orderID int64) error
}

type service struct {
	orders  orderReader
	metrics skipRecorder
	logg    *logger.Logger
}

// NewService wires the receipt service over the backend client.
func NewService(orders orderReader, recorder skipRecorder, logg *logger.Logger) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if recorder == nil {
		recorder = (*metrics.POSMetrics)(nil)
	}
	return &service{orders: orders, metrics: recorder, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, orderID int64) (*Receipt, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if skipped := Skipped(order.Items); skipped > 0 {
		s.metrics.AddSkippedReceiptRecords(skipped)
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(s.logg.WithOrderID(ctx, orderID), "skipped", skipped), "order records without product skipped")
		}
	}

	id := order.ID
	if id == 0 {
		id = orderID
	}
	return &Receipt{
		OrderID:           id,
		Number:            Number(id),
		CashierName:       fallback(order.CashierName, defaultCashierName),
		PaymentMethodName: fallback(order.PaymentMethodName, defaultPaymentMethodName),
		CreatedAt:         order.CreatedAt,
		Lines:             Aggregate(order.Items),
		Total:             order.Total,
	}, nil
}

func (s *service) Email(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	return s.orders.SendReceiptEmail(ctx, orderID)
}

// Number formats the transaction number printed on receipts, e.g. TRX-007.
func Number(orderID int64) string {
	return fmt.Sprintf("TRX-%03d", orderID)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
