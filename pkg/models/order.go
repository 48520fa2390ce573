package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest is the body posted to the backend to create an order.
// Unit prices are deliberately absent: the backend prices authoritatively.
type OrderRequest struct {
	PaymentMethodID int64              `json:"paymentMethodId"`
	Items           []OrderRequestItem `json:"items"`
}

// OrderRequestItem is one product and quantity inside an OrderRequest.
type OrderRequestItem struct {
	ProductID int64 `json:"productId"`
	Qty       int   `json:"qty"`
}

// OrderReference is the backend's answer to a successful order creation.
type OrderReference struct {
	OrderID int64 `json:"orderId"`
}

// Order is a finalized, backend-persisted transaction.
type Order struct {
	ID                int64             `json:"orderId"`
	CreatedAt         time.Time         `json:"createdAt"`
	CashierName       string            `json:"cashierName"`
	PaymentMethodName string            `json:"paymentMethodName"`
	Total             decimal.Decimal   `json:"total"`
	Items             []OrderLineRecord `json:"items"`
}

// OrderLineRecord is one flat line of a finalized order. Several records may
// reference the same product when the backend split the sale across stock units.
type OrderLineRecord struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}
