package kasirapi

import (
	"context"
	"fmt"
	"net/http"

	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/models"
)

// CreateOrder submits a finalized cart. It is sent exactly once: a timeout
// leaves the outcome unknown and is reported to the caller, never retried.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.OrderReference, error) {
	body, err := c.write(ctx, http.MethodPost, "/order", req, "create order")
	if err != nil {
		return nil, err
	}
	var ref models.OrderReference
	if err := decodeData(body, "create order", &ref); err != nil {
		return nil, err
	}
	if ref.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend returned no order id")
	}
	return &ref, nil
}

// GetOrder fetches a finalized order with its flat line records.
func (c *Client) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	body, err := c.read(ctx, fmt.Sprintf("/order/%d", id), nil, "get order")
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := decodeData(body, "get order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SendReceiptEmail asks the backend to email the receipt of an order.
func (c *Client) SendReceiptEmail(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	_, err := c.write(ctx, http.MethodPost, fmt.Sprintf("/order/email/%d", id), nil, "send receipt email")
	return err
}
