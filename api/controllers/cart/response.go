package cart

import (
	"time"

	cartsvc "github.com/kasirpos/kasir-terminal/internal/cart"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
	"github.com/shopspring/decimal"
)

// CartView is the cart as the cashier screen renders it.
type CartView struct {
	ID          string               `json:"id"`
	Lines       []LineView           `json:"lines"`
	Total       decimal.Decimal      `json:"total"`
	ItemCount   int                  `json:"itemCount"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Adjustments []cartsvc.Adjustment `json:"adjustments,omitempty"`
}

// LineView is one cart line with its effective price tier.
type LineView struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Qty         int             `json:"qty"`
	Stock       int             `json:"stock"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Tier        enums.PriceTier `json:"tier"`
	Total       decimal.Decimal `json:"total"`
}

func newCartView(ledger *cartsvc.Ledger, adjustments []cartsvc.Adjustment) CartView {
	lines := ledger.Lines()
	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, LineView{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Qty:         line.Quantity,
			Stock:       line.Product.Stock,
			UnitPrice:   line.UnitPrice(),
			Tier:        line.Tier(),
			Total:       line.LineTotal,
		})
	}
	return CartView{
		ID:          ledger.ID().String(),
		Lines:       views,
		Total:       ledger.Total(),
		ItemCount:   ledger.Units(),
		UpdatedAt:   ledger.UpdatedAt(),
		Adjustments: adjustments,
	}
}
