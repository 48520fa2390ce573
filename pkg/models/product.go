package models

import "github.com/shopspring/decimal"

// Product is the catalog listing as the Kasir backend serves it.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"nama"`
	CategoryID      int64           `json:"kategoriId"`
	PurchasePrice   decimal.Decimal `json:"hargaBeli"`
	RetailPrice     decimal.Decimal `json:"hargaJualRetail"`
	WholesalePrice  decimal.Decimal `json:"hargaJualGrosir"`
	WholesaleMinQty int             `json:"qtyMinGrosir"`
	Stock           int             `json:"totalStok"`
	Category        *Category       `json:"kategori,omitempty"`
}

// InStock reports whether at least one unit can be sold.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// Category groups products; the backend attaches commission tiers to it.
type Category struct {
	ID          int64        `json:"id"`
	Name        string       `json:"nama"`
	Commissions []Commission `json:"komisi,omitempty"`
}

// Commission is the cashier commission percentage configured for a category.
type Commission struct {
	ID         int64           `json:"id"`
	CategoryID int64           `json:"kategoriId"`
	Percent    decimal.Decimal `json:"persen"`
}

// PaymentMethod is a tender type the cashier can pick at checkout.
type PaymentMethod struct {
	ID   int64  `json:"id"`
	Name string `json:"nama"`
}
