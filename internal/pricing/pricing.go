// Package pricing holds the retail/wholesale price break rule.
package pricing

import (
	"github.com/kasirpos/kasir-terminal/pkg/enums"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/shopspring/decimal"
)

// UnitPrice returns the per-unit price charged when qty units of product are
// bought together. The wholesale price applies once qty reaches the product's
// wholesale minimum; a minimum of 0 or 1 makes every purchase wholesale.
func UnitPrice(product models.Product, qty int) decimal.Decimal {
	if qty >= product.WholesaleMinQty {
		return product.WholesalePrice
	}
	return product.RetailPrice
}

// LineTotal prices a whole line at its quantity. Crossing the wholesale
// threshold re-prices every unit of the line, not just the marginal one.
func LineTotal(product models.Product, qty int) decimal.Decimal {
	return UnitPrice(product, qty).Mul(decimal.NewFromInt(int64(qty)))
}

// TierFor names the price break applied at qty.
func TierFor(product models.Product, qty int) enums.PriceTier {
	if qty >= product.WholesaleMinQty {
		return enums.PriceTierWholesale
	}
	return enums.PriceTierRetail
}
