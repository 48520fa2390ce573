// Package receipt groups a finalized order's line records into the lines
// printed on the customer receipt.
package receipt

import (
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/shopspring/decimal"
)

// AggregatedLine is one product on the receipt.
type AggregatedLine struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"namaProduk"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"harga"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Aggregate merges records that reference the same product. Groups keep the
// order in which their product first appears. Name and unit price come from
// the group's first record and are not reconciled with later records, so the
// subtotal is that price times the summed quantity even when the backend
// charged split allocations differently. Records without a product reference
// are skipped.
func Aggregate(records []models.OrderLineRecord) []AggregatedLine {
	lines := []AggregatedLine{}
	index := map[int64]int{}
	for _, rec := range records {
		if !hasProduct(rec) {
			continue
		}
		i, seen := index[rec.ProductID]
		if !seen {
			index[rec.ProductID] = len(lines)
			lines = append(lines, AggregatedLine{
				ProductID: rec.ProductID,
				Name:      rec.ProductName,
				UnitPrice: rec.UnitPrice,
			})
			i = len(lines) - 1
		}
		lines[i].Qty += rec.Quantity
	}
	for i := range lines {
		lines[i].Subtotal = lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(lines[i].Qty)))
	}
	return lines
}

// Skipped counts the records Aggregate ignores.
func Skipped(records []models.OrderLineRecord) int {
	n := 0
	for _, rec := range records {
		if !hasProduct(rec) {
			n++
		}
	}
	return n
}

func hasProduct(rec models.OrderLineRecord) bool {
	return rec.ProductID > 0
}
