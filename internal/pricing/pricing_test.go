package pricing

import (
	"testing"

	"github.com/kasirpos/kasir-terminal/pkg/enums"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/shopspring/decimal"
)

func product(threshold int) models.Product {
	return models.Product{
		ID:              1,
		Name:            "Beras 5kg",
		RetailPrice:     decimal.NewFromInt(100),
		WholesalePrice:  decimal.NewFromInt(80),
		WholesaleMinQty: threshold,
		Stock:           50,
	}
}

func TestUnitPriceThresholdBoundary(t *testing.T) {
	t.Parallel()

	p := product(5)
	if got := UnitPrice(p, 4); !got.Equal(p.RetailPrice) {
		t.Fatalf("qty 4 should be retail, got %s", got)
	}
	if got := UnitPrice(p, 5); !got.Equal(p.WholesalePrice) {
		t.Fatalf("qty 5 should be wholesale, got %s", got)
	}
	if got := UnitPrice(p, 6); !got.Equal(p.WholesalePrice) {
		t.Fatalf("qty 6 should be wholesale, got %s", got)
	}
}

func TestUnitPriceLowThresholdAlwaysWholesale(t *testing.T) {
	t.Parallel()

	for _, threshold := range []int{0, 1} {
		p := product(threshold)
		if got := UnitPrice(p, 1); !got.Equal(p.WholesalePrice) {
			t.Fatalf("threshold %d: expected wholesale at qty 1, got %s", threshold, got)
		}
		if got := TierFor(p, 1); got != enums.PriceTierWholesale {
			t.Fatalf("threshold %d: expected Grosir tier, got %s", threshold, got)
		}
	}
}

func TestLineTotalRepricesWholeLine(t *testing.T) {
	t.Parallel()

	p := product(5)
	tests := []struct {
		qty  int
		want int64
	}{
		{qty: 1, want: 100},
		{qty: 4, want: 400},
		{qty: 5, want: 400},
		{qty: 10, want: 800},
	}
	for _, tt := range tests {
		if got := LineTotal(p, tt.qty); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Fatalf("LineTotal(qty=%d) = %s, want %d", tt.qty, got, tt.want)
		}
	}
}

func TestTierFor(t *testing.T) {
	t.Parallel()

	p := product(3)
	if got := TierFor(p, 2); got != enums.PriceTierRetail {
		t.Fatalf("expected Eceran below threshold, got %s", got)
	}
	if got := TierFor(p, 3); got != enums.PriceTierWholesale {
		t.Fatalf("expected Grosir at threshold, got %s", got)
	}
}
