package receipt

import (
	"testing"

	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/shopspring/decimal"
)

func rec(id int64, name string, qty int, price int64) models.OrderLineRecord {
	return models.OrderLineRecord{ProductID: id, ProductName: name, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func TestAggregateGroupsByProduct(t *testing.T) {
	t.Parallel()

	lines := Aggregate([]models.OrderLineRecord{
		rec(1, "A", 2, 1000),
		rec(1, "A", 3, 1000),
	})
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	got := lines[0]
	if got.Name != "A" || got.Qty != 5 || !got.UnitPrice.Equal(decimal.NewFromInt(1000)) || !got.Subtotal.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected line %+v", got)
	}
}

func TestAggregateKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	lines := Aggregate([]models.OrderLineRecord{
		rec(9, "Gula", 1, 15000),
		rec(2, "Teh", 1, 4000),
		rec(9, "Gula", 2, 15000),
		rec(5, "Kopi", 1, 2000),
	})
	if len(lines) != 3 || lines[0].ProductID != 9 || lines[1].ProductID != 2 || lines[2].ProductID != 5 {
		t.Fatalf("unexpected order %+v", lines)
	}
	if lines[0].Qty != 3 {
		t.Fatalf("expected Gula qty 3, got %d", lines[0].Qty)
	}
}

func TestAggregateUsesFirstRecordPrice(t *testing.T) {
	t.Parallel()

	lines := Aggregate([]models.OrderLineRecord{
		rec(1, "Beras 5kg", 1, 70000),
		rec(1, "Beras 5kg", 1, 68000),
	})
	if !lines[0].UnitPrice.Equal(decimal.NewFromInt(70000)) || !lines[0].Subtotal.Equal(decimal.NewFromInt(140000)) {
		t.Fatalf("expected first record price applied to whole group, got %+v", lines[0])
	}
}

func TestAggregateSkipsRecordsWithoutProduct(t *testing.T) {
	t.Parallel()

	records := []models.OrderLineRecord{
		rec(0, "", 4, 100),
		rec(3, "Sabun", 1, 3500),
	}
	lines := Aggregate(records)
	if len(lines) != 1 || lines[0].ProductID != 3 {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if Skipped(records) != 1 {
		t.Fatalf("expected one skipped record, got %d", Skipped(records))
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	t.Parallel()

	if lines := Aggregate(nil); lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", lines)
	}
}
