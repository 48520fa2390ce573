package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kasirpos/kasir-terminal/internal/pricing"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/shopspring/decimal"
)

// Line is one product's quantity inside a cart. Product is a snapshot taken
// when the line was created (or last refreshed) and is not kept in sync with
// the catalog.
type Line struct {
	Product   models.Product  `json:"product"`
	Quantity  int             `json:"qty"`
	LineTotal decimal.Decimal `json:"total"`
	AddedAt   time.Time       `json:"addedAt"`
}

// UnitPrice is the price per unit at the line's current quantity.
func (l Line) UnitPrice() decimal.Decimal {
	return pricing.UnitPrice(l.Product, l.Quantity)
}

// Tier reports whether the line is currently charged retail or wholesale.
func (l Line) Tier() enums.PriceTier {
	return pricing.TierFor(l.Product, l.Quantity)
}

// Ledger is the ordered set of cart lines for one cashier session, keyed by
// product id. It is not safe for concurrent use; Service serializes access.
type Ledger struct {
	id        uuid.UUID
	lines     []*Line
	updatedAt time.Time
	now       func() time.Time
}

// NewLedger returns an empty cart.
func NewLedger() *Ledger {
	return &Ledger{id: uuid.New(), now: time.Now}
}

// ID identifies this cart instance; a cleared session starts a new one.
func (l *Ledger) ID() uuid.UUID {
	return l.id
}

// UpdatedAt is the time of the last mutation.
func (l *Ledger) UpdatedAt() time.Time {
	return l.updatedAt
}

// AddOrIncrement puts one more unit of product in the cart. A product not yet
// present starts a new line at quantity 1. The request is refused, leaving
// the cart untouched, when the product's stock cannot cover the new quantity.
func (l *Ledger) AddOrIncrement(product models.Product) (Line, error) {
	if idx := l.indexOf(product.ID); idx >= 0 {
		line := l.lines[idx]
		next := line.Quantity + 1
		if next > product.Stock {
			return *line, stockExceeded(product)
		}
		line.Product = product
		line.Quantity = next
		line.LineTotal = pricing.LineTotal(product, next)
		l.touch()
		return *line, nil
	}

	if product.Stock < 1 {
		return Line{}, stockExceeded(product)
	}
	line := &Line{
		Product:   product,
		Quantity:  1,
		LineTotal: pricing.LineTotal(product, 1),
		AddedAt:   l.clock(),
	}
	l.lines = append(l.lines, line)
	l.touch()
	return *line, nil
}

// Decrement takes one unit off a line and re-prices it. A line reaching zero
// is removed. The returned bool is false when the product is not in the cart.
func (l *Ledger) Decrement(productID int64) (Line, bool) {
	idx := l.indexOf(productID)
	if idx < 0 {
		return Line{}, false
	}
	line := l.lines[idx]
	line.Quantity--
	if line.Quantity <= 0 {
		removed := *line
		removed.Quantity = 0
		removed.LineTotal = decimal.Zero
		l.removeAt(idx)
		l.touch()
		return removed, true
	}
	line.LineTotal = pricing.LineTotal(line.Product, line.Quantity)
	l.touch()
	return *line, true
}

// Remove drops the product's line whatever its quantity. Removing an absent
// product is a no-op and reports false.
func (l *Ledger) Remove(productID int64) bool {
	idx := l.indexOf(productID)
	if idx < 0 {
		return false
	}
	l.removeAt(idx)
	l.touch()
	return true
}

// Total sums every line, re-deriving each line price from the pricing rule.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(pricing.LineTotal(line.Product, line.Quantity))
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, *line)
	}
	return out
}

// Quantity returns the units of productID in the cart, zero when absent.
func (l *Ledger) Quantity(productID int64) int {
	if idx := l.indexOf(productID); idx >= 0 {
		return l.lines[idx].Quantity
	}
	return 0
}

// Units is the total number of units across all lines.
func (l *Ledger) Units() int {
	units := 0
	for _, line := range l.lines {
		units += line.Quantity
	}
	return units
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// Clear empties the cart.
func (l *Ledger) Clear() {
	l.lines = nil
	l.touch()
}

// AdjustmentKind describes what Refresh changed on a line.
type AdjustmentKind string

const (
	AdjustmentRemoved  AdjustmentKind = "removed"
	AdjustmentClamped  AdjustmentKind = "clamped"
	AdjustmentRepriced AdjustmentKind = "repriced"
)

// Adjustment reports one change Refresh made to a line.
type Adjustment struct {
	ProductID         int64           `json:"productId"`
	ProductName       string          `json:"productName"`
	Kind              AdjustmentKind  `json:"kind"`
	Reason            string          `json:"reason"`
	PreviousQty       int             `json:"previousQty"`
	Qty               int             `json:"qty"`
	PreviousUnitPrice decimal.Decimal `json:"previousUnitPrice"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
}

// Refresh replaces every line's product snapshot with the catalog's current
// version. Lines whose product is missing from catalog or out of stock are
// removed, quantities above the new stock are clamped, and price changes are
// reported. Every line is re-priced at its resulting quantity.
func (l *Ledger) Refresh(catalog map[int64]models.Product) []Adjustment {
	var adjustments []Adjustment
	kept := l.lines[:0]
	for _, line := range l.lines {
		current, ok := catalog[line.Product.ID]
		prevQty := line.Quantity
		prevUnit := line.UnitPrice()

		switch {
		case !ok:
			adjustments = append(adjustments, Adjustment{
				ProductID: line.Product.ID, ProductName: line.Product.Name, Kind: AdjustmentRemoved,
				Reason: "product is no longer listed", PreviousQty: prevQty, PreviousUnitPrice: prevUnit, UnitPrice: prevUnit,
			})
			continue
		case current.Stock < 1:
			adjustments = append(adjustments, Adjustment{
				ProductID: current.ID, ProductName: current.Name, Kind: AdjustmentRemoved,
				Reason: "product is out of stock", PreviousQty: prevQty, PreviousUnitPrice: prevUnit, UnitPrice: prevUnit,
			})
			continue
		}

		line.Product = current
		if line.Quantity > current.Stock {
			line.Quantity = current.Stock
			adjustments = append(adjustments, Adjustment{
				ProductID: current.ID, ProductName: current.Name, Kind: AdjustmentClamped,
				Reason:      fmt.Sprintf("only %d in stock", current.Stock),
				PreviousQty: prevQty, Qty: line.Quantity, PreviousUnitPrice: prevUnit, UnitPrice: line.UnitPrice(),
			})
		} else if unit := line.UnitPrice(); !unit.Equal(prevUnit) {
			adjustments = append(adjustments, Adjustment{
				ProductID: current.ID, ProductName: current.Name, Kind: AdjustmentRepriced,
				Reason:      fmt.Sprintf("unit price changed from %s to %s", prevUnit, unit),
				PreviousQty: prevQty, Qty: line.Quantity, PreviousUnitPrice: prevUnit, UnitPrice: unit,
			})
		}
		line.LineTotal = pricing.LineTotal(line.Product, line.Quantity)
		kept = append(kept, line)
	}
	for i := len(kept); i < len(l.lines); i++ {
		l.lines[i] = nil
	}
	l.lines = kept
	l.touch()
	return adjustments
}

// Snapshot is the serializable form of a Ledger used by session stores.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot captures the ledger state.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{ID: l.id, Lines: l.Lines(), UpdatedAt: l.updatedAt}
}

// Restore rebuilds a ledger from a snapshot. Line totals are re-derived from
// the pricing rule and lines with a non-positive quantity are dropped.
func Restore(s Snapshot) *Ledger {
	l := &Ledger{id: s.ID, updatedAt: s.UpdatedAt, now: time.Now}
	if l.id == uuid.Nil {
		l.id = uuid.New()
	}
	for _, line := range s.Lines {
		if line.Quantity <= 0 || l.indexOf(line.Product.ID) >= 0 {
			continue
		}
		restored := line
		restored.LineTotal = pricing.LineTotal(restored.Product, restored.Quantity)
		l.lines = append(l.lines, &restored)
	}
	return l
}

func (l *Ledger) indexOf(productID int64) int {
	for i, line := range l.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (l *Ledger) removeAt(idx int) {
	copy(l.lines[idx:], l.lines[idx+1:])
	l.lines[len(l.lines)-1] = nil
	l.lines = l.lines[:len(l.lines)-1]
}

func (l *Ledger) touch() {
	l.updatedAt = l.clock()
}

func (l *Ledger) clock() time.Time {
	if l.now == nil {
		return time.Now()
	}
	return l.now()
}

func stockExceeded(product models.Product) *pkgerrors.Error {
	msg := fmt.Sprintf("only %d of %s in stock", product.Stock, product.Name)
	if product.Stock < 1 {
		msg = fmt.Sprintf("%s is out of stock", product.Name)
	}
	return pkgerrors.New(pkgerrors.CodeOutOfStock, msg).WithDetails(map[string]any{
		"product_id":   product.ID,
		"product_name": product.Name,
		"available":    product.Stock,
	})
}
