package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount the way Indonesian receipts print it,
// e.g. 1250000 -> "Rp 1.250.000". Fractions are rounded to whole rupiah.
func FormatRupiah(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	negative := rounded.IsNegative()
	digits := rounded.Abs().StringFixed(0)

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}

	if negative {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
