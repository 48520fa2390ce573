package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kasirpos/kasir-terminal/pkg/types"
)

// RenderWidth is the character width of a 58mm thermal receipt.
const RenderWidth = 32

var wib = time.FixedZone("WIB", 7*60*60)

// Render lays the receipt out as plain text for the receipt screen and
// thermal printers. Times are shown in WIB.
func Render(r Receipt) string {
	var b strings.Builder
	rule := strings.Repeat("-", RenderWidth)

	b.WriteString(center("STRUK PEMBELIAN"))
	b.WriteByte('\n')
	writeField(&b, "ID Transaksi", r.Number)
	writeField(&b, "Kasir", r.CashierName)
	if !r.CreatedAt.IsZero() {
		writeField(&b, "Tanggal", r.CreatedAt.In(wib).Format("02/01/2006 15:04"))
	}
	writeField(&b, "Metode Bayar", r.PaymentMethodName)
	b.WriteString(rule)
	b.WriteByte('\n')
	for _, line := range r.Lines {
		writeColumns(&b, fmt.Sprintf("%s x %d", line.Name, line.Qty), types.FormatRupiah(line.Subtotal))
	}
	b.WriteString(rule)
	b.WriteByte('\n')
	writeColumns(&b, "Total", types.FormatRupiah(r.Total))
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// writeColumns puts left and right on one line, wrapping left onto its own
// line when both do not fit.
func writeColumns(b *strings.Builder, left, right string) {
	gap := RenderWidth - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		b.WriteString(left)
		b.WriteByte('\n')
		left = ""
		gap = RenderWidth - utf8.RuneCountInString(right)
	}
	b.WriteString(left)
	b.WriteString(strings.Repeat(" ", max(gap, 1)))
	b.WriteString(right)
	b.WriteByte('\n')
}

func center(s string) string {
	pad := (RenderWidth - utf8.RuneCountInString(s)) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
