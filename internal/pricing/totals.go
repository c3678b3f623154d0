package pricing

import "github.com/shopspring/decimal"

// ComputeTotals aggregates priced lines into document-level totals:
// subtotal, percentage discount, then GST split by mode. Each stage is
// rounded to two decimals before the next consumes it.
func ComputeTotals(lines []ComputedLineItem, discountPercent decimal.Decimal, tax TaxConfig) DocumentTotals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = Round2(subtotal.Add(l.LineTotal))
	}

	discount := Round2(subtotal.Mul(discountPercent).Div(hundred))
	after := Round2(subtotal.Sub(discount))

	t := DocumentTotals{
		Subtotal:        subtotal,
		DiscountPercent: discountPercent,
		DiscountAmount:  discount,
		AfterDiscount:   after,
		CGST:            decimal.Zero,
		SGST:            decimal.Zero,
		IGST:            decimal.Zero,
	}

	if tax.Enabled {
		pct := tax.GSTPercent
		if pct.IsZero() {
			pct = DefaultGSTPercent
		}
		switch tax.Mode {
		case TaxInter:
			t.IGST = Round2(after.Mul(pct).Div(hundred))
		default: // TaxIntra
			half := Round2(after.Mul(pct.Div(two)).Div(hundred))
			t.CGST = half
			t.SGST = half
		}
	}

	t.Total = Round2(after.Add(t.CGST).Add(t.SGST).Add(t.IGST))
	return t
}
