package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func linesWithTotals(totals ...string) []ComputedLineItem {
	lines := make([]ComputedLineItem, 0, len(totals))
	for _, s := range totals {
		lines = append(lines, ComputedLineItem{LineTotal: dec(s)})
	}
	return lines
}

// Subtotal 1000, 10% discount, GST enabled intra-state.
func TestComputeTotalsIntraState(t *testing.T) {
	got := ComputeTotals(linesWithTotals("600", "400"), dec("10"), TaxConfig{
		Enabled:    true,
		Mode:       TaxIntra,
		GSTPercent: dec("18"),
	})

	assert.True(t, got.Subtotal.Equal(dec("1000")))
	assert.True(t, got.DiscountAmount.Equal(dec("100")))
	assert.True(t, got.AfterDiscount.Equal(dec("900")))
	assert.True(t, got.CGST.Equal(dec("81")), "cgst=%s", got.CGST)
	assert.True(t, got.SGST.Equal(dec("81")))
	assert.True(t, got.IGST.IsZero())
	assert.True(t, got.Total.Equal(dec("1062")), "total=%s", got.Total)
}

func TestComputeTotalsInterState(t *testing.T) {
	got := ComputeTotals(linesWithTotals("1000"), decimal.Zero, TaxConfig{
		Enabled:    true,
		Mode:       TaxInter,
		GSTPercent: dec("18"),
	})

	assert.True(t, got.CGST.IsZero())
	assert.True(t, got.SGST.IsZero())
	assert.True(t, got.IGST.Equal(dec("180")))
	assert.True(t, got.Total.Equal(dec("1180")))
}

func TestComputeTotalsGSTDisabled(t *testing.T) {
	got := ComputeTotals(linesWithTotals("1000"), dec("5"), TaxConfig{Enabled: false})

	assert.True(t, got.Tax().IsZero())
	assert.True(t, got.Total.Equal(dec("950")))
}

func TestComputeTotalsFallbackRate(t *testing.T) {
	// No configured percentage falls back to the single 18% default.
	got := ComputeTotals(linesWithTotals("900"), decimal.Zero, TaxConfig{
		Enabled: true,
		Mode:    TaxIntra,
	})
	assert.True(t, got.CGST.Equal(dec("81")))
	assert.True(t, got.SGST.Equal(dec("81")))
}

// cgst+sgst+igst must always equal the combined tax, and only one mode's
// components may be nonzero.
func TestComputeTotalsTaxBreakdownInvariant(t *testing.T) {
	subtotals := []string{"0.01", "99.99", "1234.56", "100000"}
	for _, s := range subtotals {
		for _, mode := range []TaxMode{TaxIntra, TaxInter} {
			got := ComputeTotals(linesWithTotals(s), dec("7.5"), TaxConfig{
				Enabled: true, Mode: mode, GSTPercent: dec("18"),
			})
			assert.True(t, got.Tax().Equal(got.CGST.Add(got.SGST).Add(got.IGST)))
			if mode == TaxIntra {
				assert.True(t, got.IGST.IsZero())
			} else {
				assert.True(t, got.CGST.IsZero())
				assert.True(t, got.SGST.IsZero())
			}
			assert.True(t, got.Total.Equal(got.AfterDiscount.Add(got.Tax())))
		}
	}
}

func TestComputeTotalsRoundsEachStage(t *testing.T) {
	// 3 x 33.333 rounds per accumulation step, so the subtotal reflects the
	// already-rounded line totals, not the raw product.
	got := ComputeTotals(linesWithTotals("33.33", "33.33", "33.33"), decimal.Zero, TaxConfig{})
	assert.True(t, got.Subtotal.Equal(dec("99.99")))
	// Re-rounding a rounded chain is a no-op.
	assert.True(t, Round2(got.Total).Equal(got.Total))
}
