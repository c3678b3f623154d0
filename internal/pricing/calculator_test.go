package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fp(f float64) *float64 { return &f }

func clearFloatRates() *RateRow {
	return &RateRow{
		OrgID:     1,
		GlassType: "Clear Float",
		Rates: map[Thickness]decimal.Decimal{
			Thickness5: dec("42"),
		},
	}
}

func testProcesses() map[string]ProcessDefinition {
	return map[string]ProcessDefinition{
		"BP":  {OrgID: 1, Code: "BP", Name: "Beveled Polish", PricingType: PricingArea, Rate: dec("45")},
		"TMP": {OrgID: 1, Code: "TMP", Name: "Tempering", PricingType: PricingArea, Rate: dec("85")},
		"HOL": {OrgID: 1, Code: "HOL", Name: "Hole Drilling", PricingType: PricingFixed, Rate: dec("30")},
		"EP":  {OrgID: 1, Code: "EP", Name: "Edge Polish", PricingType: PricingLength, Rate: dec("12")},
	}
}

// Clear Float 5mm @ 42/sqft, 24x36in qty 2, BP + TMP at catalog rates.
func TestPriceLineClearFloatWithProcesses(t *testing.T) {
	item, diags, err := PriceLine(LineItemSpec{
		GlassType: "Clear Float",
		Thickness: Thickness5,
		WidthIn:   fp(24),
		HeightIn:  fp(36),
		Quantity:  2,
		Processes: []ProcessSelection{{Code: "BP"}, {Code: "TMP"}},
	}, clearFloatRates(), testProcesses(), Settings{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.InDelta(t, 2.0, item.WidthFt, 1e-12)
	assert.InDelta(t, 3.0, item.HeightFt, 1e-12)
	assert.InDelta(t, 6.0, item.AreaPerPiece, 1e-12)
	assert.InDelta(t, 12.0, item.TotalArea, 1e-12)
	assert.True(t, item.BaseGlassPrice.Equal(dec("504")), "base=%s", item.BaseGlassPrice)

	require.Len(t, item.Processes, 2)
	assert.True(t, item.Processes[0].Amount.Equal(dec("540")), "bp=%s", item.Processes[0].Amount)
	assert.True(t, item.Processes[1].Amount.Equal(dec("1020")), "tmp=%s", item.Processes[1].Amount)
	assert.True(t, item.LineTotal.Equal(dec("2064")), "total=%s", item.LineTotal)
}

// Same line but TMP overridden to 90/sqft.
func TestPriceLineProcessOverrideRate(t *testing.T) {
	override := dec("90")
	item, diags, err := PriceLine(LineItemSpec{
		GlassType: "Clear Float",
		Thickness: Thickness5,
		WidthIn:   fp(24),
		HeightIn:  fp(36),
		Quantity:  2,
		Processes: []ProcessSelection{{Code: "BP"}, {Code: "TMP", OverrideRate: &override}},
	}, clearFloatRates(), testProcesses(), Settings{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.True(t, item.Processes[1].Rate.Equal(dec("90")))
	assert.True(t, item.Processes[1].Amount.Equal(dec("1080")))
	assert.True(t, item.LineTotal.Equal(dec("2124")), "total=%s", item.LineTotal)
}

// Millimetre input for the same physical size must price identically.
func TestPriceLineMillimetreEquivalence(t *testing.T) {
	fromIn, _, err := PriceLine(LineItemSpec{
		GlassType: "Clear Float", Thickness: Thickness5,
		WidthIn: fp(24), HeightIn: fp(36), Quantity: 2,
		Processes: []ProcessSelection{{Code: "BP"}, {Code: "TMP"}},
	}, clearFloatRates(), testProcesses(), Settings{})
	require.NoError(t, err)

	fromMM, _, err := PriceLine(LineItemSpec{
		GlassType: "Clear Float", Thickness: Thickness5,
		WidthMM: fp(609.6), HeightMM: fp(914.4), Quantity: 2,
		Processes: []ProcessSelection{{Code: "BP"}, {Code: "TMP"}},
	}, clearFloatRates(), testProcesses(), Settings{})
	require.NoError(t, err)

	assert.True(t, fromIn.LineTotal.Equal(fromMM.LineTotal))
	assert.InDelta(t, fromIn.TotalArea, fromMM.TotalArea, 1e-9)
	assert.True(t, fromIn.BaseGlassPrice.Equal(fromMM.BaseGlassPrice))
}

func TestPriceLineFixedAndLengthProcesses(t *testing.T) {
	item, _, err := PriceLine(LineItemSpec{
		GlassType: "Clear Float", Thickness: Thickness5,
		WidthIn: fp(24), HeightIn: fp(36), Quantity: 2,
		Processes: []ProcessSelection{{Code: "HOL"}, {Code: "EP"}},
	}, clearFloatRates(), testProcesses(), Settings{})
	require.NoError(t, err)

	// HOL fixed: 30 x 2 pieces. EP length: perimeter 2*(2+3)=10ft, 20ft total, 12/ft.
	assert.True(t, item.Processes[0].Amount.Equal(dec("60")), "hol=%s", item.Processes[0].Amount)
	assert.True(t, item.Processes[1].Amount.Equal(dec("240")), "ep=%s", item.Processes[1].Amount)
	assert.True(t, item.LineTotal.Equal(dec("804")))
}

func TestPriceLineMissingRateDiagnostic(t *testing.T) {
	item, diags, err := PriceLine(LineItemSpec{
		GlassType: "Clear Float",
		Thickness: Thickness12, // no 12mm rate configured
		WidthIn:   fp(24),
		HeightIn:  fp(36),
		Quantity:  1,
	}, clearFloatRates(), testProcesses(), Settings{})
	require.NoError(t, err)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagMissingRate, diags[0].Code)
	assert.Equal(t, "Clear Float", diags[0].GlassType)
	assert.Equal(t, Thickness12, diags[0].Thickness)
	assert.Equal(t, int64(1), diags[0].OrgID)
	assert.True(t, item.BaseGlassPrice.IsZero())
}

func TestPriceLineNoRateSheetAtAll(t *testing.T) {
	_, diags, err := PriceLine(LineItemSpec{
		GlassType: "Bronze Tinted",
		Thickness: Thickness5,
		WidthIn:   fp(12),
		HeightIn:  fp(12),
		Quantity:  1,
	}, nil, testProcesses(), Settings{})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagMissingRate, diags[0].Code)
}

func TestPriceLineMinimumCharge(t *testing.T) {
	item, _, err := PriceLine(LineItemSpec{
		GlassType: "Clear Float", Thickness: Thickness5,
		WidthIn: fp(3), HeightIn: fp(3), Quantity: 1,
	}, clearFloatRates(), testProcesses(), Settings{MinCharge: dec("150")})
	require.NoError(t, err)
	// 0.25ft x 0.25ft = 0.0625 sqft -> 2.63, floored to the minimum.
	assert.True(t, item.LineTotal.Equal(dec("150")), "total=%s", item.LineTotal)
}

func TestPriceLineValidation(t *testing.T) {
	base := func() LineItemSpec {
		return LineItemSpec{
			GlassType: "Clear Float", Thickness: Thickness5,
			WidthIn: fp(24), HeightIn: fp(36), Quantity: 1,
		}
	}

	t.Run("zero quantity", func(t *testing.T) {
		spec := base()
		spec.Quantity = 0
		_, _, err := PriceLine(spec, clearFloatRates(), testProcesses(), Settings{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "quantity", verr.Field)
	})

	t.Run("negative width", func(t *testing.T) {
		spec := base()
		spec.WidthIn = fp(-1)
		_, _, err := PriceLine(spec, clearFloatRates(), testProcesses(), Settings{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "width", verr.Field)
	})

	t.Run("both unit systems", func(t *testing.T) {
		spec := base()
		spec.WidthMM = fp(609.6)
		spec.HeightMM = fp(914.4)
		_, _, err := PriceLine(spec, clearFloatRates(), testProcesses(), Settings{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "dimensions", verr.Field)
	})

	t.Run("no dimensions", func(t *testing.T) {
		spec := base()
		spec.WidthIn, spec.HeightIn = nil, nil
		_, _, err := PriceLine(spec, clearFloatRates(), testProcesses(), Settings{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown process", func(t *testing.T) {
		spec := base()
		spec.Processes = []ProcessSelection{{Code: "NOPE"}}
		_, _, err := PriceLine(spec, clearFloatRates(), testProcesses(), Settings{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "processes", verr.Field)
	})

	t.Run("unknown thickness", func(t *testing.T) {
		spec := base()
		spec.Thickness = Thickness("7")
		_, _, err := PriceLine(spec, clearFloatRates(), testProcesses(), Settings{})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "thickness", verr.Field)
	})
}

func TestParseThickness(t *testing.T) {
	got, ok := ParseThickness("3.5")
	assert.True(t, ok)
	assert.Equal(t, Thickness3_5, got)

	got, ok = ParseThickness("DGU")
	assert.True(t, ok)
	assert.Equal(t, ThicknessDGU, got)

	_, ok = ParseThickness("7")
	assert.False(t, ok)
}
