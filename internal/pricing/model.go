package pricing

import "github.com/shopspring/decimal"

// Thickness is one of the nominal glass thickness buckets a rate table can
// carry. The set is fixed; DGU is the insulated-unit pseudo bucket.
type Thickness string

const (
	Thickness3_5 Thickness = "3.5"
	Thickness4   Thickness = "4"
	Thickness5   Thickness = "5"
	Thickness6   Thickness = "6"
	Thickness8   Thickness = "8"
	Thickness10  Thickness = "10"
	Thickness12  Thickness = "12"
	Thickness19  Thickness = "19"
	ThicknessDGU Thickness = "DGU"
)

// Thicknesses lists every valid bucket in rate-sheet order.
var Thicknesses = []Thickness{
	Thickness3_5, Thickness4, Thickness5, Thickness6,
	Thickness8, Thickness10, Thickness12, Thickness19, ThicknessDGU,
}

// ParseThickness validates a thickness label against the fixed bucket set.
func ParseThickness(s string) (Thickness, bool) {
	for _, t := range Thicknesses {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// PricingType is the basis a fabrication process is charged on.
type PricingType string

const (
	PricingFixed  PricingType = "FIXED"  // per piece
	PricingArea   PricingType = "AREA"   // per square foot
	PricingLength PricingType = "LENGTH" // per running foot of perimeter
)

// RateRow is one organization's active rate sheet for a glass type: a sparse
// map from thickness bucket to rate per square foot.
type RateRow struct {
	OrgID     int64
	GlassType string
	Rates     map[Thickness]decimal.Decimal
}

// RateFor returns the configured rate for a bucket. The second return is
// false when the bucket has no rate, which callers must surface as a
// diagnostic rather than a free item.
func (r *RateRow) RateFor(t Thickness) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Zero, false
	}
	rate, ok := r.Rates[t]
	if !ok || rate.IsZero() {
		return decimal.Zero, false
	}
	return rate, true
}

// ProcessDefinition is a named fabrication operation from the tenant catalog.
type ProcessDefinition struct {
	OrgID       int64
	Code        string
	Name        string
	PricingType PricingType
	Rate        decimal.Decimal
}

// ProcessSelection is one process requested on a line item, optionally with a
// rate that overrides the catalog default for this line only.
type ProcessSelection struct {
	Code         string
	OverrideRate *decimal.Decimal
}

// LineItemSpec is the raw input for pricing one line. Exactly one of the
// inch pair and the millimetre pair must be supplied.
type LineItemSpec struct {
	GlassType string
	Thickness Thickness
	WidthIn   *float64
	HeightIn  *float64
	WidthMM   *float64
	HeightMM  *float64
	Quantity  int
	Processes []ProcessSelection
}

// ProcessCharge is the priced result of one selected process.
type ProcessCharge struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	PricingType PricingType     `json:"pricing_type"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// ComputedLineItem is a fully priced line: billable dimensions, glass base
// price and the per-process breakdown.
type ComputedLineItem struct {
	GlassType      string          `json:"glass_type"`
	Thickness      Thickness       `json:"thickness"`
	WidthIn        float64         `json:"width_in"`
	HeightIn       float64         `json:"height_in"`
	WidthFt        float64         `json:"width_ft"`
	HeightFt       float64         `json:"height_ft"`
	AreaPerPiece   float64         `json:"area_per_piece"`
	TotalArea      float64         `json:"total_area"`
	PerimeterFt    float64         `json:"perimeter_ft"`
	TotalLength    float64         `json:"total_length"`
	Quantity       int             `json:"quantity"`
	GlassRate      decimal.Decimal `json:"glass_rate"`
	BaseGlassPrice decimal.Decimal `json:"base_glass_price"`
	Processes      []ProcessCharge `json:"processes,omitempty"`
	ProcessTotal   decimal.Decimal `json:"process_total"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// TaxMode distinguishes intra-state (CGST+SGST split) from inter-state
// (single IGST) transactions.
type TaxMode string

const (
	TaxIntra TaxMode = "INTRA"
	TaxInter TaxMode = "INTER"
)

// DefaultGSTPercent is the single fallback applied when an organization has
// no configured tax rate record.
var DefaultGSTPercent = decimal.NewFromInt(18)

// TaxConfig is the resolved tax setup for one organization.
type TaxConfig struct {
	Enabled    bool
	Mode       TaxMode
	GSTPercent decimal.Decimal
}

// DocumentTotals aggregates line totals through discount and GST. Each stage
// is rounded before feeding the next.
type DocumentTotals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	AfterDiscount   decimal.Decimal `json:"after_discount"`
	CGST            decimal.Decimal `json:"cgst"`
	SGST            decimal.Decimal `json:"sgst"`
	IGST            decimal.Decimal `json:"igst"`
	Total           decimal.Decimal `json:"total"`
}

// Tax returns the combined tax across both modes.
func (t DocumentTotals) Tax() decimal.Decimal {
	return t.CGST.Add(t.SGST).Add(t.IGST)
}

// Settings are the per-organization pricing knobs.
type Settings struct {
	StepInches float64
	MinCharge  decimal.Decimal
}

// Diagnostic flags a tenant configuration gap found while pricing. The line
// is still computed (at zero rate) so drafts can be saved pending manual
// pricing, but the gap is never silent.
type Diagnostic struct {
	Code      string    `json:"code"`
	OrgID     int64     `json:"org_id"`
	GlassType string    `json:"glass_type"`
	Thickness Thickness `json:"thickness"`
	Message   string    `json:"message"`
}

// DiagMissingRate identifies a glass type/thickness combination with no
// configured rate.
const DiagMissingRate = "missing_rate"
