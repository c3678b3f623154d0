package pricing

import (
	"github.com/shopspring/decimal"
)

// PriceLine converts a raw line specification into a fully priced line item.
// rates may be nil (no active rate sheet for the glass type); the line is
// then priced at a zero glass rate and a diagnostic is returned so the zero
// is visibly a configuration gap. processes maps process code to its catalog
// definition and must contain every code the line references.
func PriceLine(spec LineItemSpec, rates *RateRow, processes map[string]ProcessDefinition, set Settings) (ComputedLineItem, []Diagnostic, error) {
	widthIn, heightIn, err := normalizeDimensions(spec)
	if err != nil {
		return ComputedLineItem{}, nil, err
	}
	if spec.Quantity <= 0 {
		return ComputedLineItem{}, nil, invalid("quantity", "must be a positive integer")
	}
	if _, ok := ParseThickness(string(spec.Thickness)); !ok {
		return ComputedLineItem{}, nil, invalid("thickness", "unknown thickness %q", spec.Thickness)
	}

	widthFt := FeetRoundedUp(widthIn, set.StepInches)
	heightFt := FeetRoundedUp(heightIn, set.StepInches)

	areaPerPiece := widthFt * heightFt
	totalArea := areaPerPiece * float64(spec.Quantity)
	perimeter := 2 * (widthFt + heightFt)
	totalLength := perimeter * float64(spec.Quantity)

	var diags []Diagnostic
	rate, ok := rates.RateFor(spec.Thickness)
	if !ok {
		orgID := int64(0)
		if rates != nil {
			orgID = rates.OrgID
		}
		diags = append(diags, Diagnostic{
			Code:      DiagMissingRate,
			OrgID:     orgID,
			GlassType: spec.GlassType,
			Thickness: spec.Thickness,
			Message:   "no rate configured for this glass type and thickness",
		})
	}

	basePrice := Round2(rate.Mul(FromFloat(totalArea)))

	item := ComputedLineItem{
		GlassType:      spec.GlassType,
		Thickness:      spec.Thickness,
		WidthIn:        widthIn,
		HeightIn:       heightIn,
		WidthFt:        widthFt,
		HeightFt:       heightFt,
		AreaPerPiece:   areaPerPiece,
		TotalArea:      totalArea,
		PerimeterFt:    perimeter,
		TotalLength:    totalLength,
		Quantity:       spec.Quantity,
		GlassRate:      rate,
		BaseGlassPrice: basePrice,
		ProcessTotal:   decimal.Zero,
	}

	for _, sel := range spec.Processes {
		def, ok := processes[sel.Code]
		if !ok {
			return ComputedLineItem{}, nil, invalid("processes", "unknown process code %q", sel.Code)
		}
		charge := priceProcess(def, sel, spec.Quantity, totalArea, totalLength)
		item.Processes = append(item.Processes, charge)
		item.ProcessTotal = Round2(item.ProcessTotal.Add(charge.Amount))
	}

	item.LineTotal = Round2(item.BaseGlassPrice.Add(item.ProcessTotal))
	if set.MinCharge.IsPositive() && item.LineTotal.LessThan(set.MinCharge) {
		item.LineTotal = set.MinCharge
	}
	return item, diags, nil
}

func priceProcess(def ProcessDefinition, sel ProcessSelection, qty int, totalArea, totalLength float64) ProcessCharge {
	rate := def.Rate
	if sel.OverrideRate != nil {
		rate = *sel.OverrideRate
	}

	var amount decimal.Decimal
	switch def.PricingType {
	case PricingFixed:
		amount = rate.Mul(decimal.NewFromInt(int64(qty)))
	case PricingLength:
		amount = rate.Mul(FromFloat(totalLength))
	default: // PricingArea
		amount = rate.Mul(FromFloat(totalArea))
	}

	return ProcessCharge{
		Code:        def.Code,
		Name:        def.Name,
		PricingType: def.PricingType,
		Rate:        rate,
		Amount:      Round2(amount),
	}
}

// normalizeDimensions enforces the exactly-one-unit-pair rule and returns
// the dimensions in inches.
func normalizeDimensions(spec LineItemSpec) (widthIn, heightIn float64, err error) {
	hasInches := spec.WidthIn != nil || spec.HeightIn != nil
	hasMM := spec.WidthMM != nil || spec.HeightMM != nil

	switch {
	case hasInches && hasMM:
		return 0, 0, invalid("dimensions", "supply dimensions in inches or millimetres, not both")
	case hasInches:
		if spec.WidthIn == nil || spec.HeightIn == nil {
			return 0, 0, invalid("dimensions", "both width_in and height_in are required")
		}
		widthIn, heightIn = *spec.WidthIn, *spec.HeightIn
	case hasMM:
		if spec.WidthMM == nil || spec.HeightMM == nil {
			return 0, 0, invalid("dimensions", "both width_mm and height_mm are required")
		}
		widthIn, heightIn = InchesFromMM(*spec.WidthMM), InchesFromMM(*spec.HeightMM)
	default:
		return 0, 0, invalid("dimensions", "dimensions are required")
	}

	if widthIn <= 0 {
		return 0, 0, invalid("width", "must be greater than zero")
	}
	if heightIn <= 0 {
		return 0, 0, invalid("height", "must be greater than zero")
	}
	return widthIn, heightIn, nil
}
