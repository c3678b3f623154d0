// Package shared holds the document pricing glue used by quotations, sales
// orders and invoices.
package shared

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

// ProcessInput selects a catalog process on a line, optionally overriding
// its rate for this line only.
type ProcessInput struct {
	Code         string           `json:"code" validate:"required,max=20"`
	OverrideRate *decimal.Decimal `json:"override_rate,omitempty"`
}

// LineInput is the raw line specification as submitted. Dimensions come in
// inches or millimetres, exactly one pair.
type LineInput struct {
	GlassType string         `json:"glass_type" validate:"required,max=100"`
	Thickness string         `json:"thickness" validate:"required"`
	WidthIn   *float64       `json:"width_in,omitempty"`
	HeightIn  *float64       `json:"height_in,omitempty"`
	WidthMM   *float64       `json:"width_mm,omitempty"`
	HeightMM  *float64       `json:"height_mm,omitempty"`
	Quantity  int            `json:"quantity" validate:"required,gt=0"`
	Processes []ProcessInput `json:"processes,omitempty" validate:"dive"`
}

// Catalog is the tenant-configuration surface the pricer reads from.
type Catalog interface {
	RateRowFor(ctx context.Context, orgID int64, glassType string) (*pricing.RateRow, error)
	ProcessMap(ctx context.Context, orgID int64, codes []string) (map[string]pricing.ProcessDefinition, error)
	TaxConfigFor(ctx context.Context, orgID int64) (pricing.TaxConfig, error)
	SettingsFor(ctx context.Context, orgID int64) (pricing.Settings, error)
}

// PricedDocument is the computed result for a whole document.
type PricedDocument struct {
	Lines       []pricing.ComputedLineItem
	Totals      pricing.DocumentTotals
	Diagnostics []pricing.Diagnostic
}

// Pricer prices a full document against an organization's catalog.
type Pricer struct {
	catalog Catalog

	// OnGap is invoked once per missing-rate diagnostic, keyed by glass
	// type. Used for metrics.
	OnGap func(glassType string)
}

// NewPricer wires the catalog dependency.
func NewPricer(catalog Catalog) *Pricer {
	return &Pricer{catalog: catalog}
}

// PriceDocument prices every line and aggregates totals. Validation errors
// from the pricing engine propagate as-is; missing-rate gaps are collected
// as diagnostics so drafts can still be saved.
func (p *Pricer) PriceDocument(ctx context.Context, orgID int64, lines []LineInput, discountPercent decimal.Decimal) (*PricedDocument, error) {
	if len(lines) == 0 {
		return nil, &pricing.ValidationError{Field: "lines", Message: "at least one line is required"}
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &pricing.ValidationError{Field: "discount_percent", Message: "must be between 0 and 100"}
	}

	settings, err := p.catalog.SettingsFor(ctx, orgID)
	if err != nil {
		return nil, err
	}
	taxCfg, err := p.catalog.TaxConfigFor(ctx, orgID)
	if err != nil {
		return nil, err
	}

	var codes []string
	for _, l := range lines {
		for _, proc := range l.Processes {
			codes = append(codes, proc.Code)
		}
	}
	processes, err := p.catalog.ProcessMap(ctx, orgID, codes)
	if err != nil {
		return nil, err
	}

	rateRows := make(map[string]*pricing.RateRow)
	doc := &PricedDocument{}
	for i, l := range lines {
		rates, ok := rateRows[l.GlassType]
		if !ok {
			rates, err = p.catalog.RateRowFor(ctx, orgID, l.GlassType)
			if err != nil {
				return nil, err
			}
			rateRows[l.GlassType] = rates
		}

		spec := pricing.LineItemSpec{
			GlassType: l.GlassType,
			Thickness: pricing.Thickness(l.Thickness),
			WidthIn:   l.WidthIn,
			HeightIn:  l.HeightIn,
			WidthMM:   l.WidthMM,
			HeightMM:  l.HeightMM,
			Quantity:  l.Quantity,
			Processes: toSelections(l.Processes),
		}
		item, diags, err := pricing.PriceLine(spec, rates, processes, settings)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		for j := range diags {
			diags[j].OrgID = orgID
			if p.OnGap != nil {
				p.OnGap(diags[j].GlassType)
			}
		}
		doc.Lines = append(doc.Lines, item)
		doc.Diagnostics = append(doc.Diagnostics, diags...)
	}

	doc.Totals = pricing.ComputeTotals(doc.Lines, discountPercent, taxCfg)
	return doc, nil
}

// ReaggregateLines recomputes document totals over already-priced line
// totals, used when only the discount changes and the lines stay as stored.
func (p *Pricer) ReaggregateLines(ctx context.Context, orgID int64, lineTotals []decimal.Decimal, discountPercent decimal.Decimal, diags []pricing.Diagnostic) (*PricedDocument, error) {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &pricing.ValidationError{Field: "discount_percent", Message: "must be between 0 and 100"}
	}
	taxCfg, err := p.catalog.TaxConfigFor(ctx, orgID)
	if err != nil {
		return nil, err
	}
	lines := make([]pricing.ComputedLineItem, 0, len(lineTotals))
	for _, t := range lineTotals {
		lines = append(lines, pricing.ComputedLineItem{LineTotal: t})
	}
	totals := pricing.ComputeTotals(lines, discountPercent, taxCfg)
	return &PricedDocument{Totals: totals, Diagnostics: diags}, nil
}

// HasGaps reports whether any line carries a missing-rate diagnostic.
func (d *PricedDocument) HasGaps() bool {
	return len(d.Diagnostics) > 0
}

func toSelections(in []ProcessInput) []pricing.ProcessSelection {
	out := make([]pricing.ProcessSelection, 0, len(in))
	for _, p := range in {
		out = append(out, pricing.ProcessSelection{Code: p.Code, OverrideRate: p.OverrideRate})
	}
	return out
}
