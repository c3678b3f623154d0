// Package catalog holds per-organization pricing configuration: glass rate
// sheets, fabrication process definitions, tax settings and pricing knobs.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

// GlassRate is one organization's active rate sheet for a glass type. Rates
// is sparse: buckets without a configured rate are absent.
type GlassRate struct {
	ID        int64                                  `json:"id"`
	OrgID     int64                                  `json:"org_id"`
	GlassType string                                 `json:"glass_type"`
	Rates     map[pricing.Thickness]decimal.Decimal `json:"rates"`
	IsActive  bool                                   `json:"is_active"`
	CreatedAt time.Time                              `json:"created_at"`
	UpdatedAt time.Time                              `json:"updated_at"`
}

// RateRow converts the sheet into the pricing engine's lookup shape.
func (g *GlassRate) RateRow() *pricing.RateRow {
	if g == nil {
		return nil
	}
	return &pricing.RateRow{
		OrgID:     g.OrgID,
		GlassType: g.GlassType,
		Rates:     g.Rates,
	}
}

// Process is a catalog fabrication operation.
type Process struct {
	ID          int64               `json:"id"`
	OrgID       int64               `json:"org_id"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	PricingType pricing.PricingType `json:"pricing_type"`
	Rate        decimal.Decimal     `json:"rate"`
	IsActive    bool                `json:"is_active"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Definition converts to the pricing engine's shape.
func (p Process) Definition() pricing.ProcessDefinition {
	return pricing.ProcessDefinition{
		OrgID:       p.OrgID,
		Code:        p.Code,
		Name:        p.Name,
		PricingType: p.PricingType,
		Rate:        p.Rate,
	}
}

// TaxSettings is the organization's configured GST setup; absent records
// fall back to pricing.DefaultGSTPercent with GST enabled intra-state.
type TaxSettings struct {
	OrgID      int64           `json:"org_id"`
	GSTEnabled bool            `json:"gst_enabled"`
	Mode       pricing.TaxMode `json:"mode"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Config resolves the settings into the pricing engine's tax config.
func (t *TaxSettings) Config() pricing.TaxConfig {
	if t == nil {
		return pricing.TaxConfig{Enabled: true, Mode: pricing.TaxIntra, GSTPercent: pricing.DefaultGSTPercent}
	}
	return pricing.TaxConfig{Enabled: t.GSTEnabled, Mode: t.Mode, GSTPercent: t.GSTPercent}
}

// PricingSettings are the organization's dimension-rounding and floor knobs.
type PricingSettings struct {
	OrgID      int64           `json:"org_id"`
	StepInches float64         `json:"step_inches"`
	MinCharge  decimal.Decimal `json:"min_charge"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Settings resolves into the pricing engine's shape, applying defaults.
func (p *PricingSettings) Settings() pricing.Settings {
	if p == nil {
		return pricing.Settings{StepInches: pricing.DefaultStepInches}
	}
	step := p.StepInches
	if step <= 0 {
		step = pricing.DefaultStepInches
	}
	return pricing.Settings{StepInches: step, MinCharge: p.MinCharge}
}
