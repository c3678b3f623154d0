package catalog

import (
	"github.com/shopspring/decimal"
)

type UpsertGlassRateRequest struct {
	GlassType string                     `json:"glass_type" validate:"required,min=1,max=100"`
	Rates     map[string]decimal.Decimal `json:"rates" validate:"required,min=1"`
	IsActive  *bool                      `json:"is_active,omitempty"`
}

type UpsertProcessRequest struct {
	Code        string          `json:"code" validate:"required,min=1,max=50"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	PricingType string          `json:"pricing_type" validate:"required,oneof=FIXED AREA LENGTH"`
	Rate        decimal.Decimal `json:"rate"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

type SetTaxSettingsRequest struct {
	GSTEnabled bool            `json:"gst_enabled"`
	Mode       string          `json:"mode" validate:"required,oneof=INTRA INTER"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
}

type SetPricingSettingsRequest struct {
	StepInches float64         `json:"step_inches" validate:"gte=0"`
	MinCharge  decimal.Decimal `json:"min_charge"`
}
