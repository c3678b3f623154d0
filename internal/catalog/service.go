package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

// Service mediates catalog reads for the document-pricing path and catalog
// writes from the admin endpoints.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService wires the repository and optional cache.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// RateRowFor returns the pricing lookup row for a glass type, or nil when
// the organization has no active sheet for it. The nil is not an error: the
// pricing engine turns it into a zero rate with a diagnostic.
func (s *Service) RateRowFor(ctx context.Context, orgID int64, glassType string) (*pricing.RateRow, error) {
	if g, ok := s.cache.getGlassRate(ctx, orgID, glassType); ok {
		return g.RateRow(), nil
	}
	g, err := s.repo.GetGlassRate(ctx, orgID, glassType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: glass rate lookup: %w", err)
	}
	s.cache.putGlassRate(ctx, g)
	return g.RateRow(), nil
}

// ProcessMap resolves the referenced process codes into pricing definitions.
// Codes with no active definition are simply absent from the map; the
// pricing engine rejects lines referencing them.
func (s *Service) ProcessMap(ctx context.Context, orgID int64, codes []string) (map[string]pricing.ProcessDefinition, error) {
	out := make(map[string]pricing.ProcessDefinition, len(codes))
	for _, code := range codes {
		if _, done := out[code]; done {
			continue
		}
		if p, ok := s.cache.getProcess(ctx, orgID, code); ok {
			out[code] = p.Definition()
			continue
		}
		p, err := s.repo.GetProcess(ctx, orgID, code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("catalog: process lookup %q: %w", code, err)
		}
		s.cache.putProcess(ctx, p)
		out[code] = p.Definition()
	}
	return out, nil
}

// TaxConfigFor resolves the organization's tax setup, falling back to the
// single documented default when nothing is configured.
func (s *Service) TaxConfigFor(ctx context.Context, orgID int64) (pricing.TaxConfig, error) {
	t, err := s.repo.GetTaxSettings(ctx, orgID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return pricing.TaxConfig{}, fmt.Errorf("catalog: tax settings: %w", err)
	}
	return t.Config(), nil
}

// SettingsFor resolves the organization's pricing knobs with defaults.
func (s *Service) SettingsFor(ctx context.Context, orgID int64) (pricing.Settings, error) {
	p, err := s.repo.GetPricingSettings(ctx, orgID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return pricing.Settings{}, fmt.Errorf("catalog: pricing settings: %w", err)
	}
	return p.Settings(), nil
}

// ListGlassRates returns the organization's active rate sheets.
func (s *Service) ListGlassRates(ctx context.Context, orgID int64) ([]GlassRate, error) {
	return s.repo.ListGlassRates(ctx, orgID)
}

// UpsertGlassRate replaces the active sheet for a glass type.
func (s *Service) UpsertGlassRate(ctx context.Context, rate GlassRate) (*GlassRate, error) {
	if rate.GlassType == "" {
		return nil, &pricing.ValidationError{Field: "glass_type", Message: "required"}
	}
	for t, r := range rate.Rates {
		if _, ok := pricing.ParseThickness(string(t)); !ok {
			return nil, &pricing.ValidationError{Field: "rates", Message: fmt.Sprintf("unknown thickness %q", t)}
		}
		if r.IsNegative() {
			return nil, &pricing.ValidationError{Field: "rates", Message: fmt.Sprintf("negative rate for thickness %q", t)}
		}
	}
	saved, err := s.repo.UpsertGlassRate(ctx, rate)
	if err != nil {
		return nil, err
	}
	s.cache.dropGlassRate(ctx, rate.OrgID, rate.GlassType)
	return saved, nil
}

// ListProcesses returns the organization's active process definitions.
func (s *Service) ListProcesses(ctx context.Context, orgID int64) ([]Process, error) {
	return s.repo.ListProcesses(ctx, orgID)
}

// UpsertProcess creates or replaces a process definition.
func (s *Service) UpsertProcess(ctx context.Context, p Process) (*Process, error) {
	switch p.PricingType {
	case pricing.PricingFixed, pricing.PricingArea, pricing.PricingLength:
	default:
		return nil, &pricing.ValidationError{Field: "pricing_type", Message: fmt.Sprintf("unknown pricing type %q", p.PricingType)}
	}
	if p.Code == "" {
		return nil, &pricing.ValidationError{Field: "code", Message: "required"}
	}
	if p.Rate.IsNegative() {
		return nil, &pricing.ValidationError{Field: "rate", Message: "must not be negative"}
	}
	saved, err := s.repo.UpsertProcess(ctx, p)
	if err != nil {
		return nil, err
	}
	s.cache.dropProcess(ctx, p.OrgID, p.Code)
	return saved, nil
}

// SetTaxSettings stores the organization's GST configuration.
func (s *Service) SetTaxSettings(ctx context.Context, t TaxSettings) error {
	switch t.Mode {
	case pricing.TaxIntra, pricing.TaxInter:
	default:
		return &pricing.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown tax mode %q", t.Mode)}
	}
	if t.GSTPercent.IsNegative() {
		return &pricing.ValidationError{Field: "gst_percent", Message: "must not be negative"}
	}
	return s.repo.SetTaxSettings(ctx, t)
}

// GetTaxSettings returns the stored GST configuration, ErrNotFound when the
// organization still runs on defaults.
func (s *Service) GetTaxSettings(ctx context.Context, orgID int64) (*TaxSettings, error) {
	return s.repo.GetTaxSettings(ctx, orgID)
}

// SetPricingSettings stores the rounding step and minimum charge.
func (s *Service) SetPricingSettings(ctx context.Context, p PricingSettings) error {
	if p.StepInches < 0 {
		return &pricing.ValidationError{Field: "step_inches", Message: "must not be negative"}
	}
	if p.MinCharge.IsNegative() {
		return &pricing.ValidationError{Field: "min_charge", Message: "must not be negative"}
	}
	return s.repo.SetPricingSettings(ctx, p)
}

// GetPricingSettings returns the stored pricing knobs.
func (s *Service) GetPricingSettings(ctx context.Context, orgID int64) (*PricingSettings, error) {
	return s.repo.GetPricingSettings(ctx, orgID)
}
