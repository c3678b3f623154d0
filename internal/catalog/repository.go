package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

var ErrNotFound = errors.New("catalog: record not found")

// Repository is the storage surface for tenant pricing configuration.
type Repository interface {
	GetGlassRate(ctx context.Context, orgID int64, glassType string) (*GlassRate, error)
	ListGlassRates(ctx context.Context, orgID int64) ([]GlassRate, error)
	UpsertGlassRate(ctx context.Context, rate GlassRate) (*GlassRate, error)

	GetProcess(ctx context.Context, orgID int64, code string) (*Process, error)
	ListProcesses(ctx context.Context, orgID int64) ([]Process, error)
	UpsertProcess(ctx context.Context, p Process) (*Process, error)

	GetTaxSettings(ctx context.Context, orgID int64) (*TaxSettings, error)
	SetTaxSettings(ctx context.Context, t TaxSettings) error

	GetPricingSettings(ctx context.Context, orgID int64) (*PricingSettings, error)
	SetPricingSettings(ctx context.Context, p PricingSettings) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository builds the Postgres-backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) GetGlassRate(ctx context.Context, orgID int64, glassType string) (*GlassRate, error) {
	var g GlassRate
	var rates []byte
	var createdAt, updatedAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, `
		SELECT id, org_id, glass_type, rates, is_active, created_at, updated_at
		FROM glass_rates
		WHERE org_id = $1 AND glass_type = $2 AND is_active
	`, orgID, glassType).Scan(&g.ID, &g.OrgID, &g.GlassType, &rates, &g.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := unmarshalRates(rates, &g); err != nil {
		return nil, err
	}
	g.CreatedAt, g.UpdatedAt = createdAt.Time, updatedAt.Time
	return &g, nil
}

func (r *repository) ListGlassRates(ctx context.Context, orgID int64) ([]GlassRate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, org_id, glass_type, rates, is_active, created_at, updated_at
		FROM glass_rates
		WHERE org_id = $1 AND is_active
		ORDER BY glass_type
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GlassRate
	for rows.Next() {
		var g GlassRate
		var rates []byte
		var createdAt, updatedAt pgtype.Timestamptz
		if err := rows.Scan(&g.ID, &g.OrgID, &g.GlassType, &rates, &g.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalRates(rates, &g); err != nil {
			return nil, err
		}
		g.CreatedAt, g.UpdatedAt = createdAt.Time, updatedAt.Time
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repository) UpsertGlassRate(ctx context.Context, rate GlassRate) (*GlassRate, error) {
	payload, err := json.Marshal(rate.Rates)
	if err != nil {
		return nil, fmt.Errorf("catalog: marshal rates: %w", err)
	}
	// One active sheet per (org, glass type); replacing overwrites in place.
	err = r.db.QueryRow(ctx, `
		INSERT INTO glass_rates (org_id, glass_type, rates, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (org_id, glass_type) WHERE is_active
		DO UPDATE SET rates = EXCLUDED.rates, updated_at = NOW()
		RETURNING id
	`, rate.OrgID, rate.GlassType, payload).Scan(&rate.ID)
	if err != nil {
		return nil, err
	}
	return r.GetGlassRate(ctx, rate.OrgID, rate.GlassType)
}

func (r *repository) GetProcess(ctx context.Context, orgID int64, code string) (*Process, error) {
	p, err := scanProcess(r.db.QueryRow(ctx, `
		SELECT id, org_id, code, name, pricing_type, rate, is_active, created_at, updated_at
		FROM process_definitions
		WHERE org_id = $1 AND code = $2 AND is_active
	`, orgID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) ListProcesses(ctx context.Context, orgID int64) ([]Process, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, org_id, code, name, pricing_type, rate, is_active, created_at, updated_at
		FROM process_definitions
		WHERE org_id = $1 AND is_active
		ORDER BY code
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) UpsertProcess(ctx context.Context, p Process) (*Process, error) {
	var num pgtype.Numeric
	if err := num.Scan(p.Rate.String()); err != nil {
		return nil, err
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO process_definitions (org_id, code, name, pricing_type, rate, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		ON CONFLICT (org_id, code)
		DO UPDATE SET name = EXCLUDED.name, pricing_type = EXCLUDED.pricing_type,
		              rate = EXCLUDED.rate, is_active = TRUE, updated_at = NOW()
		RETURNING id
	`, p.OrgID, p.Code, p.Name, string(p.PricingType), num).Scan(&p.ID)
	if err != nil {
		return nil, err
	}
	return r.GetProcess(ctx, p.OrgID, p.Code)
}

func (r *repository) GetTaxSettings(ctx context.Context, orgID int64) (*TaxSettings, error) {
	t := TaxSettings{OrgID: orgID}
	var pct pgtype.Numeric
	var mode string
	var updatedAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, `
		SELECT gst_enabled, tax_mode, gst_percent, updated_at
		FROM org_tax_settings
		WHERE org_id = $1
	`, orgID).Scan(&t.GSTEnabled, &mode, &pct, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Mode = pricing.TaxMode(mode)
	t.GSTPercent = numericToDecimal(pct)
	t.UpdatedAt = updatedAt.Time
	return &t, nil
}

func (r *repository) SetTaxSettings(ctx context.Context, t TaxSettings) error {
	var pct pgtype.Numeric
	if err := pct.Scan(t.GSTPercent.String()); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO org_tax_settings (org_id, gst_enabled, tax_mode, gst_percent, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (org_id)
		DO UPDATE SET gst_enabled = EXCLUDED.gst_enabled, tax_mode = EXCLUDED.tax_mode,
		              gst_percent = EXCLUDED.gst_percent, updated_at = NOW()
	`, t.OrgID, t.GSTEnabled, string(t.Mode), pct)
	return err
}

func (r *repository) GetPricingSettings(ctx context.Context, orgID int64) (*PricingSettings, error) {
	p := PricingSettings{OrgID: orgID}
	var minCharge pgtype.Numeric
	var updatedAt pgtype.Timestamptz
	err := r.db.QueryRow(ctx, `
		SELECT step_inches, min_charge, updated_at
		FROM org_pricing_settings
		WHERE org_id = $1
	`, orgID).Scan(&p.StepInches, &minCharge, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.MinCharge = numericToDecimal(minCharge)
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}

func (r *repository) SetPricingSettings(ctx context.Context, p PricingSettings) error {
	var minCharge pgtype.Numeric
	if err := minCharge.Scan(p.MinCharge.String()); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO org_pricing_settings (org_id, step_inches, min_charge, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (org_id)
		DO UPDATE SET step_inches = EXCLUDED.step_inches, min_charge = EXCLUDED.min_charge, updated_at = NOW()
	`, p.OrgID, p.StepInches, minCharge)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*Process, error) {
	var p Process
	var pricingType string
	var rate pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&p.ID, &p.OrgID, &p.Code, &p.Name, &pricingType, &rate, &p.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.PricingType = pricing.PricingType(pricingType)
	p.Rate = numericToDecimal(rate)
	p.CreatedAt, p.UpdatedAt = createdAt.Time, updatedAt.Time
	return &p, nil
}

func unmarshalRates(raw []byte, g *GlassRate) error {
	byLabel := make(map[string]decimal.Decimal)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &byLabel); err != nil {
			return fmt.Errorf("catalog: unmarshal rates for %q: %w", g.GlassType, err)
		}
	}
	g.Rates = make(map[pricing.Thickness]decimal.Decimal, len(byLabel))
	for label, rate := range byLabel {
		t, ok := pricing.ParseThickness(label)
		if !ok {
			// Unknown buckets are ignored rather than failing reads; the
			// upsert path rejects them before they can be stored.
			continue
		}
		g.Rates[t] = rate
	}
	return nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f.Float64)
}
