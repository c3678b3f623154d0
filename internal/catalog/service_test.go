package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	glassRates map[string]*GlassRate
	processes  map[string]*Process
	tax        map[int64]*TaxSettings
	settings   map[int64]*PricingSettings

	glassRateReads int
	processReads   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		glassRates: make(map[string]*GlassRate),
		processes:  make(map[string]*Process),
		tax:        make(map[int64]*TaxSettings),
		settings:   make(map[int64]*PricingSettings),
	}
}

func grKey(orgID int64, glassType string) string { return fmt.Sprintf("%d/%s", orgID, glassType) }

func (m *mockRepository) GetGlassRate(ctx context.Context, orgID int64, glassType string) (*GlassRate, error) {
	m.glassRateReads++
	g, ok := m.glassRates[grKey(orgID, glassType)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *mockRepository) ListGlassRates(ctx context.Context, orgID int64) ([]GlassRate, error) {
	var out []GlassRate
	for _, g := range m.glassRates {
		if g.OrgID == orgID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockRepository) UpsertGlassRate(ctx context.Context, rate GlassRate) (*GlassRate, error) {
	rate.ID = int64(len(m.glassRates) + 1)
	m.glassRates[grKey(rate.OrgID, rate.GlassType)] = &rate
	return &rate, nil
}

func (m *mockRepository) GetProcess(ctx context.Context, orgID int64, code string) (*Process, error) {
	m.processReads++
	p, ok := m.processes[grKey(orgID, code)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) ListProcesses(ctx context.Context, orgID int64) ([]Process, error) {
	var out []Process
	for _, p := range m.processes {
		if p.OrgID == orgID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) UpsertProcess(ctx context.Context, p Process) (*Process, error) {
	p.ID = int64(len(m.processes) + 1)
	m.processes[grKey(p.OrgID, p.Code)] = &p
	return &p, nil
}

func (m *mockRepository) GetTaxSettings(ctx context.Context, orgID int64) (*TaxSettings, error) {
	t, ok := m.tax[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepository) SetTaxSettings(ctx context.Context, t TaxSettings) error {
	m.tax[t.OrgID] = &t
	return nil
}

func (m *mockRepository) GetPricingSettings(ctx context.Context, orgID int64) (*PricingSettings, error) {
	p, ok := m.settings[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) SetPricingSettings(ctx context.Context, p PricingSettings) error {
	m.settings[p.OrgID] = &p
	return nil
}

// ============================================================================
// TESTS
// ============================================================================

func seedClearRate(t *testing.T, repo *mockRepository) {
	t.Helper()
	_, err := repo.UpsertGlassRate(context.Background(), GlassRate{
		OrgID:     1,
		GlassType: "CLEAR",
		Rates: map[pricing.Thickness]decimal.Decimal{
			pricing.Thickness4: decimal.NewFromInt(50),
		},
		IsActive: true,
	})
	require.NoError(t, err)
}

func TestRateRowForMissingGlassTypeIsNilNotError(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	row, err := svc.RateRowFor(context.Background(), 1, "UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestRateRowForReturnsConfiguredRates(t *testing.T) {
	repo := newMockRepository()
	seedClearRate(t, repo)
	svc := NewService(repo, nil)

	row, err := svc.RateRowFor(context.Background(), 1, "CLEAR")
	require.NoError(t, err)
	require.NotNil(t, row)
	rate, ok := row.RateFor(pricing.Thickness4)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(50)))
}

func TestProcessMapSkipsUnknownCodes(t *testing.T) {
	repo := newMockRepository()
	_, err := repo.UpsertProcess(context.Background(), Process{
		OrgID: 1, Code: "POLISH", Name: "Edge Polish",
		PricingType: pricing.PricingLength, Rate: decimal.NewFromInt(5), IsActive: true,
	})
	require.NoError(t, err)
	svc := NewService(repo, nil)

	m, err := svc.ProcessMap(context.Background(), 1, []string{"POLISH", "NOPE", "POLISH"})
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, pricing.PricingLength, m["POLISH"].PricingType)
}

func TestTaxConfigDefaultsWhenUnconfigured(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	cfg, err := svc.TaxConfigFor(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, pricing.TaxIntra, cfg.Mode)
	assert.True(t, cfg.GSTPercent.Equal(pricing.DefaultGSTPercent))
}

func TestSettingsDefaultStep(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	set, err := svc.SettingsFor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultStepInches, set.StepInches)
}

func TestUpsertGlassRateValidatesThickness(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.UpsertGlassRate(context.Background(), GlassRate{
		OrgID:     1,
		GlassType: "CLEAR",
		Rates: map[pricing.Thickness]decimal.Decimal{
			"7": decimal.NewFromInt(50),
		},
	})
	var verr *pricing.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rates", verr.Field)
}

func TestUpsertProcessValidatesPricingType(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.UpsertProcess(context.Background(), Process{
		OrgID: 1, Code: "X", Name: "X", PricingType: "WEIGHT",
	})
	var verr *pricing.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSetTaxSettingsValidatesMode(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	err := svc.SetTaxSettings(context.Background(), TaxSettings{OrgID: 1, Mode: "BOTH"})
	var verr *pricing.ValidationError
	require.ErrorAs(t, err, &verr)
}

// ============================================================================
// CACHE
// ============================================================================

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client), mr
}

func TestGlassRateLookupsAreCached(t *testing.T) {
	repo := newMockRepository()
	seedClearRate(t, repo)
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)

	for i := 0; i < 3; i++ {
		row, err := svc.RateRowFor(context.Background(), 1, "CLEAR")
		require.NoError(t, err)
		require.NotNil(t, row)
	}
	assert.Equal(t, 1, repo.glassRateReads)
}

func TestUpsertGlassRateInvalidatesCache(t *testing.T) {
	repo := newMockRepository()
	seedClearRate(t, repo)
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)

	_, err := svc.RateRowFor(context.Background(), 1, "CLEAR")
	require.NoError(t, err)

	_, err = svc.UpsertGlassRate(context.Background(), GlassRate{
		OrgID:     1,
		GlassType: "CLEAR",
		Rates: map[pricing.Thickness]decimal.Decimal{
			pricing.Thickness4: decimal.NewFromInt(60),
		},
		IsActive: true,
	})
	require.NoError(t, err)

	row, err := svc.RateRowFor(context.Background(), 1, "CLEAR")
	require.NoError(t, err)
	rate, ok := row.RateFor(pricing.Thickness4)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(60)), "stale cached rate %s", rate)
	assert.Equal(t, 2, repo.glassRateReads)
}

func TestProcessLookupsAreCached(t *testing.T) {
	repo := newMockRepository()
	_, err := repo.UpsertProcess(context.Background(), Process{
		OrgID: 1, Code: "POLISH", Name: "Edge Polish",
		PricingType: pricing.PricingLength, Rate: decimal.NewFromInt(5), IsActive: true,
	})
	require.NoError(t, err)
	cache, _ := newTestCache(t)
	svc := NewService(repo, cache)

	for i := 0; i < 3; i++ {
		m, err := svc.ProcessMap(context.Background(), 1, []string{"POLISH"})
		require.NoError(t, err)
		require.Len(t, m, 1)
	}
	assert.Equal(t, 1, repo.processReads)
}
