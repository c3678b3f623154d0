package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
	"github.com/vitrage-erp/vitrage-erp/internal/sales/quotations"
	"github.com/vitrage-erp/vitrage-erp/internal/sales/shared"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
)

// ============================================================================
// MOCK REPOSITORIES
// ============================================================================

type mockQuoteRepo struct {
	quotations map[int64]*quotations.Quotation
	lines      map[int64][]quotations.QuotationLine
	nextID     int64

	seq     *sequence.MemoryStore
	txStore sequence.Store
}

func newMockQuoteRepo(seq *sequence.MemoryStore) *mockQuoteRepo {
	return &mockQuoteRepo{
		quotations: make(map[int64]*quotations.Quotation),
		lines:      make(map[int64][]quotations.QuotationLine),
		nextID:     1,
		seq:        seq,
	}
}

func (m *mockQuoteRepo) WithTx(ctx context.Context, fn func(context.Context, quotations.Repository) error) error {
	return m.seq.WithTx(ctx, func(s sequence.Store) error {
		m.txStore = s
		defer func() { m.txStore = nil }()
		return fn(ctx, m)
	})
}

func (m *mockQuoteRepo) SequenceStore() sequence.Store { return m.txStore }

func (m *mockQuoteRepo) Get(ctx context.Context, orgID, id int64) (*quotations.Quotation, error) {
	q, ok := m.quotations[id]
	if !ok || q.OrgID != orgID {
		return nil, quotations.ErrNotFound
	}
	cp := *q
	cp.Lines = m.lines[id]
	return &cp, nil
}

func (m *mockQuoteRepo) List(ctx context.Context, req quotations.ListQuotationsRequest) ([]quotations.Quotation, int, error) {
	return nil, 0, nil
}

func (m *mockQuoteRepo) Create(ctx context.Context, q quotations.Quotation) (int64, error) {
	id := m.nextID
	m.nextID++
	q.ID = id
	m.quotations[id] = &q
	if marker, ok := m.txStore.(interface {
		MarkIssued(int64, sequence.DocType, string)
	}); ok {
		marker.MarkIssued(q.OrgID, sequence.DocTypeQuote, q.DocNumber)
	}
	return id, nil
}

func (m *mockQuoteRepo) InsertLine(ctx context.Context, line quotations.QuotationLine) (int64, error) {
	line.ID = int64(len(m.lines[line.QuotationID]) + 1)
	m.lines[line.QuotationID] = append(m.lines[line.QuotationID], line)
	return line.ID, nil
}

func (m *mockQuoteRepo) DeleteLines(ctx context.Context, quotationID int64) error {
	delete(m.lines, quotationID)
	return nil
}

func (m *mockQuoteRepo) UpdateComputed(ctx context.Context, q quotations.Quotation) error {
	existing, ok := m.quotations[q.ID]
	if !ok {
		return quotations.ErrNotFound
	}
	q.Status = existing.Status
	m.quotations[q.ID] = &q
	return nil
}

func (m *mockQuoteRepo) UpdateStatus(ctx context.Context, orgID, id int64, status quotations.QuotationStatus) error {
	q, ok := m.quotations[id]
	if !ok || q.OrgID != orgID {
		return quotations.ErrNotFound
	}
	q.Status = status
	return nil
}

type mockOrderRepo struct {
	orders map[int64]*SalesOrder
	lines  map[int64][]OrderLine
	nextID int64

	quotes *mockQuoteRepo

	seq     *sequence.MemoryStore
	txStore sequence.Store
}

func newMockOrderRepo(seq *sequence.MemoryStore, quotes *mockQuoteRepo) *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[int64]*SalesOrder),
		lines:  make(map[int64][]OrderLine),
		nextID: 1,
		quotes: quotes,
		seq:    seq,
	}
}

func (m *mockOrderRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return m.seq.WithTx(ctx, func(s sequence.Store) error {
		m.txStore = s
		defer func() { m.txStore = nil }()
		return fn(ctx, m)
	})
}

func (m *mockOrderRepo) SequenceStore() sequence.Store { return m.txStore }

func (m *mockOrderRepo) Get(ctx context.Context, orgID, id int64) (*SalesOrder, error) {
	o, ok := m.orders[id]
	if !ok || o.OrgID != orgID {
		return nil, ErrNotFound
	}
	cp := *o
	cp.Lines = m.lines[id]
	return &cp, nil
}

func (m *mockOrderRepo) List(ctx context.Context, req ListOrdersRequest) ([]SalesOrder, int, error) {
	var out []SalesOrder
	for _, o := range m.orders {
		if o.OrgID != req.OrgID {
			continue
		}
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) Create(ctx context.Context, o SalesOrder) (int64, error) {
	id := m.nextID
	m.nextID++
	o.ID = id
	m.orders[id] = &o
	if marker, ok := m.txStore.(interface {
		MarkIssued(int64, sequence.DocType, string)
	}); ok {
		marker.MarkIssued(o.OrgID, sequence.DocTypeOrder, o.DocNumber)
	}
	return id, nil
}

func (m *mockOrderRepo) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	line.ID = int64(len(m.lines[line.OrderID]) + 1)
	m.lines[line.OrderID] = append(m.lines[line.OrderID], line)
	return line.ID, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orgID, id int64, status OrderStatus) error {
	o, ok := m.orders[id]
	if !ok || o.OrgID != orgID {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) MarkQuotationConverted(ctx context.Context, orgID, quotationID int64) error {
	q, ok := m.quotes.quotations[quotationID]
	if !ok || q.OrgID != orgID || q.Status != quotations.QuotationStatusApproved {
		return ErrNotFound
	}
	q.Status = quotations.QuotationStatusConverted
	return nil
}

// ============================================================================
// STUB CATALOG
// ============================================================================

type stubCatalog struct{}

func (stubCatalog) RateRowFor(ctx context.Context, orgID int64, glassType string) (*pricing.RateRow, error) {
	if glassType != "CLEAR" {
		return nil, nil
	}
	return &pricing.RateRow{
		OrgID:     orgID,
		GlassType: "CLEAR",
		Rates: map[pricing.Thickness]decimal.Decimal{
			pricing.Thickness4: decimal.NewFromInt(50),
		},
	}, nil
}

func (stubCatalog) ProcessMap(ctx context.Context, orgID int64, codes []string) (map[string]pricing.ProcessDefinition, error) {
	return map[string]pricing.ProcessDefinition{}, nil
}

func (stubCatalog) TaxConfigFor(ctx context.Context, orgID int64) (pricing.TaxConfig, error) {
	return pricing.TaxConfig{Enabled: true, Mode: pricing.TaxIntra, GSTPercent: decimal.NewFromInt(18)}, nil
}

func (stubCatalog) SettingsFor(ctx context.Context, orgID int64) (pricing.Settings, error) {
	return pricing.Settings{StepInches: 3}, nil
}

// ============================================================================
// HELPERS
// ============================================================================

type testEnv struct {
	orders *Service
	quotes *quotations.Service
}

func newTestEnv() (*testEnv, *mockOrderRepo) {
	seq := sequence.NewMemoryStore()
	quoteRepo := newMockQuoteRepo(seq)
	orderRepo := newMockOrderRepo(seq, quoteRepo)

	alloc := sequence.NewAllocator(sequence.WithClock(func() time.Time {
		return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	}))
	pricer := shared.NewPricer(stubCatalog{})
	quoteSvc := quotations.NewService(quoteRepo, pricer, alloc)
	orderSvc := NewService(orderRepo, pricer, alloc, quoteSvc)
	return &testEnv{orders: orderSvc, quotes: quoteSvc}, orderRepo
}

func fp(v float64) *float64 { return &v }

func clearLine() shared.LineInput {
	return shared.LineInput{
		GlassType: "CLEAR",
		Thickness: "4",
		WidthIn:   fp(24),
		HeightIn:  fp(36),
		Quantity:  2,
	}
}

func orderDate() time.Time {
	return time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)
}

func approvedQuotation(t *testing.T, env *testEnv) *quotations.Quotation {
	t.Helper()
	req := quotations.CreateQuotationRequest{
		CustomerID: 7,
		QuoteDate:  time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC),
		Lines:      []shared.LineInput{clearLine()},
	}
	q, err := env.quotes.Create(context.Background(), 1, req, 42)
	require.NoError(t, err)
	_, err = env.quotes.Submit(context.Background(), 1, q.ID)
	require.NoError(t, err)
	q, err = env.quotes.Approve(context.Background(), 1, q.ID)
	require.NoError(t, err)
	return q
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateOrderAllocatesNumber(t *testing.T) {
	env, _ := newTestEnv()

	req := CreateOrderRequest{
		CustomerID: 7,
		OrderDate:  orderDate(),
		Lines:      []shared.LineInput{clearLine()},
	}
	o, err := env.orders.Create(context.Background(), 1, req, 42)
	require.NoError(t, err)

	assert.Equal(t, "SO2025-0001", o.DocNumber)
	assert.Equal(t, OrderStatusDraft, o.Status)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(600)), "subtotal %s", o.Subtotal)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(708)), "total %s", o.TotalAmount)
	require.Len(t, o.Lines, 1)
	assert.Nil(t, o.QuotationID)
}

func TestConvertApprovedQuotation(t *testing.T) {
	env, _ := newTestEnv()
	q := approvedQuotation(t, env)

	o, err := env.orders.ConvertFromQuotation(context.Background(), 1, ConvertQuotationRequest{
		QuotationID: q.ID,
		OrderDate:   orderDate(),
	}, 42)
	require.NoError(t, err)

	assert.Equal(t, "SO2025-0001", o.DocNumber)
	require.NotNil(t, o.QuotationID)
	assert.Equal(t, q.ID, *o.QuotationID)
	assert.True(t, o.TotalAmount.Equal(q.TotalAmount), "order total %s vs quote %s", o.TotalAmount, q.TotalAmount)
	require.Len(t, o.Lines, len(q.Lines))
	assert.True(t, o.Lines[0].LineTotal.Equal(q.Lines[0].LineTotal))

	// The source quotation flipped inside the same transaction.
	converted, err := env.quotes.Get(context.Background(), 1, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quotations.QuotationStatusConverted, converted.Status)
}

func TestConvertRejectsNonApprovedQuotation(t *testing.T) {
	env, _ := newTestEnv()

	req := quotations.CreateQuotationRequest{
		CustomerID: 7,
		QuoteDate:  time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC),
		Lines:      []shared.LineInput{clearLine()},
	}
	q, err := env.quotes.Create(context.Background(), 1, req, 42)
	require.NoError(t, err)

	_, err = env.orders.ConvertFromQuotation(context.Background(), 1, ConvertQuotationRequest{
		QuotationID: q.ID,
		OrderDate:   orderDate(),
	}, 42)
	assert.ErrorIs(t, err, ErrQuotationNotConvertible)
}

func TestOrderStatusMachine(t *testing.T) {
	env, _ := newTestEnv()

	o, err := env.orders.Create(context.Background(), 1, CreateOrderRequest{
		CustomerID: 7,
		OrderDate:  orderDate(),
		Lines:      []shared.LineInput{clearLine()},
	}, 42)
	require.NoError(t, err)

	// Fulfill requires CONFIRMED first.
	_, err = env.orders.Fulfill(context.Background(), 1, o.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	o, err = env.orders.Confirm(context.Background(), 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, o.Status)

	o, err = env.orders.Fulfill(context.Background(), 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusFulfilled, o.Status)

	_, err = env.orders.Cancel(context.Background(), 1, o.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestConfirmBlockedByPricingGaps(t *testing.T) {
	env, _ := newTestEnv()

	line := clearLine()
	line.GlassType = "FROSTED"
	o, err := env.orders.Create(context.Background(), 1, CreateOrderRequest{
		CustomerID: 7,
		OrderDate:  orderDate(),
		Lines:      []shared.LineInput{line},
	}, 42)
	require.NoError(t, err)
	require.NotEmpty(t, o.Diagnostics)

	_, err = env.orders.Confirm(context.Background(), 1, o.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancelDraftOrder(t *testing.T) {
	env, _ := newTestEnv()

	o, err := env.orders.Create(context.Background(), 1, CreateOrderRequest{
		CustomerID: 7,
		OrderDate:  orderDate(),
		Lines:      []shared.LineInput{clearLine()},
	}, 42)
	require.NoError(t, err)

	o, err = env.orders.Cancel(context.Background(), 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, o.Status)
}
