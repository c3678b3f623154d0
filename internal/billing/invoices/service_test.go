package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrage-erp/vitrage-erp/internal/sales/orders"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
)

// ============================================================================
// MOCK REPOSITORIES
// ============================================================================

type mockOrderRepo struct {
	orders map[int64]*orders.SalesOrder
}

func (m *mockOrderRepo) WithTx(ctx context.Context, fn func(context.Context, orders.Repository) error) error {
	return fn(ctx, m)
}

func (m *mockOrderRepo) SequenceStore() sequence.Store { return nil }

func (m *mockOrderRepo) Get(ctx context.Context, orgID, id int64) (*orders.SalesOrder, error) {
	o, ok := m.orders[id]
	if !ok || o.OrgID != orgID {
		return nil, orders.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(ctx context.Context, req orders.ListOrdersRequest) ([]orders.SalesOrder, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) Create(ctx context.Context, o orders.SalesOrder) (int64, error) {
	return 0, nil
}

func (m *mockOrderRepo) InsertLine(ctx context.Context, line orders.OrderLine) (int64, error) {
	return 0, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orgID, id int64, status orders.OrderStatus) error {
	return nil
}

func (m *mockOrderRepo) MarkQuotationConverted(ctx context.Context, orgID, quotationID int64) error {
	return nil
}

type mockInvoiceRepo struct {
	invoices map[int64]*Invoice
	lines    map[int64][]InvoiceLine
	payments map[int64][]Payment
	nextID   int64

	seq     *sequence.MemoryStore
	txStore sequence.Store
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{
		invoices: make(map[int64]*Invoice),
		lines:    make(map[int64][]InvoiceLine),
		payments: make(map[int64][]Payment),
		nextID:   1,
		seq:      sequence.NewMemoryStore(),
	}
}

func (m *mockInvoiceRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return m.seq.WithTx(ctx, func(s sequence.Store) error {
		m.txStore = s
		defer func() { m.txStore = nil }()
		return fn(ctx, m)
	})
}

func (m *mockInvoiceRepo) SequenceStore() sequence.Store { return m.txStore }

func (m *mockInvoiceRepo) Get(ctx context.Context, orgID, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.OrgID != orgID {
		return nil, ErrNotFound
	}
	cp := *inv
	cp.Lines = m.lines[id]
	cp.Payments = m.payments[id]
	cp.TotalDisplay = FormatAmount(cp.TotalAmount)
	return &cp, nil
}

func (m *mockInvoiceRepo) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.OrgID == req.OrgID {
			out = append(out, *inv)
		}
	}
	return out, len(out), nil
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv Invoice) (int64, error) {
	id := m.nextID
	m.nextID++
	inv.ID = id
	m.invoices[id] = &inv
	if marker, ok := m.txStore.(interface {
		MarkIssued(int64, sequence.DocType, string)
	}); ok {
		marker.MarkIssued(inv.OrgID, sequence.DocTypeInvoice, inv.DocNumber)
	}
	return id, nil
}

func (m *mockInvoiceRepo) InsertLine(ctx context.Context, line InvoiceLine) (int64, error) {
	line.ID = int64(len(m.lines[line.InvoiceID]) + 1)
	m.lines[line.InvoiceID] = append(m.lines[line.InvoiceID], line)
	return line.ID, nil
}

func (m *mockInvoiceRepo) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	p.ID = int64(len(m.payments[p.InvoiceID]) + 1)
	m.payments[p.InvoiceID] = append(m.payments[p.InvoiceID], p)
	return p.ID, nil
}

func (m *mockInvoiceRepo) SetPaid(ctx context.Context, orgID, id int64, paid decimal.Decimal, status InvoiceStatus) error {
	inv, ok := m.invoices[id]
	if !ok || inv.OrgID != orgID {
		return ErrNotFound
	}
	inv.AmountPaid = paid
	inv.Status = status
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func newTestService(orderStatus orders.OrderStatus) (*Service, *mockInvoiceRepo) {
	orderRepo := &mockOrderRepo{orders: map[int64]*orders.SalesOrder{
		10: {
			ID:          10,
			DocNumber:   "SO2025-0001",
			OrgID:       1,
			CustomerID:  7,
			Status:      orderStatus,
			Subtotal:    decimal.NewFromInt(600),
			CGST:        decimal.NewFromInt(54),
			SGST:        decimal.NewFromInt(54),
			TotalAmount: decimal.NewFromInt(708),
			Lines: []orders.OrderLine{{
				ID:        1,
				OrderID:   10,
				LineOrder: 1,
				GlassType: "CLEAR",
				Thickness: "4",
				Quantity:  2,
				LineTotal: decimal.NewFromInt(600),
			}},
		},
	}}
	orderSvc := orders.NewService(orderRepo, nil, nil, nil)

	repo := newMockInvoiceRepo()
	alloc := sequence.NewAllocator(sequence.WithClock(func() time.Time {
		return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	}))
	return NewService(repo, alloc, orderSvc), repo
}

func createRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		OrderID:     10,
		InvoiceDate: time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC),
	}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateInvoiceFromConfirmedOrder(t *testing.T) {
	svc, _ := newTestService(orders.OrderStatusConfirmed)

	inv, err := svc.Create(context.Background(), 1, createRequest(), 42)
	require.NoError(t, err)

	assert.Equal(t, "INV2025-0001", inv.DocNumber)
	assert.Equal(t, InvoiceStatusUnpaid, inv.Status)
	assert.Equal(t, int64(10), inv.OrderID)
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(708)), "total %s", inv.TotalAmount)
	assert.True(t, inv.AmountPaid.IsZero())
	assert.True(t, inv.Balance().Equal(decimal.NewFromInt(708)))
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "CLEAR", inv.Lines[0].GlassType)
	assert.Equal(t, "₹708.00", inv.TotalDisplay)
}

func TestCreateInvoiceRejectsDraftOrder(t *testing.T) {
	svc, _ := newTestService(orders.OrderStatusDraft)

	_, err := svc.Create(context.Background(), 1, createRequest(), 42)
	assert.ErrorIs(t, err, ErrOrderNotInvoiceable)
}

func TestCreateInvoiceAllowsFulfilledOrder(t *testing.T) {
	svc, _ := newTestService(orders.OrderStatusFulfilled)

	inv, err := svc.Create(context.Background(), 1, createRequest(), 42)
	require.NoError(t, err)
	assert.Equal(t, "INV2025-0001", inv.DocNumber)
}

func TestRecordPaymentLifecycle(t *testing.T) {
	svc, _ := newTestService(orders.OrderStatusConfirmed)

	inv, err := svc.Create(context.Background(), 1, createRequest(), 42)
	require.NoError(t, err)

	pay := func(amount int64) (*Invoice, error) {
		return svc.RecordPayment(context.Background(), 1, inv.ID, RecordPaymentRequest{
			Amount:      decimal.NewFromInt(amount),
			Mode:        PaymentModeUPI,
			PaymentDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		}, 42)
	}

	inv2, err := pay(300)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPartial, inv2.Status)
	assert.True(t, inv2.Balance().Equal(decimal.NewFromInt(408)), "balance %s", inv2.Balance())
	require.Len(t, inv2.Payments, 1)

	inv3, err := pay(408)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusPaid, inv3.Status)
	assert.True(t, inv3.Balance().IsZero())
	require.Len(t, inv3.Payments, 2)
}

func TestRecordPaymentRejectsOverpayment(t *testing.T) {
	svc, repo := newTestService(orders.OrderStatusConfirmed)

	inv, err := svc.Create(context.Background(), 1, createRequest(), 42)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), 1, inv.ID, RecordPaymentRequest{
		Amount:      decimal.NewFromInt(1000),
		Mode:        PaymentModeCash,
		PaymentDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}, 42)
	assert.ErrorIs(t, err, ErrOverpayment)

	// Nothing was recorded.
	assert.Empty(t, repo.payments[inv.ID])
	stored, err := svc.Get(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusUnpaid, stored.Status)
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(orders.OrderStatusConfirmed)

	inv, err := svc.Create(context.Background(), 1, createRequest(), 42)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), 1, inv.ID, RecordPaymentRequest{
		Amount:      decimal.Zero,
		Mode:        PaymentModeCash,
		PaymentDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}, 42)
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestStatusForPaid(t *testing.T) {
	total := decimal.NewFromInt(100)
	assert.Equal(t, InvoiceStatusUnpaid, statusForPaid(total, decimal.Zero))
	assert.Equal(t, InvoiceStatusPartial, statusForPaid(total, decimal.NewFromInt(50)))
	assert.Equal(t, InvoiceStatusPaid, statusForPaid(total, decimal.NewFromInt(100)))
}
