package invoices

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

	"github.com/vitrage-erp/vitrage-erp/internal/platform/db"
	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
)

var ErrNotFound = errors.New("invoice not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	SequenceStore() sequence.Store
	Get(ctx context.Context, orgID, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	InsertLine(ctx context.Context, line InvoiceLine) (int64, error)
	InsertPayment(ctx context.Context, p Payment) (int64, error)
	// SetPaid records the new running total and derived status together.
	SetPaid(ctx context.Context, orgID, id int64, paid decimal.Decimal, status InvoiceStatus) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) SequenceStore() sequence.Store {
	return sequence.NewPgStore(r.db)
}

const invoiceColumns = `
	id, doc_number, org_id, customer_id, order_id, invoice_date, due_date, status,
	subtotal, discount_percent, discount_amount, cgst, sgst, igst, total_amount,
	amount_paid, notes, diagnostics, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, orgID, id int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM invoices WHERE org_id = $1 AND id = $2
	`, invoiceColumns), orgID, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.getLines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines

	payments, err := r.getPayments(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments
	return inv, nil
}

func (r *repository) getLines(ctx context.Context, invoiceID int64) ([]InvoiceLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, line_order, glass_type, thickness,
		       width_in, height_in, width_ft, height_ft, total_area, total_length,
		       quantity, glass_rate, base_price, processes, line_total
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_order
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var l InvoiceLine
		var thickness string
		var glassRate, basePrice, lineTotal pgtype.Numeric
		var processes []byte
		err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.LineOrder, &l.GlassType, &thickness,
			&l.WidthIn, &l.HeightIn, &l.WidthFt, &l.HeightFt, &l.TotalArea, &l.TotalLength,
			&l.Quantity, &glassRate, &basePrice, &processes, &lineTotal,
		)
		if err != nil {
			return nil, err
		}
		l.Thickness = pricing.Thickness(thickness)
		l.GlassRate = numericToDecimal(glassRate)
		l.BasePrice = numericToDecimal(basePrice)
		l.LineTotal = numericToDecimal(lineTotal)
		if len(processes) > 0 {
			if err := json.Unmarshal(processes, &l.Processes); err != nil {
				return nil, fmt.Errorf("unmarshal line processes: %w", err)
			}
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) getPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, amount, mode, reference, payment_date, recorded_by, created_at
		FROM invoice_payments
		WHERE invoice_id = $1
		ORDER BY payment_date, id
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		var amount pgtype.Numeric
		var mode string
		var reference pgtype.Text
		var paymentDate pgtype.Date
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&p.ID, &p.InvoiceID, &amount, &mode, &reference, &paymentDate, &p.RecordedBy, &createdAt); err != nil {
			return nil, err
		}
		p.Amount = numericToDecimal(amount)
		p.Mode = PaymentMode(mode)
		if reference.Valid {
			p.Reference = &reference.String
		}
		p.PaymentDate = paymentDate.Time
		p.CreatedAt = createdAt.Time
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"org_id = $1"}
	args := []interface{}{req.OrgID}
	argPos := 2

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("invoice_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM invoices
		%s
		ORDER BY invoice_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	diagnostics, err := json.Marshal(inv.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("marshal diagnostics: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO invoices (
			doc_number, org_id, customer_id, order_id, invoice_date, due_date, status,
			subtotal, discount_percent, discount_amount, cgst, sgst, igst, total_amount,
			amount_paid, notes, diagnostics, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		RETURNING id
	`,
		inv.DocNumber, inv.OrgID, inv.CustomerID, inv.OrderID, inv.InvoiceDate, inv.DueDate, string(inv.Status),
		decimalToNumeric(inv.Subtotal), decimalToNumeric(inv.DiscountPercent), decimalToNumeric(inv.DiscountAmount),
		decimalToNumeric(inv.CGST), decimalToNumeric(inv.SGST), decimalToNumeric(inv.IGST), decimalToNumeric(inv.TotalAmount),
		decimalToNumeric(inv.AmountPaid), inv.Notes, diagnostics, inv.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line InvoiceLine) (int64, error) {
	processes, err := json.Marshal(line.Processes)
	if err != nil {
		return 0, fmt.Errorf("marshal processes: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO invoice_lines (
			invoice_id, line_order, glass_type, thickness,
			width_in, height_in, width_ft, height_ft, total_area, total_length,
			quantity, glass_rate, base_price, processes, line_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		line.InvoiceID, line.LineOrder, line.GlassType, string(line.Thickness),
		line.WidthIn, line.HeightIn, line.WidthFt, line.HeightFt, line.TotalArea, line.TotalLength,
		line.Quantity, decimalToNumeric(line.GlassRate), decimalToNumeric(line.BasePrice),
		processes, decimalToNumeric(line.LineTotal),
	).Scan(&id)
	return id, err
}

func (r *repository) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoice_payments (
			invoice_id, amount, mode, reference, payment_date, recorded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`,
		p.InvoiceID, decimalToNumeric(p.Amount), string(p.Mode), p.Reference, p.PaymentDate, p.RecordedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) SetPaid(ctx context.Context, orgID, id int64, paid decimal.Decimal, status InvoiceStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET amount_paid = $3, status = $4, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`, orgID, id, decimalToNumeric(paid), string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	var status string
	var invoiceDate pgtype.Date
	var dueDate pgtype.Date
	var subtotal, discountPercent, discountAmount, cgst, sgst, igst, totalAmount, amountPaid pgtype.Numeric
	var notes pgtype.Text
	var diagnostics []byte
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&inv.ID, &inv.DocNumber, &inv.OrgID, &inv.CustomerID, &inv.OrderID, &invoiceDate, &dueDate, &status,
		&subtotal, &discountPercent, &discountAmount, &cgst, &sgst, &igst, &totalAmount,
		&amountPaid, &notes, &diagnostics, &inv.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Status = InvoiceStatus(status)
	inv.InvoiceDate = invoiceDate.Time
	if dueDate.Valid {
		t := dueDate.Time
		inv.DueDate = &t
	}
	inv.Subtotal = numericToDecimal(subtotal)
	inv.DiscountPercent = numericToDecimal(discountPercent)
	inv.DiscountAmount = numericToDecimal(discountAmount)
	inv.CGST = numericToDecimal(cgst)
	inv.SGST = numericToDecimal(sgst)
	inv.IGST = numericToDecimal(igst)
	inv.TotalAmount = numericToDecimal(totalAmount)
	inv.AmountPaid = numericToDecimal(amountPaid)
	inv.TotalDisplay = FormatAmount(inv.TotalAmount)
	if notes.Valid {
		inv.Notes = &notes.String
	}
	if len(diagnostics) > 0 {
		if err := json.Unmarshal(diagnostics, &inv.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}
	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time
	return &inv, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
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
