package orders

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

var ErrNotFound = errors.New("sales order not found")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	SequenceStore() sequence.Store
	Get(ctx context.Context, orgID, id int64) (*SalesOrder, error)
	List(ctx context.Context, req ListOrdersRequest) ([]SalesOrder, int, error)
	Create(ctx context.Context, o SalesOrder) (int64, error)
	InsertLine(ctx context.Context, line OrderLine) (int64, error)
	UpdateStatus(ctx context.Context, orgID, id int64, status OrderStatus) error
	// MarkQuotationConverted flips the source quotation inside the order
	// transaction so conversion is atomic across both documents.
	MarkQuotationConverted(ctx context.Context, orgID, quotationID int64) error
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

const orderColumns = `
	id, doc_number, org_id, customer_id, quotation_id, order_date, status,
	subtotal, discount_percent, discount_amount, cgst, sgst, igst, total_amount,
	notes, diagnostics, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, orgID, id int64) (*SalesOrder, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM sales_orders WHERE org_id = $1 AND id = $2
	`, orderColumns), orgID, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.getLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

func (r *repository) getLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, line_order, glass_type, thickness,
		       width_in, height_in, width_ft, height_ft, total_area, total_length,
		       quantity, glass_rate, base_price, processes, line_total
		FROM sales_order_lines
		WHERE order_id = $1
		ORDER BY line_order
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		var thickness string
		var glassRate, basePrice, lineTotal pgtype.Numeric
		var processes []byte
		err := rows.Scan(
			&l.ID, &l.OrderID, &l.LineOrder, &l.GlassType, &thickness,
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

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]SalesOrder, int, error) {
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
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM sales_orders %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM sales_orders
		%s
		ORDER BY order_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, o SalesOrder) (int64, error) {
	diagnostics, err := json.Marshal(o.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("marshal diagnostics: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO sales_orders (
			doc_number, org_id, customer_id, quotation_id, order_date, status,
			subtotal, discount_percent, discount_amount, cgst, sgst, igst, total_amount,
			notes, diagnostics, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id
	`,
		o.DocNumber, o.OrgID, o.CustomerID, o.QuotationID, o.OrderDate, string(o.Status),
		decimalToNumeric(o.Subtotal), decimalToNumeric(o.DiscountPercent), decimalToNumeric(o.DiscountAmount),
		decimalToNumeric(o.CGST), decimalToNumeric(o.SGST), decimalToNumeric(o.IGST), decimalToNumeric(o.TotalAmount),
		o.Notes, diagnostics, o.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	processes, err := json.Marshal(line.Processes)
	if err != nil {
		return 0, fmt.Errorf("marshal processes: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO sales_order_lines (
			order_id, line_order, glass_type, thickness,
			width_in, height_in, width_ft, height_ft, total_area, total_length,
			quantity, glass_rate, base_price, processes, line_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		line.OrderID, line.LineOrder, line.GlassType, string(line.Thickness),
		line.WidthIn, line.HeightIn, line.WidthFt, line.HeightFt, line.TotalArea, line.TotalLength,
		line.Quantity, decimalToNumeric(line.GlassRate), decimalToNumeric(line.BasePrice),
		processes, decimalToNumeric(line.LineTotal),
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateStatus(ctx context.Context, orgID, id int64, status OrderStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales_orders SET status = $3, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`, orgID, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) MarkQuotationConverted(ctx context.Context, orgID, quotationID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET status = 'CONVERTED', updated_at = NOW()
		WHERE org_id = $1 AND id = $2 AND status = 'APPROVED'
	`, orgID, quotationID)
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

func scanOrder(row rowScanner) (*SalesOrder, error) {
	var o SalesOrder
	var status string
	var quotationID pgtype.Int8
	var orderDate pgtype.Date
	var subtotal, discountPercent, discountAmount, cgst, sgst, igst, totalAmount pgtype.Numeric
	var notes pgtype.Text
	var diagnostics []byte
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&o.ID, &o.DocNumber, &o.OrgID, &o.CustomerID, &quotationID, &orderDate, &status,
		&subtotal, &discountPercent, &discountAmount, &cgst, &sgst, &igst, &totalAmount,
		&notes, &diagnostics, &o.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = OrderStatus(status)
	if quotationID.Valid {
		o.QuotationID = &quotationID.Int64
	}
	o.OrderDate = orderDate.Time
	o.Subtotal = numericToDecimal(subtotal)
	o.DiscountPercent = numericToDecimal(discountPercent)
	o.DiscountAmount = numericToDecimal(discountAmount)
	o.CGST = numericToDecimal(cgst)
	o.SGST = numericToDecimal(sgst)
	o.IGST = numericToDecimal(igst)
	o.TotalAmount = numericToDecimal(totalAmount)
	if notes.Valid {
		o.Notes = &notes.String
	}
	if len(diagnostics) > 0 {
		if err := json.Unmarshal(diagnostics, &o.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}
	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time
	return &o, nil
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
