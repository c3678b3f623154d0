package quotations

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

var ErrNotFound = errors.New("quotation not found")

type Repository interface {
	// WithTx runs fn against a repository bound to one transaction; the
	// sequence store obtained inside shares that transaction.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	SequenceStore() sequence.Store
	Get(ctx context.Context, orgID, id int64) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	Create(ctx context.Context, q Quotation) (int64, error)
	InsertLine(ctx context.Context, line QuotationLine) (int64, error)
	DeleteLines(ctx context.Context, quotationID int64) error
	UpdateComputed(ctx context.Context, q Quotation) error
	UpdateStatus(ctx context.Context, orgID, id int64, status QuotationStatus) error
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

const quotationColumns = `
	id, doc_number, org_id, customer_id, quote_date, valid_until, status,
	subtotal, discount_percent, discount_amount, cgst, sgst, igst, total_amount,
	notes, diagnostics, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, orgID, id int64) (*Quotation, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM quotations WHERE org_id = $1 AND id = $2
	`, quotationColumns), orgID, id)
	q, err := scanQuotation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.getLines(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Lines = lines
	return q, nil
}

func (r *repository) getLines(ctx context.Context, quotationID int64) ([]QuotationLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quotation_id, line_order, glass_type, thickness,
		       width_in, height_in, width_ft, height_ft, total_area, total_length,
		       quantity, glass_rate, base_price, processes, line_total
		FROM quotation_lines
		WHERE quotation_id = $1
		ORDER BY line_order
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []QuotationLine
	for rows.Next() {
		var l QuotationLine
		var thickness string
		var glassRate, basePrice, lineTotal pgtype.Numeric
		var processes []byte
		err := rows.Scan(
			&l.ID, &l.QuotationID, &l.LineOrder, &l.GlassType, &thickness,
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

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
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
		conditions = append(conditions, fmt.Sprintf("quote_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("quote_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM quotations %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM quotations
		%s
		ORDER BY quote_date DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, quotationColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotations []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		quotations = append(quotations, *q)
	}
	return quotations, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quotation) (int64, error) {
	diagnostics, err := json.Marshal(q.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("marshal diagnostics: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO quotations (
			doc_number, org_id, customer_id, quote_date, valid_until, status,
			subtotal, discount_percent, discount_amount, cgst, sgst, igst, total_amount,
			notes, diagnostics, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id
	`,
		q.DocNumber, q.OrgID, q.CustomerID, q.QuoteDate, q.ValidUntil, string(q.Status),
		decimalToNumeric(q.Subtotal), decimalToNumeric(q.DiscountPercent), decimalToNumeric(q.DiscountAmount),
		decimalToNumeric(q.CGST), decimalToNumeric(q.SGST), decimalToNumeric(q.IGST), decimalToNumeric(q.TotalAmount),
		q.Notes, diagnostics, q.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line QuotationLine) (int64, error) {
	processes, err := json.Marshal(line.Processes)
	if err != nil {
		return 0, fmt.Errorf("marshal processes: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO quotation_lines (
			quotation_id, line_order, glass_type, thickness,
			width_in, height_in, width_ft, height_ft, total_area, total_length,
			quantity, glass_rate, base_price, processes, line_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		line.QuotationID, line.LineOrder, line.GlassType, string(line.Thickness),
		line.WidthIn, line.HeightIn, line.WidthFt, line.HeightFt, line.TotalArea, line.TotalLength,
		line.Quantity, decimalToNumeric(line.GlassRate), decimalToNumeric(line.BasePrice),
		processes, decimalToNumeric(line.LineTotal),
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, quotationID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quotation_lines WHERE quotation_id = $1`, quotationID)
	return err
}

// UpdateComputed rewrites the recomputed header fields after a line edit.
func (r *repository) UpdateComputed(ctx context.Context, q Quotation) error {
	diagnostics, err := json.Marshal(q.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET
			quote_date = $3, valid_until = $4,
			subtotal = $5, discount_percent = $6, discount_amount = $7,
			cgst = $8, sgst = $9, igst = $10, total_amount = $11,
			notes = $12, diagnostics = $13, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`,
		q.OrgID, q.ID, q.QuoteDate, q.ValidUntil,
		decimalToNumeric(q.Subtotal), decimalToNumeric(q.DiscountPercent), decimalToNumeric(q.DiscountAmount),
		decimalToNumeric(q.CGST), decimalToNumeric(q.SGST), decimalToNumeric(q.IGST), decimalToNumeric(q.TotalAmount),
		q.Notes, diagnostics,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, orgID, id int64, status QuotationStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET status = $3, updated_at = NOW()
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuotation(row rowScanner) (*Quotation, error) {
	var q Quotation
	var status string
	var quoteDate, validUntil pgtype.Date
	var subtotal, discountPercent, discountAmount, cgst, sgst, igst, totalAmount pgtype.Numeric
	var notes pgtype.Text
	var diagnostics []byte
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&q.ID, &q.DocNumber, &q.OrgID, &q.CustomerID, &quoteDate, &validUntil, &status,
		&subtotal, &discountPercent, &discountAmount, &cgst, &sgst, &igst, &totalAmount,
		&notes, &diagnostics, &q.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Status = QuotationStatus(status)
	q.QuoteDate = quoteDate.Time
	q.ValidUntil = validUntil.Time
	q.Subtotal = numericToDecimal(subtotal)
	q.DiscountPercent = numericToDecimal(discountPercent)
	q.DiscountAmount = numericToDecimal(discountAmount)
	q.CGST = numericToDecimal(cgst)
	q.SGST = numericToDecimal(sgst)
	q.IGST = numericToDecimal(igst)
	q.TotalAmount = numericToDecimal(totalAmount)
	if notes.Valid {
		q.Notes = &notes.String
	}
	if len(diagnostics) > 0 {
		if err := json.Unmarshal(diagnostics, &q.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}
	q.CreatedAt = createdAt.Time
	q.UpdatedAt = updatedAt.Time
	return &q, nil
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
