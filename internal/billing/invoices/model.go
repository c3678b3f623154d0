package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "UNPAID"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

type PaymentMode string

const (
	PaymentModeCash     PaymentMode = "CASH"
	PaymentModeUPI      PaymentMode = "UPI"
	PaymentModeCheque   PaymentMode = "CHEQUE"
	PaymentModeTransfer PaymentMode = "BANK_TRANSFER"
)

type Invoice struct {
	ID              int64                `json:"id"`
	DocNumber       string               `json:"doc_number"`
	OrgID           int64                `json:"org_id"`
	CustomerID      int64                `json:"customer_id"`
	OrderID         int64                `json:"order_id"`
	InvoiceDate     time.Time            `json:"invoice_date"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	Status          InvoiceStatus        `json:"status"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	DiscountAmount  decimal.Decimal      `json:"discount_amount"`
	CGST            decimal.Decimal      `json:"cgst"`
	SGST            decimal.Decimal      `json:"sgst"`
	IGST            decimal.Decimal      `json:"igst"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	AmountPaid      decimal.Decimal      `json:"amount_paid"`
	TotalDisplay    string               `json:"total_display,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	CreatedBy       int64                `json:"created_by"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Lines           []InvoiceLine        `json:"lines,omitempty"`
	Payments        []Payment            `json:"payments,omitempty"`
	Diagnostics     []pricing.Diagnostic `json:"diagnostics,omitempty"`
}

// Balance is what remains payable on the invoice.
func (inv *Invoice) Balance() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.AmountPaid)
}

type InvoiceLine struct {
	ID          int64                   `json:"id"`
	InvoiceID   int64                   `json:"invoice_id"`
	LineOrder   int                     `json:"line_order"`
	GlassType   string                  `json:"glass_type"`
	Thickness   pricing.Thickness       `json:"thickness"`
	WidthIn     float64                 `json:"width_in"`
	HeightIn    float64                 `json:"height_in"`
	WidthFt     float64                 `json:"width_ft"`
	HeightFt    float64                 `json:"height_ft"`
	TotalArea   float64                 `json:"total_area"`
	TotalLength float64                 `json:"total_length"`
	Quantity    int                     `json:"quantity"`
	GlassRate   decimal.Decimal         `json:"glass_rate"`
	BasePrice   decimal.Decimal         `json:"base_price"`
	Processes   []pricing.ProcessCharge `json:"processes,omitempty"`
	LineTotal   decimal.Decimal         `json:"line_total"`
}

type Payment struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        PaymentMode     `json:"mode"`
	Reference   *string         `json:"reference,omitempty"`
	PaymentDate time.Time       `json:"payment_date"`
	RecordedBy  int64           `json:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// statusForPaid derives the payment status from the running total.
func statusForPaid(total, paid decimal.Decimal) InvoiceStatus {
	switch {
	case paid.IsZero():
		return InvoiceStatusUnpaid
	case paid.GreaterThanOrEqual(total):
		return InvoiceStatusPaid
	default:
		return InvoiceStatusPartial
	}
}
