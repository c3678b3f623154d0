package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateInvoiceRequest struct {
	OrderID     int64      `json:"order_id" validate:"required,gt=0"`
	InvoiceDate time.Time  `json:"invoice_date" validate:"required"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Mode        PaymentMode     `json:"mode" validate:"required,oneof=CASH UPI CHEQUE BANK_TRANSFER"`
	Reference   *string         `json:"reference,omitempty"`
	PaymentDate time.Time       `json:"payment_date" validate:"required"`
}

type ListInvoicesRequest struct {
	OrgID      int64          `json:"org_id" validate:"required,gt=0"`
	CustomerID *int64         `json:"customer_id,omitempty"`
	Status     *InvoiceStatus `json:"status,omitempty"`
	DateFrom   *time.Time     `json:"date_from,omitempty"`
	DateTo     *time.Time     `json:"date_to,omitempty"`
	Limit      int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int            `json:"offset" validate:"gte=0"`
}
