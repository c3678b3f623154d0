package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/sales/shared"
)

type CreateQuotationRequest struct {
	CustomerID      int64              `json:"customer_id" validate:"required,gt=0"`
	QuoteDate       time.Time          `json:"quote_date" validate:"required"`
	ValidUntil      time.Time          `json:"valid_until" validate:"required"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
	Notes           *string            `json:"notes,omitempty"`
	Lines           []shared.LineInput `json:"lines" validate:"required,min=1,dive"`
}

type UpdateQuotationRequest struct {
	QuoteDate       *time.Time          `json:"quote_date,omitempty"`
	ValidUntil      *time.Time          `json:"valid_until,omitempty"`
	DiscountPercent *decimal.Decimal    `json:"discount_percent,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	Lines           *[]shared.LineInput `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

type ListQuotationsRequest struct {
	OrgID      int64            `json:"org_id" validate:"required,gt=0"`
	CustomerID *int64           `json:"customer_id,omitempty"`
	Status     *QuotationStatus `json:"status,omitempty"`
	DateFrom   *time.Time       `json:"date_from,omitempty"`
	DateTo     *time.Time       `json:"date_to,omitempty"`
	Limit      int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int              `json:"offset" validate:"gte=0"`
}
