package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/sales/shared"
)

type CreateOrderRequest struct {
	CustomerID      int64              `json:"customer_id" validate:"required,gt=0"`
	OrderDate       time.Time          `json:"order_date" validate:"required"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
	Notes           *string            `json:"notes,omitempty"`
	Lines           []shared.LineInput `json:"lines" validate:"required,min=1,dive"`
}

type ConvertQuotationRequest struct {
	QuotationID int64     `json:"quotation_id" validate:"required,gt=0"`
	OrderDate   time.Time `json:"order_date" validate:"required"`
}

type ListOrdersRequest struct {
	OrgID      int64        `json:"org_id" validate:"required,gt=0"`
	CustomerID *int64       `json:"customer_id,omitempty"`
	Status     *OrderStatus `json:"status,omitempty"`
	DateFrom   *time.Time   `json:"date_from,omitempty"`
	DateTo     *time.Time   `json:"date_to,omitempty"`
	Limit      int          `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int          `json:"offset" validate:"gte=0"`
}
