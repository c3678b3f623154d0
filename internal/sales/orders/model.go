package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
)

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type SalesOrder struct {
	ID              int64                `json:"id"`
	DocNumber       string               `json:"doc_number"`
	OrgID           int64                `json:"org_id"`
	CustomerID      int64                `json:"customer_id"`
	QuotationID     *int64               `json:"quotation_id,omitempty"`
	OrderDate       time.Time            `json:"order_date"`
	Status          OrderStatus          `json:"status"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	DiscountAmount  decimal.Decimal      `json:"discount_amount"`
	CGST            decimal.Decimal      `json:"cgst"`
	SGST            decimal.Decimal      `json:"sgst"`
	IGST            decimal.Decimal      `json:"igst"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Notes           *string              `json:"notes,omitempty"`
	CreatedBy       int64                `json:"created_by"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Lines           []OrderLine          `json:"lines,omitempty"`
	Diagnostics     []pricing.Diagnostic `json:"diagnostics,omitempty"`
}

type OrderLine struct {
	ID          int64                   `json:"id"`
	OrderID     int64                   `json:"order_id"`
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

func lineFromComputed(orderID int64, order int, item pricing.ComputedLineItem) OrderLine {
	return OrderLine{
		OrderID:     orderID,
		LineOrder:   order,
		GlassType:   item.GlassType,
		Thickness:   item.Thickness,
		WidthIn:     item.WidthIn,
		HeightIn:    item.HeightIn,
		WidthFt:     item.WidthFt,
		HeightFt:    item.HeightFt,
		TotalArea:   item.TotalArea,
		TotalLength: item.TotalLength,
		Quantity:    item.Quantity,
		GlassRate:   item.GlassRate,
		BasePrice:   item.BaseGlassPrice,
		Processes:   item.Processes,
		LineTotal:   item.LineTotal,
	}
}
