package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
	"github.com/vitrage-erp/vitrage-erp/internal/sales/quotations"
	"github.com/vitrage-erp/vitrage-erp/internal/sales/shared"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
)

var (
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrQuotationNotConvertible is returned when the source quotation is
	// not in a convertible state.
	ErrQuotationNotConvertible = errors.New("quotation cannot be converted")
)

type Service struct {
	repo      Repository
	pricer    *shared.Pricer
	allocator *sequence.Allocator
	quotes    *quotations.Service
}

func NewService(repo Repository, pricer *shared.Pricer, allocator *sequence.Allocator, quotes *quotations.Service) *Service {
	return &Service{repo: repo, pricer: pricer, allocator: allocator, quotes: quotes}
}

// Create prices the submitted lines and inserts the order with a freshly
// minted SO number, all in one transaction.
func (s *Service) Create(ctx context.Context, orgID int64, req CreateOrderRequest, createdBy int64) (*SalesOrder, error) {
	priced, err := s.pricer.PriceDocument(ctx, orgID, req.Lines, req.DiscountPercent)
	if err != nil {
		return nil, err
	}

	order := SalesOrder{
		OrgID:      orgID,
		CustomerID: req.CustomerID,
		OrderDate:  req.OrderDate,
		Status:     OrderStatusDraft,
		Notes:      req.Notes,
		CreatedBy:  createdBy,
	}
	applyTotals(&order, priced.Totals)
	order.Diagnostics = priced.Diagnostics

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := s.allocator.Allocate(ctx, repo.SequenceStore(), orgID, sequence.DocTypeOrder)
		if err != nil {
			return err
		}
		order.DocNumber = docNumber

		id, err := repo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		orderID = id

		for i, item := range priced.Lines {
			if _, err := repo.InsertLine(ctx, lineFromComputed(orderID, i+1, item)); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orgID, orderID)
}

// ConvertFromQuotation copies an approved quotation's priced lines into a
// new sales order. Order insert, SO number allocation and the quotation's
// CONVERTED flip happen in one transaction.
func (s *Service) ConvertFromQuotation(ctx context.Context, orgID int64, req ConvertQuotationRequest, createdBy int64) (*SalesOrder, error) {
	quote, err := s.quotes.Get(ctx, orgID, req.QuotationID)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quote.Status != quotations.QuotationStatusApproved {
		return nil, fmt.Errorf("%w: status is %s", ErrQuotationNotConvertible, quote.Status)
	}

	order := SalesOrder{
		OrgID:           orgID,
		CustomerID:      quote.CustomerID,
		QuotationID:     &quote.ID,
		OrderDate:       req.OrderDate,
		Status:          OrderStatusDraft,
		Subtotal:        quote.Subtotal,
		DiscountPercent: quote.DiscountPercent,
		DiscountAmount:  quote.DiscountAmount,
		CGST:            quote.CGST,
		SGST:            quote.SGST,
		IGST:            quote.IGST,
		TotalAmount:     quote.TotalAmount,
		Notes:           quote.Notes,
		Diagnostics:     quote.Diagnostics,
		CreatedBy:       createdBy,
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := s.allocator.Allocate(ctx, repo.SequenceStore(), orgID, sequence.DocTypeOrder)
		if err != nil {
			return err
		}
		order.DocNumber = docNumber

		id, err := repo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		orderID = id

		for _, ql := range quote.Lines {
			line := OrderLine{
				OrderID:     orderID,
				LineOrder:   ql.LineOrder,
				GlassType:   ql.GlassType,
				Thickness:   ql.Thickness,
				WidthIn:     ql.WidthIn,
				HeightIn:    ql.HeightIn,
				WidthFt:     ql.WidthFt,
				HeightFt:    ql.HeightFt,
				TotalArea:   ql.TotalArea,
				TotalLength: ql.TotalLength,
				Quantity:    ql.Quantity,
				GlassRate:   ql.GlassRate,
				BasePrice:   ql.BasePrice,
				Processes:   ql.Processes,
				LineTotal:   ql.LineTotal,
			}
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}

		if err := repo.MarkQuotationConverted(ctx, orgID, quote.ID); err != nil {
			return fmt.Errorf("mark quotation converted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orgID, orderID)
}

func (s *Service) Confirm(ctx context.Context, orgID, id int64) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if existing.Status != OrderStatusDraft {
		return nil, fmt.Errorf("%w: can only confirm DRAFT orders", ErrInvalidStatus)
	}
	if len(existing.Diagnostics) > 0 {
		return nil, fmt.Errorf("%w: order has unpriced lines", ErrInvalidStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orgID, id, OrderStatusConfirmed); err != nil {
		return nil, fmt.Errorf("confirm sales order: %w", err)
	}
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Fulfill(ctx context.Context, orgID, id int64) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if existing.Status != OrderStatusConfirmed {
		return nil, fmt.Errorf("%w: can only fulfill CONFIRMED orders", ErrInvalidStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orgID, id, OrderStatusFulfilled); err != nil {
		return nil, fmt.Errorf("fulfill sales order: %w", err)
	}
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Cancel(ctx context.Context, orgID, id int64) (*SalesOrder, error) {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	switch existing.Status {
	case OrderStatusDraft, OrderStatusConfirmed:
	default:
		return nil, fmt.Errorf("%w: cannot cancel %s orders", ErrInvalidStatus, existing.Status)
	}

	if err := s.repo.UpdateStatus(ctx, orgID, id, OrderStatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel sales order: %w", err)
	}
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Get(ctx context.Context, orgID, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]SalesOrder, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

func applyTotals(o *SalesOrder, totals pricing.DocumentTotals) {
	o.Subtotal = totals.Subtotal
	o.DiscountPercent = totals.DiscountPercent
	o.DiscountAmount = totals.DiscountAmount
	o.CGST = totals.CGST
	o.SGST = totals.SGST
	o.IGST = totals.IGST
	o.TotalAmount = totals.Total
}
