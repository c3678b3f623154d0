package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitrage-erp/vitrage-erp/internal/sales/orders"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
)

var (
	// ErrOrderNotInvoiceable is returned when the source order has not been
	// confirmed yet or was cancelled.
	ErrOrderNotInvoiceable = errors.New("order cannot be invoiced")
	ErrOverpayment         = errors.New("payment exceeds outstanding balance")
	ErrInvalidPayment      = errors.New("payment amount must be positive")
)

type Service struct {
	repo      Repository
	allocator *sequence.Allocator
	orders    *orders.Service
}

func NewService(repo Repository, allocator *sequence.Allocator, orderSvc *orders.Service) *Service {
	return &Service{repo: repo, allocator: allocator, orders: orderSvc}
}

// Create raises an invoice against a confirmed or fulfilled order. The
// order's priced lines and totals are copied verbatim; the INV number is
// allocated in the same transaction as the insert.
func (s *Service) Create(ctx context.Context, orgID int64, req CreateInvoiceRequest, createdBy int64) (*Invoice, error) {
	order, err := s.orders.Get(ctx, orgID, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	switch order.Status {
	case orders.OrderStatusConfirmed, orders.OrderStatusFulfilled:
	default:
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotInvoiceable, order.Status)
	}

	inv := Invoice{
		OrgID:           orgID,
		CustomerID:      order.CustomerID,
		OrderID:         order.ID,
		InvoiceDate:     req.InvoiceDate,
		DueDate:         req.DueDate,
		Status:          InvoiceStatusUnpaid,
		Subtotal:        order.Subtotal,
		DiscountPercent: order.DiscountPercent,
		DiscountAmount:  order.DiscountAmount,
		CGST:            order.CGST,
		SGST:            order.SGST,
		IGST:            order.IGST,
		TotalAmount:     order.TotalAmount,
		Notes:           req.Notes,
		Diagnostics:     order.Diagnostics,
		CreatedBy:       createdBy,
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		docNumber, err := s.allocator.Allocate(ctx, repo.SequenceStore(), orgID, sequence.DocTypeInvoice)
		if err != nil {
			return err
		}
		inv.DocNumber = docNumber

		id, err := repo.Create(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		invoiceID = id

		for _, ol := range order.Lines {
			line := InvoiceLine{
				InvoiceID:   invoiceID,
				LineOrder:   ol.LineOrder,
				GlassType:   ol.GlassType,
				Thickness:   ol.Thickness,
				WidthIn:     ol.WidthIn,
				HeightIn:    ol.HeightIn,
				WidthFt:     ol.WidthFt,
				HeightFt:    ol.HeightFt,
				TotalArea:   ol.TotalArea,
				TotalLength: ol.TotalLength,
				Quantity:    ol.Quantity,
				GlassRate:   ol.GlassRate,
				BasePrice:   ol.BasePrice,
				Processes:   ol.Processes,
				LineTotal:   ol.LineTotal,
			}
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert invoice line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orgID, invoiceID)
}

// RecordPayment appends a payment and recomputes the invoice's paid total
// and status in one transaction. Overpayment is rejected up front.
func (s *Service) RecordPayment(ctx context.Context, orgID, invoiceID int64, req RecordPaymentRequest, recordedBy int64) (*Invoice, error) {
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidPayment
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.Get(ctx, orgID, invoiceID)
		if err != nil {
			return err
		}

		newPaid := inv.AmountPaid.Add(req.Amount)
		if newPaid.GreaterThan(inv.TotalAmount) {
			return fmt.Errorf("%w: balance is %s", ErrOverpayment, inv.Balance().StringFixed(2))
		}

		payment := Payment{
			InvoiceID:   invoiceID,
			Amount:      req.Amount,
			Mode:        req.Mode,
			Reference:   req.Reference,
			PaymentDate: req.PaymentDate,
			RecordedBy:  recordedBy,
		}
		if _, err := repo.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		return repo.SetPaid(ctx, orgID, invoiceID, newPaid, statusForPaid(inv.TotalAmount, newPaid))
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orgID, invoiceID)
}

func (s *Service) Get(ctx context.Context, orgID, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}
