package quotations

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vitrage-erp/vitrage-erp/internal/sales/shared"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
)

var (
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrPricingGaps blocks submission while any line is priced against a
	// missing rate. Drafts may carry gaps; submitted documents may not.
	ErrPricingGaps = errors.New("quotation has unpriced lines")
)

type Service struct {
	repo      Repository
	pricer    *shared.Pricer
	allocator *sequence.Allocator
}

func NewService(repo Repository, pricer *shared.Pricer, allocator *sequence.Allocator) *Service {
	return &Service{repo: repo, pricer: pricer, allocator: allocator}
}

func (s *Service) Create(ctx context.Context, orgID int64, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	if req.ValidUntil.Before(req.QuoteDate) {
		return nil, fmt.Errorf("%w: valid_until must be after quote_date", ErrInvalidStatus)
	}

	priced, err := s.pricer.PriceDocument(ctx, orgID, req.Lines, req.DiscountPercent)
	if err != nil {
		return nil, err
	}

	quotation := Quotation{
		OrgID:           orgID,
		CustomerID:      req.CustomerID,
		QuoteDate:       req.QuoteDate,
		ValidUntil:      req.ValidUntil,
		Status:          QuotationStatusDraft,
		Subtotal:        priced.Totals.Subtotal,
		DiscountPercent: priced.Totals.DiscountPercent,
		DiscountAmount:  priced.Totals.DiscountAmount,
		CGST:            priced.Totals.CGST,
		SGST:            priced.Totals.SGST,
		IGST:            priced.Totals.IGST,
		TotalAmount:     priced.Totals.Total,
		Notes:           req.Notes,
		Diagnostics:     priced.Diagnostics,
		CreatedBy:       createdBy,
	}

	var quotationID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		// The document number is minted inside the same transaction as the
		// insert; rolling back discards the counter advance too.
		docNumber, err := s.allocator.Allocate(ctx, repo.SequenceStore(), orgID, sequence.DocTypeQuote)
		if err != nil {
			return err
		}
		quotation.DocNumber = docNumber

		id, err := repo.Create(ctx, quotation)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		quotationID = id

		for i, item := range priced.Lines {
			line := lineFromComputed(quotationID, i+1, item)
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert quotation line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, orgID, quotationID)
}

func (s *Service) Update(ctx context.Context, orgID, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if existing.Status != QuotationStatusDraft {
		return nil, fmt.Errorf("%w: only DRAFT quotations can be updated", ErrInvalidStatus)
	}

	updated := *existing
	if req.QuoteDate != nil {
		updated.QuoteDate = *req.QuoteDate
	}
	if req.ValidUntil != nil {
		updated.ValidUntil = *req.ValidUntil
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}
	if updated.ValidUntil.Before(updated.QuoteDate) {
		return nil, fmt.Errorf("%w: valid_until must be after quote_date", ErrInvalidStatus)
	}

	discount := existing.DiscountPercent
	if req.DiscountPercent != nil {
		discount = *req.DiscountPercent
	}

	var priced *shared.PricedDocument
	if req.Lines != nil {
		priced, err = s.pricer.PriceDocument(ctx, orgID, *req.Lines, discount)
	} else if req.DiscountPercent != nil {
		// Discount-only change: reprice from the stored line inputs is not
		// possible, so recompute totals from the persisted line totals.
		priced, err = s.repriceFromStored(ctx, orgID, existing, discount)
	}
	if err != nil {
		return nil, err
	}
	if priced != nil {
		applyTotals(&updated, priced)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateComputed(ctx, updated); err != nil {
			return err
		}
		if req.Lines != nil {
			if err := repo.DeleteLines(ctx, id); err != nil {
				return err
			}
			for i, item := range priced.Lines {
				if _, err := repo.InsertLine(ctx, lineFromComputed(id, i+1, item)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}

	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Submit(ctx context.Context, orgID, id int64) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if existing.Status != QuotationStatusDraft {
		return nil, fmt.Errorf("%w: can only submit DRAFT quotations", ErrInvalidStatus)
	}
	if len(existing.Diagnostics) > 0 {
		return nil, ErrPricingGaps
	}

	if err := s.repo.UpdateStatus(ctx, orgID, id, QuotationStatusSubmitted); err != nil {
		return nil, fmt.Errorf("submit quotation: %w", err)
	}
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Approve(ctx context.Context, orgID, id int64) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if existing.Status != QuotationStatusSubmitted {
		return nil, fmt.Errorf("%w: can only approve SUBMITTED quotations", ErrInvalidStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orgID, id, QuotationStatusApproved); err != nil {
		return nil, fmt.Errorf("approve quotation: %w", err)
	}
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) Reject(ctx context.Context, orgID, id int64) (*Quotation, error) {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if existing.Status != QuotationStatusSubmitted {
		return nil, fmt.Errorf("%w: can only reject SUBMITTED quotations", ErrInvalidStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orgID, id, QuotationStatusRejected); err != nil {
		return nil, fmt.Errorf("reject quotation: %w", err)
	}
	return s.repo.Get(ctx, orgID, id)
}

// MarkConverted flags an approved quotation as converted to a sales order.
func (s *Service) MarkConverted(ctx context.Context, orgID, id int64) error {
	existing, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return fmt.Errorf("get quotation: %w", err)
	}
	if existing.Status != QuotationStatusApproved {
		return fmt.Errorf("%w: only APPROVED quotations can be converted", ErrInvalidStatus)
	}
	return s.repo.UpdateStatus(ctx, orgID, id, QuotationStatusConverted)
}

func (s *Service) Get(ctx context.Context, orgID, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// repriceFromStored reapplies discount and tax over the stored line totals.
func (s *Service) repriceFromStored(ctx context.Context, orgID int64, existing *Quotation, discount decimal.Decimal) (*shared.PricedDocument, error) {
	return s.pricer.ReaggregateLines(ctx, orgID, storedLineTotals(existing), discount, existing.Diagnostics)
}

func storedLineTotals(q *Quotation) []decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(q.Lines))
	for _, l := range q.Lines {
		totals = append(totals, l.LineTotal)
	}
	return totals
}

func applyTotals(q *Quotation, priced *shared.PricedDocument) {
	q.Subtotal = priced.Totals.Subtotal
	q.DiscountPercent = priced.Totals.DiscountPercent
	q.DiscountAmount = priced.Totals.DiscountAmount
	q.CGST = priced.Totals.CGST
	q.SGST = priced.Totals.SGST
	q.IGST = priced.Totals.IGST
	q.TotalAmount = priced.Totals.Total
	q.Diagnostics = priced.Diagnostics
}
