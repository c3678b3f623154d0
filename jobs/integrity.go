package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// docTables maps document types to the table carrying their issued numbers.
// Keep in sync with the sequence store.
var docTables = map[string]string{
	"QUOTE":   "quotations",
	"ORDER":   "sales_orders",
	"INVOICE": "invoices",
}

// SequenceIntegrityHandler returns an asynq handler that reports counters
// lagging behind the highest issued document number. A lagging counter means
// someone issued numbers outside the allocator; the allocator skips over
// them, but the gap is worth a look.
func SequenceIntegrityHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		rows, err := pool.Query(ctx, `
			SELECT org_id, doc_type, next_number FROM number_sequences ORDER BY org_id, doc_type
		`)
		if err != nil {
			return fmt.Errorf("load sequences: %w", err)
		}
		defer rows.Close()

		type seq struct {
			orgID      int64
			docType    string
			nextNumber int64
		}
		var seqs []seq
		for rows.Next() {
			var s seq
			if err := rows.Scan(&s.orgID, &s.docType, &s.nextNumber); err != nil {
				return err
			}
			seqs = append(seqs, s)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		lagging := 0
		for _, s := range seqs {
			table, ok := docTables[s.docType]
			if !ok {
				continue
			}
			// Default patterns put the counter after the last dash.
			var issued int64
			err := pool.QueryRow(ctx, fmt.Sprintf(`
				SELECT COALESCE(MAX(NULLIF(split_part(doc_number, '-', 2), '')::bigint), 0)
				FROM %s WHERE org_id = $1
			`, table), s.orgID).Scan(&issued)
			if err != nil {
				return fmt.Errorf("scan %s max: %w", table, err)
			}
			if issued >= s.nextNumber {
				lagging++
				logger.Warn("sequence counter behind issued numbers",
					slog.Int64("org_id", s.orgID),
					slog.String("doc_type", s.docType),
					slog.Int64("next_number", s.nextNumber),
					slog.Int64("max_issued", issued),
				)
			}
		}

		logger.Info("sequence integrity scan done",
			slog.Int("sequences", len(seqs)),
			slog.Int("lagging", lagging),
		)
		return nil
	}
}

// RateGapScanHandler returns an asynq handler that lists open documents still
// carrying zero-rate line items, so the rate sheets can be completed before
// the documents are submitted.
func RateGapScanHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		rows, err := pool.Query(ctx, `
			SELECT org_id, doc_number, jsonb_array_length(diagnostics)
			FROM quotations
			WHERE status = 'DRAFT' AND jsonb_array_length(diagnostics) > 0
			ORDER BY org_id, id
		`)
		if err != nil {
			return fmt.Errorf("scan rate gaps: %w", err)
		}
		defer rows.Close()

		gaps := 0
		for rows.Next() {
			var orgID int64
			var docNumber string
			var count int
			if err := rows.Scan(&orgID, &docNumber, &count); err != nil {
				return err
			}
			gaps++
			logger.Warn("draft quotation has unpriced lines",
				slog.Int64("org_id", orgID),
				slog.String("doc_number", docNumber),
				slog.Int("missing_rates", count),
			)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		logger.Info("rate gap scan done", slog.Int("drafts_with_gaps", gaps))
		return nil
	}
}
