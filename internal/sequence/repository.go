package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// docTables maps each document type to the table its numbers live in, for
// the collision check against already-issued numbers.
var docTables = map[DocType]string{
	DocTypeQuote:   "quotations",
	DocTypeOrder:   "sales_orders",
	DocTypeInvoice: "invoices",
}

// PgStore implements Store on Postgres. Construct it with the pgx.Tx of the
// surrounding document-creation transaction; SELECT ... FOR UPDATE on the
// counter row serializes concurrent allocators for the same pair.
type PgStore struct {
	db dbtx
}

// NewPgStore wraps a transaction (or pool, in read-only contexts).
func NewPgStore(db dbtx) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) GetForUpdate(ctx context.Context, orgID int64, dt DocType) (*Sequence, error) {
	seq := Sequence{OrgID: orgID, DocType: dt}
	err := s.db.QueryRow(ctx, `
		SELECT pattern, next_number
		FROM number_sequences
		WHERE org_id = $1 AND doc_type = $2
		FOR UPDATE
	`, orgID, string(dt)).Scan(&seq.Pattern, &seq.NextNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &seq, nil
}

func (s *PgStore) Create(ctx context.Context, seq Sequence) error {
	// DO NOTHING keeps a concurrent first-use race harmless; the caller
	// re-reads under lock afterwards.
	_, err := s.db.Exec(ctx, `
		INSERT INTO number_sequences (org_id, doc_type, pattern, next_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id, doc_type) DO NOTHING
	`, seq.OrgID, string(seq.DocType), seq.Pattern, seq.NextNumber)
	return err
}

func (s *PgStore) SetNextNumber(ctx context.Context, orgID int64, dt DocType, next int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE number_sequences
		SET next_number = $3, updated_at = NOW()
		WHERE org_id = $1 AND doc_type = $2
	`, orgID, string(dt), next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) NumberExists(ctx context.Context, orgID int64, dt DocType, number string) (bool, error) {
	table, ok := docTables[dt]
	if !ok {
		return false, fmt.Errorf("sequence: unknown doc type %q", dt)
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE org_id = $1 AND doc_number = $2)`, table)
	if err := s.db.QueryRow(ctx, query, orgID, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
