package postgres

import (
	"context"
	"errors"
	"fmt"

	"3tcapital/ms_emision_dian/internal/core/record"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the repository needs.
// NUMERIC columns rely on the decimal codec registered by the pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores signed documents in submitted_documents.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

var _ record.Repository = (*Repository)(nil)

const selectSubmitted = `
	SELECT id, company_id, company_identification, type_document_id, prefix, number,
	       fiscal_code, issue_date, issue_time, payable_amount, signed_document,
	       COALESCE(qr, ''), COALESCE(file_name, ''), is_valid, created_at
	FROM submitted_documents
	WHERE prefix = $1 AND number = $2 AND company_identification = $3`

// FindSubmitted returns record.ErrNotFound when the document was never stored.
func (r *Repository) FindSubmitted(ctx context.Context, prefix string, number int, companyIdentification string) (record.DocumentRecord, error) {
	var rec record.DocumentRecord
	err := r.db.QueryRow(ctx, selectSubmitted, prefix, number, companyIdentification).Scan(
		&rec.ID,
		&rec.CompanyID,
		&rec.CompanyIdentification,
		&rec.TypeDocumentID,
		&rec.Prefix,
		&rec.Number,
		&rec.FiscalCode,
		&rec.IssueDate,
		&rec.IssueTime,
		&rec.PayableAmount,
		&rec.SignedDocument,
		&rec.QR,
		&rec.FileName,
		&rec.IsValid,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return record.DocumentRecord{}, record.ErrNotFound
	}
	if err != nil {
		return record.DocumentRecord{}, fmt.Errorf("find submitted %s%d: %w", prefix, number, err)
	}
	return rec, nil
}

// A resubmission of the same prefix and number replaces the stored artifacts
// but keeps the original id.
const upsertSubmitted = `
	INSERT INTO submitted_documents (
		id, company_id, company_identification, type_document_id, prefix, number,
		fiscal_code, issue_date, issue_time, payable_amount, signed_document,
		qr, file_name, is_valid
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (prefix, number, company_identification) DO UPDATE SET
		fiscal_code     = EXCLUDED.fiscal_code,
		issue_date      = EXCLUDED.issue_date,
		issue_time      = EXCLUDED.issue_time,
		payable_amount  = EXCLUDED.payable_amount,
		signed_document = EXCLUDED.signed_document,
		qr              = EXCLUDED.qr,
		file_name       = EXCLUDED.file_name,
		is_valid        = EXCLUDED.is_valid`

func (r *Repository) Save(ctx context.Context, rec record.DocumentRecord) error {
	_, err := r.db.Exec(ctx, upsertSubmitted,
		rec.ID,
		rec.CompanyID,
		rec.CompanyIdentification,
		rec.TypeDocumentID,
		rec.Prefix,
		rec.Number,
		rec.FiscalCode,
		rec.IssueDate,
		rec.IssueTime,
		rec.PayableAmount,
		rec.SignedDocument,
		rec.QR,
		rec.FileName,
		rec.IsValid,
	)
	if err != nil {
		return fmt.Errorf("save submitted %s%d: %w", rec.Prefix, rec.Number, err)
	}
	return nil
}
