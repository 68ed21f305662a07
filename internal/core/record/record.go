package record

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no document was stored for the given key.
var ErrNotFound = errors.New("submitted document not found")

// DocumentRecord is a document the authority signed and validated.
type DocumentRecord struct {
	ID                    uuid.UUID
	CompanyID             int64
	CompanyIdentification string
	TypeDocumentID        int
	Prefix                string
	Number                int
	FiscalCode            string
	IssueDate             string
	IssueTime             string
	PayableAmount         decimal.Decimal
	SignedDocument        []byte
	QR                    string
	FileName              string
	IsValid               bool
	CreatedAt             time.Time
}

// Repository persists submitted documents and serves resend detection.
type Repository interface {
	FindSubmitted(ctx context.Context, prefix string, number int, companyIdentification string) (DocumentRecord, error)
	Save(ctx context.Context, rec DocumentRecord) error
}
