package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"3tcapital/ms_emision_dian/internal/core/record"
	"3tcapital/ms_emision_dian/internal/testutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

type fakeDB struct {
	sql     string
	args    []any
	row     scanFunc
	execErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql = sql
	f.args = args
	return f.row
}

func TestRepository_FindSubmitted(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 1, 19, 10, 0, 0, 0, time.UTC)
	db := &fakeDB{row: func(dest ...any) error {
		*(dest[0].(*uuid.UUID)) = id
		*(dest[1].(*int64)) = 7
		*(dest[2].(*string)) = "900123456"
		*(dest[3].(*int)) = 1
		*(dest[4].(*string)) = "SETP"
		*(dest[5].(*int)) = 990000001
		*(dest[6].(*string)) = "cufe-123"
		*(dest[7].(*string)) = "2024-01-19"
		*(dest[8].(*string)) = "10:00:00"
		*(dest[9].(*decimal.Decimal)) = testutil.Dec("119000.00")
		*(dest[10].(*[]byte)) = []byte("<AttachedDocument/>")
		*(dest[11].(*string)) = "NumFac: SETP990000001"
		*(dest[12].(*string)) = "ad0900123456000.xml"
		*(dest[13].(*bool)) = true
		*(dest[14].(*time.Time)) = created
		return nil
	}}

	rec, err := NewRepository(db).FindSubmitted(context.Background(), "SETP", 990000001, "900123456")

	require.NoError(t, err)
	assert.Equal(t, []any{"SETP", 990000001, "900123456"}, db.args)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "cufe-123", rec.FiscalCode)
	assert.True(t, rec.PayableAmount.Equal(testutil.Dec("119000")))
	assert.Equal(t, []byte("<AttachedDocument/>"), rec.SignedDocument)
	assert.Equal(t, created, rec.CreatedAt)
}

func TestRepository_FindSubmittedNotFound(t *testing.T) {
	db := &fakeDB{row: func(...any) error { return pgx.ErrNoRows }}

	_, err := NewRepository(db).FindSubmitted(context.Background(), "SETP", 1, "900123456")

	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestRepository_Save(t *testing.T) {
	db := &fakeDB{}
	rec := record.DocumentRecord{
		ID:                    uuid.New(),
		CompanyID:             7,
		CompanyIdentification: "900123456",
		TypeDocumentID:        4,
		Prefix:                "NC",
		Number:                15,
		FiscalCode:            "cude-456",
		PayableAmount:         testutil.Dec("50000"),
		IsValid:               true,
	}

	require.NoError(t, NewRepository(db).Save(context.Background(), rec))

	assert.Contains(t, db.sql, "ON CONFLICT (prefix, number, company_identification) DO UPDATE")
	require.Len(t, db.args, 14)
	assert.Equal(t, rec.ID, db.args[0])
	assert.Equal(t, rec.PayableAmount, db.args[9])
}

func TestRepository_SaveWrapsError(t *testing.T) {
	cause := errors.New("foreign key violation")
	db := &fakeDB{execErr: cause}

	err := NewRepository(db).Save(context.Background(), record.DocumentRecord{Prefix: "NC", Number: 15})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "save submitted NC15")
}
