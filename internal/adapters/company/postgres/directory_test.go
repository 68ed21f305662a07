package postgres

import (
	"context"
	"errors"
	"testing"

	"3tcapital/ms_emision_dian/internal/core/company"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

type fakeQuerier struct {
	sql  string
	args []any
	row  scanFunc
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql = sql
	f.args = args
	return f.row
}

func TestDirectory_LookupCompany(t *testing.T) {
	db := &fakeQuerier{row: func(dest ...any) error {
		*(dest[0].(*int64)) = 7
		*(dest[1].(*string)) = "900123456"
		*(dest[2].(*string)) = "1"
		*(dest[3].(*string)) = "Comercializadora Andina SAS"
		*(dest[4].(*string)) = "api-token"
		*(dest[5].(*string)) = "f1a2b3c4"
		return nil
	}}

	c, err := NewDirectory(db).LookupCompany(context.Background(), "caller-token")

	require.NoError(t, err)
	assert.Equal(t, []any{"caller-token"}, db.args)
	assert.Contains(t, db.sql, "AND active")
	assert.Equal(t, company.Company{
		ID:                   7,
		IdentificationNumber: "900123456",
		DV:                   "1",
		Name:                 "Comercializadora Andina SAS",
		Credentials:          company.Credentials{APIToken: "api-token", TestSetID: "f1a2b3c4"},
	}, c)
}

func TestDirectory_LookupCompanyNotFound(t *testing.T) {
	db := &fakeQuerier{row: func(...any) error { return pgx.ErrNoRows }}

	_, err := NewDirectory(db).LookupCompany(context.Background(), "unknown")

	assert.ErrorIs(t, err, company.ErrNotFound)
}

func TestDirectory_LookupCompanyQueryError(t *testing.T) {
	cause := errors.New("too many connections")
	db := &fakeQuerier{row: func(...any) error { return cause }}

	_, err := NewDirectory(db).LookupCompany(context.Background(), "t")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, company.ErrNotFound)
}
