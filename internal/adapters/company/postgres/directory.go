package postgres

import (
	"context"
	"errors"
	"fmt"

	"3tcapital/ms_emision_dian/internal/core/company"

	"github.com/jackc/pgx/v5"
)

// Querier is the part of *pgxpool.Pool the directory needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory resolves caller tokens against the companies table.
type Directory struct {
	db Querier
}

func NewDirectory(db Querier) *Directory {
	return &Directory{db: db}
}

var _ company.Directory = (*Directory)(nil)

const lookupCompany = `
	SELECT id, identification_number, COALESCE(dv, ''), name, api_token, COALESCE(test_set_id, '')
	FROM companies
	WHERE access_token = $1 AND active`

// LookupCompany returns company.ErrNotFound for unknown or inactive tokens.
func (d *Directory) LookupCompany(ctx context.Context, token string) (company.Company, error) {
	var c company.Company
	err := d.db.QueryRow(ctx, lookupCompany, token).Scan(
		&c.ID,
		&c.IdentificationNumber,
		&c.DV,
		&c.Name,
		&c.Credentials.APIToken,
		&c.Credentials.TestSetID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return company.Company{}, company.ErrNotFound
	}
	if err != nil {
		return company.Company{}, fmt.Errorf("lookup company: %w", err)
	}
	return c, nil
}
