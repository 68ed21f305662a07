package postgres

import (
	"context"
	"errors"
	"fmt"

	"3tcapital/ms_emision_dian/internal/core/catalog"

	"github.com/jackc/pgx/v5"
)

// Querier is the part of *pgxpool.Pool the store needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads DIAN code mappings from catalog_codes.
type Store struct {
	db Querier
}

func NewStore(db Querier) *Store {
	return &Store{db: db}
}

var _ catalog.Store = (*Store)(nil)

const lookupCode = `SELECT internal_id FROM catalog_codes WHERE domain = $1 AND code = $2`

// Lookup returns catalog.ErrNotFound when the domain has no row for code.
func (s *Store) Lookup(ctx context.Context, domain catalog.Domain, code string) (int, error) {
	var id int
	err := s.db.QueryRow(ctx, lookupCode, string(domain), code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s %q: %w", domain, code, catalog.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup %s %q: %w", domain, code, err)
	}
	return id, nil
}
