package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	corecatalog "3tcapital/ms_emision_dian/internal/core/catalog"
	"3tcapital/ms_emision_dian/internal/core/submission"
)

// Resolver turns external codes into the authority's numeric identifiers.
type Resolver struct {
	store corecatalog.Store
	log   *slog.Logger
}

func NewResolver(store corecatalog.Store, log *slog.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// ResolveCode returns the id mapped to code in domain. Unknown codes are
// validation errors; store failures are returned wrapped.
func (r *Resolver) ResolveCode(ctx context.Context, domain corecatalog.Domain, code string) (int, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, submission.NewValidationError(fmt.Sprintf("code not found: <empty %s code>", domain))
	}

	id, err := r.store.Lookup(ctx, domain, code)
	if err != nil {
		if errors.Is(err, corecatalog.ErrNotFound) {
			return 0, submission.NewValidationError("code not found: " + code)
		}
		return 0, fmt.Errorf("resolve %s code %q: %w", domain, code, err)
	}
	return id, nil
}

// ResolveOrDefault resolves code and falls back to def when it is empty or unknown.
// Store failures are still returned.
func (r *Resolver) ResolveOrDefault(ctx context.Context, domain corecatalog.Domain, code string, def int) (int, error) {
	id, err := r.ResolveCode(ctx, domain, code)
	if err == nil {
		return id, nil
	}
	var validation *submission.ValidationError
	if errors.As(err, &validation) {
		r.log.DebugContext(ctx, "catalog code not found, using default",
			"domain", domain,
			"code", code,
			"default", def,
		)
		return def, nil
	}
	return 0, err
}
