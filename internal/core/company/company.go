package company

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no company matches the given token.
var ErrNotFound = errors.New("company not found")

// Company is an issuer the service submits documents for.
type Company struct {
	ID                   int64
	IdentificationNumber string
	DV                   string
	Name                 string
	Credentials          Credentials
}

// Credentials authenticate a company against the tax authority gateway.
type Credentials struct {
	APIToken  string
	TestSetID string
}

// Directory resolves the token sent by a caller into its company.
type Directory interface {
	LookupCompany(ctx context.Context, token string) (Company, error)
}
