package catalog

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a code has no mapping in its domain.
var ErrNotFound = errors.New("catalog code not found")

// Domain groups the codes of one catalog table.
type Domain string

const (
	DomainTax               Domain = "tax"
	DomainUnit              Domain = "unit"
	DomainIdentification    Domain = "identification"
	DomainOrganization      Domain = "organization"
	DomainLiability         Domain = "liability"
	DomainRegime            Domain = "regime"
	DomainMunicipality      Domain = "municipality"
	DomainPaymentForm       Domain = "payment_form"
	DomainPaymentMethod     Domain = "payment_method"
	DomainCorrectionConcept Domain = "correction_concept"
)

// Store maps an external code to the authority's internal numeric id.
// Implementations must be safe for concurrent reads.
type Store interface {
	Lookup(ctx context.Context, domain Domain, code string) (int, error)
}
