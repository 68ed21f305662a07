package testutil

import (
	"context"
	"fmt"
	"sync"

	"3tcapital/ms_emision_dian/internal/core/audit"
	"3tcapital/ms_emision_dian/internal/core/catalog"
	"3tcapital/ms_emision_dian/internal/core/company"
	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/record"
	"3tcapital/ms_emision_dian/internal/core/submission"
)

// MockCatalogStore is a catalog.Store driven by LookupFunc or a static table.
type MockCatalogStore struct {
	LookupFunc func(ctx context.Context, domain catalog.Domain, code string) (int, error)
	Table      map[catalog.Domain]map[string]int

	mu    sync.Mutex
	Calls int
}

// NewCatalogStore returns a store backed by table.
func NewCatalogStore(table map[catalog.Domain]map[string]int) *MockCatalogStore {
	return &MockCatalogStore{Table: table}
}

func (m *MockCatalogStore) Lookup(ctx context.Context, domain catalog.Domain, code string) (int, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, domain, code)
	}
	if id, ok := m.Table[domain][code]; ok {
		return id, nil
	}
	return 0, catalog.ErrNotFound
}

// DefaultCatalog holds the codes used by the test fixtures.
func DefaultCatalog() map[catalog.Domain]map[string]int {
	return map[catalog.Domain]map[string]int{
		catalog.DomainTax:               {"01": 1, "04": 4, "05": 5, "06": 6, "07": 7, "ZZ": 15},
		catalog.DomainUnit:              {"94": 70, "KGM": 767},
		catalog.DomainIdentification:    {"13": 3, "31": 6},
		catalog.DomainOrganization:      {"1": 1, "2": 2},
		catalog.DomainLiability:         {"O-13": 7, "R-99-PN": 117},
		catalog.DomainRegime:            {"48": 1, "49": 2},
		catalog.DomainMunicipality:      {"11001": 149, "05001": 1},
		catalog.DomainPaymentForm:       {"1": 1, "2": 2},
		catalog.DomainPaymentMethod:     {"10": 10, "42": 42, "47": 47},
		catalog.DomainCorrectionConcept: {"1": 1, "2": 2},
	}
}

// MockCompanyDirectory resolves tokens from a map unless LookupFunc is set.
type MockCompanyDirectory struct {
	LookupFunc func(ctx context.Context, token string) (company.Company, error)
	Companies  map[string]company.Company
}

func (m *MockCompanyDirectory) LookupCompany(ctx context.Context, token string) (company.Company, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, token)
	}
	if c, ok := m.Companies[token]; ok {
		return c, nil
	}
	return company.Company{}, company.ErrNotFound
}

// RecordRepository is an in-memory record.Repository.
type RecordRepository struct {
	SaveErr error

	mu      sync.Mutex
	records map[string]record.DocumentRecord
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{records: make(map[string]record.DocumentRecord)}
}

func recordKey(prefix string, number int, companyIdentification string) string {
	return fmt.Sprintf("%s|%d|%s", prefix, number, companyIdentification)
}

func (r *RecordRepository) FindSubmitted(_ context.Context, prefix string, number int, companyIdentification string) (record.DocumentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordKey(prefix, number, companyIdentification)]
	if !ok {
		return record.DocumentRecord{}, record.ErrNotFound
	}
	return rec, nil
}

func (r *RecordRepository) Save(_ context.Context, rec record.DocumentRecord) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[recordKey(rec.Prefix, rec.Number, rec.CompanyIdentification)] = rec
	return nil
}

// Len returns the number of stored records.
func (r *RecordRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// MockGateway returns the queued responses in order, or calls SubmitFunc.
type MockGateway struct {
	SubmitFunc func(ctx context.Context, kind document.Kind, doc document.TaxDocument, creds company.Credentials) (submission.AuthorityResponse, error)

	mu        sync.Mutex
	Submitted []document.TaxDocument
}

func (m *MockGateway) Submit(ctx context.Context, kind document.Kind, doc document.TaxDocument, creds company.Credentials) (submission.AuthorityResponse, error) {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, doc)
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, kind, doc, creds)
	}
	return nil, &submission.GatewayError{Message: "no response configured"}
}

// MockAuditRepository records saved exchange logs and signals each save.
type MockAuditRepository struct {
	SaveErr error
	Saved   chan audit.ExchangeLog

	mu   sync.Mutex
	logs []audit.ExchangeLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{Saved: make(chan audit.ExchangeLog, 16)}
}

func (m *MockAuditRepository) Save(_ context.Context, log audit.ExchangeLog) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	m.logs = append(m.logs, log)
	m.mu.Unlock()
	select {
	case m.Saved <- log:
	default:
	}
	return nil
}

func (m *MockAuditRepository) FindByCorrelationID(_ context.Context, correlationID string) ([]audit.ExchangeLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.ExchangeLog
	for _, l := range m.logs {
		if l.CorrelationID == correlationID {
			out = append(out, l)
		}
	}
	return out, nil
}
