package submission

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_emision_dian/internal/application/builder"
	appcatalog "3tcapital/ms_emision_dian/internal/application/catalog"
	"3tcapital/ms_emision_dian/internal/core/company"
	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/source"
	"3tcapital/ms_emision_dian/internal/core/submission"
	ctxutil "3tcapital/ms_emision_dian/internal/infrastructure/context"
	"3tcapital/ms_emision_dian/internal/infrastructure/logger"
	"3tcapital/ms_emision_dian/internal/infrastructure/metrics"
	"3tcapital/ms_emision_dian/internal/testutil"
)

var fixedNow = time.Date(2024, 1, 19, 10, 5, 30, 0, time.UTC)

type harness struct {
	service *Service
	gateway *testutil.MockGateway
	records *testutil.RecordRepository
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithLogger(t, testutil.NewNullLogger())
}

func newHarnessWithLogger(t *testing.T, log *slog.Logger) *harness {
	t.Helper()
	now := func() time.Time { return fixedNow }

	h := &harness{
		gateway: &testutil.MockGateway{},
		records: testutil.NewRecordRepository(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	issuer := testutil.SampleCompany()
	deps := Dependencies{
		Companies:   &testutil.MockCompanyDirectory{Companies: map[string]company.Company{issuer.Credentials.APIToken: issuer}},
		Gateway:     h.gateway,
		Records:     h.records,
		Interpreter: NewInterpreter(h.records, NewQRBuilder(""), now, log),
		Metrics:     h.metrics,
		Log:         log,
		Now:         now,
	}
	resolver := appcatalog.NewResolver(testutil.NewCatalogStore(testutil.DefaultCatalog()), log)
	registry, err := NewRegistry(builder.NewFactory(resolver, log), deps)
	require.NoError(t, err)

	h.service = NewService(registry, NewArtifactBuilder(now), h.metrics, log)
	return h
}

func sampleRequest() Request {
	return Request{Token: testutil.SampleCompany().Credentials.APIToken, Document: testutil.SampleSource()}
}

func authorizedEnvelope(signed string) submission.EnvelopeResponse {
	return submission.EnvelopeResponse{
		Result: submission.EnvelopeResult{
			IsValid:       "true",
			StatusCode:    "00",
			StatusMessage: "La Factura electrónica SETP990000001, ha sido autorizada.",
			ErrorMessages: []string{"Regla: FAJ43b, Notificación: Nombre informado No corresponde al registrado en el RUT"},
			FileName:      "fv09001234560002400000001",
		},
		FiscalCode:     "cufe-990000001",
		SignedDocument: []byte(signed),
	}
}

func TestService_Submit_Authorized(t *testing.T) {
	h := newHarness(t)
	h.gateway.SubmitFunc = func(_ context.Context, kind document.Kind, doc document.TaxDocument, creds company.Credentials) (submission.AuthorityResponse, error) {
		assert.Equal(t, document.KindInvoice, kind)
		assert.Equal(t, "api-token-123", creds.APIToken)
		assert.Equal(t, "SETP", doc.Prefix)
		return authorizedEnvelope("<AttachedDocument/>"), nil
	}

	resp := h.service.Submit(context.Background(), 1, sampleRequest())

	assert.Equal(t, submission.ResultProcessed, resp.Result)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "SETP990000001", resp.DocumentNumber)
	assert.Equal(t, "cufe-990000001", resp.FiscalCode)
	assert.Equal(t, "2024-01-19 10:05:30", resp.AcceptanceDate)
	assert.Equal(t, Hash([]byte("<AttachedDocument/>")), resp.Hash)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("<AttachedDocument/>")), resp.Document)
	assert.Equal(t, "fv09001234560002400000001", resp.Name)
	assert.Contains(t, resp.QR, "CUFE: cufe-990000001")
	require.Len(t, resp.NotificationRules, 1)
	assert.Equal(t, "FAJ43b", resp.NotificationRules[0].Code)
	assert.Empty(t, resp.ValidationRules)
	assert.NotNil(t, resp.ValidationRules)

	assert.Equal(t, 1, h.records.Len())
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.Submissions.WithLabelValues("invoice", "authorized")))
}

func TestService_OutcomeLogsCarryCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := newHarnessWithLogger(t, logger.NewWithWriter(&buf, "ms-emision-dian", "debug", "production"))
	h.gateway.SubmitFunc = func(context.Context, document.Kind, document.TaxDocument, company.Credentials) (submission.AuthorityResponse, error) {
		return authorizedEnvelope("<AttachedDocument/>"), nil
	}

	ctx := ctxutil.WithCorrelationID(context.Background(), "corr-123")
	h.service.Submit(ctx, 1, sampleRequest())
	h.service.SubmitPath(ctx, "factura", sampleRequest())

	lines := map[string]map[string]any{}
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(raw, &entry))
		lines[entry["msg"].(string)] = entry
	}
	for _, msg := range []string{"Document authorized", "Unsupported document type"} {
		require.Contains(t, lines, msg)
		assert.Equal(t, "corr-123", lines[msg]["correlation_id"], msg)
	}
}

func TestService_Submit_Idempotent(t *testing.T) {
	h := newHarness(t)
	calls := 0
	h.gateway.SubmitFunc = func(context.Context, document.Kind, document.TaxDocument, company.Credentials) (submission.AuthorityResponse, error) {
		calls++
		if calls == 1 {
			return authorizedEnvelope("<AttachedDocument/>"), nil
		}
		return submission.MessageResponse{
			StatusCode: http.StatusOK,
			Message:    "Este documento ya fue enviado anteriormente, se registra en la base de datos.",
		}, nil
	}

	first := h.service.Submit(context.Background(), 1, sampleRequest())
	second := h.service.Submit(context.Background(), 1, sampleRequest())

	assert.Equal(t, first.FiscalCode, second.FiscalCode)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Document, second.Document)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, submission.ResultProcessed, second.Result)
	assert.Equal(t, "2024-01-19 10:00:00", second.AcceptanceDate)
}

func TestService_Submit_AlreadySubmittedWithoutRecord(t *testing.T) {
	h := newHarness(t)
	h.gateway.SubmitFunc = func(context.Context, document.Kind, document.TaxDocument, company.Credentials) (submission.AuthorityResponse, error) {
		return submission.MessageResponse{StatusCode: http.StatusOK, Message: "Documento SETP990000001 ya fue enviado anteriormente"}, nil
	}

	resp := h.service.Submit(context.Background(), 1, sampleRequest())

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Equal(t, submission.ResultError, resp.Result)
	assert.Contains(t, resp.Message, "already submitted but no stored record")
}

func TestService_Submit_RejectedByRule(t *testing.T) {
	h := newHarness(t)
	h.gateway.SubmitFunc = func(context.Context, document.Kind, document.TaxDocument, company.Credentials) (submission.AuthorityResponse, error) {
		return submission.EnvelopeResponse{
			Result: submission.EnvelopeResult{
				IsValid:       "false",
				StatusCode:    "99",
				ErrorMessages: []string{"Regla: 90, Rechazo: Documento procesado anteriormente."},
			},
			FiscalCode:     "cufe-other-provider",
			SignedDocument: []byte("<AttachedDocument id=\"1\"/>"),
		}, nil
	}

	resp := h.service.Submit(context.Background(), 1, sampleRequest())

	assert.Equal(t, submission.ResultError, resp.Result)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.True(t, resp.IsValid)
	assert.Equal(t, "cufe-other-provider", resp.FiscalCode)
	assert.NotEmpty(t, resp.Document)
	assert.NotEmpty(t, resp.Hash)
	require.Len(t, resp.ValidationRules, 1)
	assert.Equal(t, "90", resp.ValidationRules[0].Code)
	assert.Equal(t, 1, h.records.Len())
}

func TestService_Submit_ValidationMessages(t *testing.T) {
	h := newHarness(t)
	h.gateway.SubmitFunc = func(context.Context, document.Kind, document.TaxDocument, company.Credentials) (submission.AuthorityResponse, error) {
		return submission.EnvelopeResponse{Result: submission.EnvelopeResult{
			IsValid: "false",
			ErrorMessages: []string{
				"Regla: FAD06, Rechazo: Fecha de emisión no válida",
				"Regla: FAK24, Notificación: Nombre no coincide",
			},
		}}, nil
	}

	resp := h.service.Submit(context.Background(), 1, sampleRequest())

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, resp.IsValid)
	assert.Len(t, resp.ValidationMessages, 2)
	assert.Len(t, resp.ValidationRules, 1)
	assert.Len(t, resp.NotificationRules, 1)
	assert.Empty(t, resp.Document)
	assert.Equal(t, 0, h.records.Len())
}

func TestService_Submit_TransportError(t *testing.T) {
	h := newHarness(t)
	h.gateway.SubmitFunc = func(context.Context, document.Kind, document.TaxDocument, company.Credentials) (submission.AuthorityResponse, error) {
		return nil, &submission.GatewayError{Message: "authority request timed out after 60s", Cause: context.DeadlineExceeded}
	}

	resp := h.service.Submit(context.Background(), 1, sampleRequest())

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Message, "timed out")
	assert.Equal(t, "SETP990000001", resp.DocumentNumber)
}

func TestService_Submit_UnknownToken(t *testing.T) {
	h := newHarness(t)
	req := sampleRequest()
	req.Token = "unknown"

	resp := h.service.Submit(context.Background(), 1, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "company not found", resp.Message)
	assert.Empty(t, h.gateway.Submitted)
}

func TestService_Submit_UnsupportedType(t *testing.T) {
	h := newHarness(t)

	resp := h.service.Submit(context.Background(), 99, sampleRequest())

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Tipo de documento no soportado: 99 (soportados: 1, 4, 11, 13)", resp.Message)
	assert.Empty(t, h.gateway.Submitted)
}

func TestService_SubmitPath(t *testing.T) {
	h := newHarness(t)
	h.gateway.SubmitFunc = func(_ context.Context, kind document.Kind, _ document.TaxDocument, _ company.Credentials) (submission.AuthorityResponse, error) {
		assert.Equal(t, document.KindCreditNote, kind)
		return authorizedEnvelope("<x/>"), nil
	}

	req := sampleRequest()
	req.Document.Referencias = source.OneOrMany[source.Reference]{{Numero: "SETP990000001", Cufe: "cufe-990000001", FechaEmision: "2024-01-19", ConceptoCorreccion: "2"}}

	resp := h.service.SubmitPath(context.Background(), " 4 ", req)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = h.service.SubmitPath(context.Background(), "factura", sampleRequest())
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Tipo de documento no soportado: factura (soportados: 1, 4, 11, 13)", resp.Message)
	assert.Len(t, h.gateway.Submitted, 1)
}

func TestService_SubmitCode(t *testing.T) {
	h := newHarness(t)
	h.gateway.SubmitFunc = func(_ context.Context, kind document.Kind, _ document.TaxDocument, _ company.Credentials) (submission.AuthorityResponse, error) {
		assert.Equal(t, document.KindInvoice, kind)
		return authorizedEnvelope("<x/>"), nil
	}

	resp := h.service.SubmitCode(context.Background(), "01", sampleRequest())
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = h.service.SubmitCode(context.Background(), "99", sampleRequest())
	assert.Contains(t, resp.Message, "Tipo de documento no soportado: 99")
}

func TestService_SaveFailureKeepsOutcome(t *testing.T) {
	h := newHarness(t)
	h.records.SaveErr = errors.New("connection reset")
	h.gateway.SubmitFunc = func(context.Context, document.Kind, document.TaxDocument, company.Credentials) (submission.AuthorityResponse, error) {
		return authorizedEnvelope("<AttachedDocument/>"), nil
	}

	resp := h.service.Submit(context.Background(), 1, sampleRequest())

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.RecordSaveFailures))
}

func TestRegistry(t *testing.T) {
	h := newHarness(t)
	r := h.service.registry

	for _, id := range []int{1, 4, 11, 13} {
		assert.True(t, r.IsSupported(id), "type %d", id)
	}
	assert.False(t, r.IsSupported(2))
	assert.Equal(t, []string{"1", "4", "11", "13"}, r.SupportedIDs())

	p, err := r.Lookup(11)
	require.NoError(t, err)
	assert.Equal(t, document.KindSupportDocument, p.Kind())

	_, err = r.Lookup(5)
	var unsupported *document.UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "5", unsupported.Value)
}
