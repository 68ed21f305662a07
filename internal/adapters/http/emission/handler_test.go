package emission

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	appsubmission "3tcapital/ms_emision_dian/internal/application/submission"
	"3tcapital/ms_emision_dian/internal/core/submission"
	"3tcapital/ms_emision_dian/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	pathCalls []string
	codeCalls []string
	requests  []appsubmission.Request
	rejected  []error
	response  submission.Response
}

func (f *fakeSubmitter) SubmitPath(_ context.Context, rawTypeID string, req appsubmission.Request) submission.Response {
	f.pathCalls = append(f.pathCalls, rawTypeID)
	f.requests = append(f.requests, req)
	return f.response
}

func (f *fakeSubmitter) SubmitCode(_ context.Context, code string, req appsubmission.Request) submission.Response {
	f.codeCalls = append(f.codeCalls, code)
	f.requests = append(f.requests, req)
	return f.response
}

func (f *fakeSubmitter) Reject(documentNumber string, err error) submission.Response {
	f.rejected = append(f.rejected, err)
	return submission.Response{
		Result:             submission.ResultError,
		Code:               http.StatusBadRequest,
		DocumentNumber:     documentNumber,
		Message:            err.Error(),
		ValidationMessages: []submission.Rule{},
		NotificationRules:  []submission.Rule{},
		ValidationRules:    []submission.Rule{},
	}
}

func authorizedResponse() submission.Response {
	return submission.Response{
		Result:             submission.ResultProcessed,
		Code:               http.StatusOK,
		DocumentNumber:     "SETP990000001",
		FiscalCode:         "cufe-990000001",
		IsValid:            true,
		AcceptanceDate:     "2024-01-19 10:05:30",
		Hash:               "abc",
		Message:            "La Factura electrónica SETP990000001, ha sido autorizada.",
		ValidationMessages: []submission.Rule{},
		NotificationRules:  []submission.Rule{{Code: "FAJ43b", Message: "Nombre informado No corresponde"}},
		ValidationRules:    []submission.Rule{},
		Name:               "fv09001234560002400000001",
		QR:                 "NumFac: SETP990000001",
		Document:           "PEF0dGFjaGVkRG9jdW1lbnQvPg==",
	}
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/documentos/{typeDocumentId}", h.Submit)
	r.Post("/soap/emision", h.SubmitSOAP)
	return r
}

func TestHandler_Submit(t *testing.T) {
	svc := &fakeSubmitter{response: authorizedResponse()}
	router := newRouter(NewHandler(svc, testutil.NewNullLogger()))

	body := map[string]any{
		"token":     "company-token",
		"documento": map[string]any{"prefijo": "SETP", "numero": 990000001},
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.JSONRequest(t, http.MethodPost, "/api/v1/documentos/1", body))

	var got submission.Response
	testutil.DecodeJSON(t, w, http.StatusOK, &got)
	require.Equal(t, []string{"1"}, svc.pathCalls)
	assert.Equal(t, "company-token", svc.requests[0].Token)
	assert.Equal(t, "SETP", svc.requests[0].Document.Prefijo)
	assert.Equal(t, "cufe-990000001", got.FiscalCode)
	assert.Len(t, got.NotificationRules, 1)
}

func TestHandler_SubmitStatusMirrorsResponseCode(t *testing.T) {
	svc := &fakeSubmitter{response: submission.Response{Result: submission.ResultError, Code: http.StatusBadGateway}}
	router := newRouter(NewHandler(svc, testutil.NewNullLogger()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.JSONRequest(t, http.MethodPost, "/api/v1/documentos/11", map[string]any{"token": "t"}))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandler_SubmitInvalidJSON(t *testing.T) {
	svc := &fakeSubmitter{}
	router := newRouter(NewHandler(svc, testutil.NewNullLogger()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.JSONRequest(t, http.MethodPost, "/api/v1/documentos/1", `{"token": `))

	var got map[string]any
	testutil.DecodeJSON(t, w, http.StatusBadRequest, &got)
	assert.Empty(t, svc.pathCalls)
	require.Len(t, svc.rejected, 1)
	assert.Equal(t, "Error", got["resultado"])
	assert.Contains(t, got["message"], "invalid request body")
	assert.Equal(t, []any{}, got["validationMessages"])
}
