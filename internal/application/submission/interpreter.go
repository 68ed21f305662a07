// Package submission runs the emission pipeline: build, submit, interpret the
// authority reply and turn the outcome into the caller-facing response.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"3tcapital/ms_emision_dian/internal/core/company"
	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/record"
	"3tcapital/ms_emision_dian/internal/core/submission"
)

const (
	// otherProviderMarker flags a document already authorized through another provider.
	otherProviderMarker = "Regla: 90"
	otherProviderRule   = "90"
	resentMarker        = "ya fue enviado anteriormente"
)

// Interpreter classifies one authority reply into exactly one outcome.
type Interpreter struct {
	records record.Repository
	qr      QRBuilder
	now     func() time.Time
	log     *slog.Logger
}

func NewInterpreter(records record.Repository, qr QRBuilder, now func() time.Time, log *slog.Logger) *Interpreter {
	if now == nil {
		now = time.Now
	}
	return &Interpreter{records: records, qr: qr, now: now, log: log}
}

// Interpret maps resp for doc, submitted on behalf of issuer.
func (in *Interpreter) Interpret(ctx context.Context, doc document.TaxDocument, issuer company.Company, resp submission.AuthorityResponse) submission.Outcome {
	switch r := resp.(type) {
	case submission.EnvelopeResponse:
		return in.envelope(ctx, doc, issuer, r)
	case submission.MessageResponse:
		return in.message(ctx, doc, issuer, r)
	}
	return submission.TransportError{
		DocumentNumber: doc.DocumentNumber(),
		Cause:          fmt.Errorf("unexpected authority response %T", resp),
	}
}

func (in *Interpreter) envelope(ctx context.Context, doc document.TaxDocument, issuer company.Company, r submission.EnvelopeResponse) submission.Outcome {
	number := doc.DocumentNumber()
	result := r.Result
	fiscalCode := r.FiscalCode
	if fiscalCode == "" {
		fiscalCode = result.DocumentKey
	}

	if result.Valid() {
		return submission.Authorized{
			DocumentNumber: number,
			FiscalCode:     fiscalCode,
			SignedDocument: r.SignedDocument,
			QR:             in.qrFor(doc, issuer, fiscalCode, r.QR),
			FileName:       result.FileName,
			Message:        firstNonEmpty(result.StatusMessage, r.Message, result.StatusDescription),
			Notifications:  submission.ParseRules(result.ErrorMessages),
			AcceptedAt:     in.now(),
		}
	}

	if containsAny(result.ErrorMessages, otherProviderMarker) {
		in.log.WarnContext(ctx, "Document already authorized through another provider",
			"document_number", number,
			"fiscal_code", fiscalCode)
		return submission.RejectedByRule{
			DocumentNumber: number,
			RuleCode:       otherProviderRule,
			FiscalCode:     fiscalCode,
			SignedDocument: r.SignedDocument,
			QR:             in.qrFor(doc, issuer, fiscalCode, r.QR),
			FileName:       result.FileName,
			Messages:       submission.ParseRules(result.ErrorMessages),
			AcceptedAt:     in.now(),
		}
	}

	if len(result.ErrorMessages) > 0 {
		return submission.ValidationFailed{
			DocumentNumber: number,
			Messages:       submission.ParseRules(result.ErrorMessages),
		}
	}

	return submission.ValidationFailed{
		DocumentNumber: number,
		Messages: []submission.Rule{{
			Code:    result.StatusCode,
			Message: firstNonEmpty(result.StatusDescription, result.StatusMessage, r.Message, "documento no válido"),
		}},
	}
}

func (in *Interpreter) message(ctx context.Context, doc document.TaxDocument, issuer company.Company, r submission.MessageResponse) submission.Outcome {
	number := doc.DocumentNumber()

	if strings.Contains(strings.ToLower(r.Message), resentMarker) {
		return in.alreadySubmitted(ctx, doc, issuer, r.Message)
	}

	if len(r.Errors) > 0 {
		return submission.ValidationFailed{
			DocumentNumber: number,
			Messages:       submission.ParseRules(r.Errors),
		}
	}

	return submission.TransportError{
		DocumentNumber: number,
		Cause: &submission.GatewayError{
			StatusCode: r.StatusCode,
			Message:    firstNonEmpty(r.Message, "authority reply without envelope or errors"),
		},
	}
}

func (in *Interpreter) alreadySubmitted(ctx context.Context, doc document.TaxDocument, issuer company.Company, message string) submission.Outcome {
	number := doc.DocumentNumber()
	rec, err := in.records.FindSubmitted(ctx, doc.Prefix, doc.Number, issuer.IdentificationNumber)
	if errors.Is(err, record.ErrNotFound) {
		in.log.ErrorContext(ctx, "Authority reports a resend but no stored record exists",
			"document_number", number,
			"company", issuer.IdentificationNumber)
		return submission.TransportError{
			DocumentNumber: number,
			Cause:          fmt.Errorf("already submitted but no stored record for %s", number),
		}
	}
	if err != nil {
		return submission.TransportError{
			DocumentNumber: number,
			Cause:          fmt.Errorf("find submitted document %s: %w", number, err),
		}
	}

	qr := rec.QR
	if qr == "" {
		qr = in.qr.Build(doc, issuer.IdentificationNumber, rec.FiscalCode)
	}
	return submission.AlreadySubmitted{
		DocumentNumber: number,
		FiscalCode:     rec.FiscalCode,
		PriorDocument:  rec.SignedDocument,
		QR:             qr,
		FileName:       rec.FileName,
		Message:        message,
		IssuedAt:       issuedAt(rec),
	}
}

func (in *Interpreter) qrFor(doc document.TaxDocument, issuer company.Company, fiscalCode, given string) string {
	if strings.TrimSpace(given) != "" {
		return given
	}
	return in.qr.Build(doc, issuer.IdentificationNumber, fiscalCode)
}

// issuedAt reads the stored issue date and time, falling back to the row creation time.
func issuedAt(rec record.DocumentRecord) time.Time {
	stamp := strings.TrimSpace(rec.IssueDate + " " + rec.IssueTime)
	for _, layout := range []string{time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t
		}
	}
	return rec.CreatedAt
}

func containsAny(messages []string, marker string) bool {
	for _, m := range messages {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
