package submission

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/submission"
)

const (
	acceptanceLayout    = "2006-01-02 15:04:05"
	maxAcceptanceLength = 20
)

// ArtifactBuilder renders outcomes into caller-facing responses.
type ArtifactBuilder struct {
	now func() time.Time
}

func NewArtifactBuilder(now func() time.Time) *ArtifactBuilder {
	if now == nil {
		now = time.Now
	}
	return &ArtifactBuilder{now: now}
}

// Build renders o. Every slice in the result is non-nil.
func (b *ArtifactBuilder) Build(o submission.Outcome) submission.Response {
	switch out := o.(type) {
	case submission.Authorized:
		validation, notification := submission.SplitRules(out.Notifications)
		resp := b.signed(out.DocumentNumber, out.FiscalCode, out.SignedDocument, out.QR, out.FileName, out.AcceptedAt)
		resp.Result = submission.ResultProcessed
		resp.Code = http.StatusOK
		resp.Message = firstNonEmpty(out.Message, "Documento procesado correctamente")
		resp.ValidationMessages = nonNil(out.Notifications)
		resp.NotificationRules = notification
		resp.ValidationRules = validation
		return resp

	case submission.AlreadySubmitted:
		resp := b.signed(out.DocumentNumber, out.FiscalCode, out.PriorDocument, out.QR, out.FileName, out.IssuedAt)
		resp.Result = submission.ResultProcessed
		resp.Code = http.StatusOK
		resp.Message = firstNonEmpty(out.Message, "Documento enviado anteriormente")
		return resp

	case submission.RejectedByRule:
		validation, notification := submission.SplitRules(out.Messages)
		resp := b.signed(out.DocumentNumber, out.FiscalCode, out.SignedDocument, out.QR, out.FileName, out.AcceptedAt)
		resp.Result = submission.ResultError
		resp.Code = http.StatusBadRequest
		resp.Message = joinRules(validation, "Documento rechazado por la regla "+out.RuleCode)
		resp.ValidationMessages = nonNil(out.Messages)
		resp.NotificationRules = notification
		resp.ValidationRules = validation
		return resp

	case submission.ValidationFailed:
		validation, notification := submission.SplitRules(out.Messages)
		resp := empty(out.DocumentNumber)
		resp.Code = http.StatusBadRequest
		resp.AcceptanceDate = b.stamp(time.Time{})
		resp.Message = joinRules(out.Messages, "Documento con errores de validación")
		resp.ValidationMessages = nonNil(out.Messages)
		resp.NotificationRules = notification
		resp.ValidationRules = validation
		return resp

	case submission.TransportError:
		resp := empty(out.DocumentNumber)
		resp.Code = http.StatusBadGateway
		resp.AcceptanceDate = b.stamp(time.Time{})
		resp.Message = "Error de comunicación con la DIAN"
		if out.Cause != nil {
			resp.Message = out.Cause.Error()
		}
		return resp

	case submission.UnsupportedDocumentType:
		resp := empty("")
		resp.Code = http.StatusBadRequest
		resp.AcceptanceDate = b.stamp(time.Time{})
		resp.Message = (&document.UnsupportedTypeError{Value: out.Value, Supported: out.Supported}).Error()
		return resp
	}

	resp := empty("")
	resp.Code = http.StatusInternalServerError
	resp.Message = "unknown submission outcome"
	return resp
}

// signed fills the fields shared by outcomes that carry a signed document.
func (b *ArtifactBuilder) signed(number, fiscalCode string, doc []byte, qr, fileName string, at time.Time) submission.Response {
	resp := empty(number)
	resp.FiscalCode = fiscalCode
	resp.IsValid = true
	resp.AcceptanceDate = b.stamp(at)
	resp.Hash = Hash(doc)
	resp.Name = fileName
	resp.QR = qr
	if len(doc) > 0 {
		resp.Document = base64.StdEncoding.EncodeToString(doc)
	}
	return resp
}

func (b *ArtifactBuilder) stamp(at time.Time) string {
	if at.IsZero() {
		at = b.now()
	}
	s := at.Format(acceptanceLayout)
	if len(s) > maxAcceptanceLength {
		s = s[:maxAcceptanceLength]
	}
	return s
}

// Hash is the hex SHA-384 digest of the signed document, or empty without one.
func Hash(doc []byte) string {
	if len(doc) == 0 {
		return ""
	}
	sum := sha512.Sum384(doc)
	return hex.EncodeToString(sum[:])
}

func empty(number string) submission.Response {
	return submission.Response{
		Result:             submission.ResultError,
		DocumentNumber:     number,
		ValidationMessages: []submission.Rule{},
		NotificationRules:  []submission.Rule{},
		ValidationRules:    []submission.Rule{},
	}
}

func nonNil(rules []submission.Rule) []submission.Rule {
	if rules == nil {
		return []submission.Rule{}
	}
	return rules
}

func joinRules(rules []submission.Rule, fallback string) string {
	if len(rules) == 0 {
		return fallback
	}
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Code != "" {
			parts = append(parts, "Regla "+r.Code+": "+r.Message)
			continue
		}
		parts = append(parts, r.Message)
	}
	return strings.Join(parts, "; ")
}
