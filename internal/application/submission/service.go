package submission

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/submission"
	"3tcapital/ms_emision_dian/internal/infrastructure/metrics"
)

// Service is the entry point used by the REST and SOAP handlers.
type Service struct {
	registry  *Registry
	artifacts *ArtifactBuilder
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewService(registry *Registry, artifacts *ArtifactBuilder, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{registry: registry, artifacts: artifacts, metrics: m, log: log}
}

// Submit processes req as typeDocumentID. It always returns a response.
func (s *Service) Submit(ctx context.Context, typeDocumentID int, req Request) submission.Response {
	processor, err := s.registry.Lookup(typeDocumentID)
	if err != nil {
		s.log.WarnContext(ctx, "Unsupported document type", "type_document_id", typeDocumentID)
		return s.finish("unknown", submission.Classify(req.Document.DocumentNumber(), err))
	}
	return s.finish(processor.Kind().String(), processor.Process(ctx, req))
}

// SubmitPath processes req for a typeDocumentId taken verbatim from a URL.
// A non-numeric value is reported as an unsupported type.
func (s *Service) SubmitPath(ctx context.Context, rawTypeID string, req Request) submission.Response {
	id, err := strconv.Atoi(strings.TrimSpace(rawTypeID))
	if err != nil {
		s.log.WarnContext(ctx, "Unsupported document type", "type_document_id", rawTypeID)
		return s.Reject(req.Document.DocumentNumber(), &document.UnsupportedTypeError{
			Value:     rawTypeID,
			Supported: s.registry.SupportedIDs(),
		})
	}
	return s.Submit(ctx, id, req)
}

// SubmitCode processes req for a DIAN document type code such as "01".
func (s *Service) SubmitCode(ctx context.Context, code string, req Request) submission.Response {
	kind, err := document.ParseKind(code)
	if err != nil {
		s.log.WarnContext(ctx, "Unsupported document type code", "code", code)
		return s.finish("unknown", submission.Classify(req.Document.DocumentNumber(), err))
	}
	return s.Submit(ctx, kind.TypeDocumentID(), req)
}

// Reject renders err as the response of a request that never reached a processor.
func (s *Service) Reject(documentNumber string, err error) submission.Response {
	return s.finish("unknown", submission.Classify(documentNumber, err))
}

func (s *Service) finish(kind string, outcome submission.Outcome) submission.Response {
	s.metrics.ObserveSubmission(kind, outcomeLabel(outcome))
	return s.artifacts.Build(outcome)
}

func outcomeLabel(o submission.Outcome) string {
	switch o.(type) {
	case submission.Authorized:
		return "authorized"
	case submission.AlreadySubmitted:
		return "already_submitted"
	case submission.RejectedByRule:
		return "rejected_by_rule"
	case submission.ValidationFailed:
		return "validation_failed"
	case submission.TransportError:
		return "transport_error"
	case submission.UnsupportedDocumentType:
		return "unsupported_type"
	}
	return "unknown"
}
