package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"3tcapital/ms_emision_dian/internal/application/builder"
	"3tcapital/ms_emision_dian/internal/core/company"
	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/record"
	"3tcapital/ms_emision_dian/internal/core/source"
	"3tcapital/ms_emision_dian/internal/core/submission"
	"3tcapital/ms_emision_dian/internal/infrastructure/metrics"
)

// Request is one inbound submission: the caller's company token and its document.
type Request struct {
	Token    string          `json:"token"`
	Document source.Document `json:"documento"`
}

// Gateway submits canonical documents to the authority.
type Gateway interface {
	Submit(ctx context.Context, kind document.Kind, doc document.TaxDocument, creds company.Credentials) (submission.AuthorityResponse, error)
}

// Processor runs the whole pipeline for one document kind.
type Processor interface {
	Kind() document.Kind
	Process(ctx context.Context, req Request) submission.Outcome
}

// Dependencies are the collaborators shared by every processor.
type Dependencies struct {
	Companies   company.Directory
	Gateway     Gateway
	Records     record.Repository
	Interpreter *Interpreter
	Metrics     *metrics.Metrics
	Log         *slog.Logger
	Now         func() time.Time
}

type pipeline struct {
	builder builder.Builder
	deps    Dependencies
}

// NewProcessor wires b into the submission pipeline.
func NewProcessor(b builder.Builder, deps Dependencies) Processor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &pipeline{builder: b, deps: deps}
}

func (p *pipeline) Kind() document.Kind {
	return p.builder.Kind()
}

func (p *pipeline) Process(ctx context.Context, req Request) submission.Outcome {
	number := req.Document.DocumentNumber()
	log := p.deps.Log.With("kind", p.Kind().String(), "document_number", number)

	issuer, err := p.issuer(ctx, req.Token)
	if err != nil {
		log.WarnContext(ctx, "Company lookup failed", "error", err)
		return submission.Classify(number, err)
	}

	doc, err := p.builder.Build(ctx, req.Document)
	if err != nil {
		log.WarnContext(ctx, "Document could not be built", "error", err)
		return submission.Classify(number, err)
	}

	resp, err := p.deps.Gateway.Submit(ctx, p.Kind(), doc, issuer.Credentials)
	if err != nil {
		log.ErrorContext(ctx, "Document submission failed", "error", err)
		return submission.Classify(doc.DocumentNumber(), err)
	}

	outcome := p.deps.Interpreter.Interpret(ctx, doc, issuer, resp)
	switch out := outcome.(type) {
	case submission.Authorized:
		log.InfoContext(ctx, "Document authorized", "fiscal_code", out.FiscalCode)
		p.save(ctx, log, doc, issuer, out.FiscalCode, out.SignedDocument, out.QR, out.FileName)
	case submission.RejectedByRule:
		p.save(ctx, log, doc, issuer, out.FiscalCode, out.SignedDocument, out.QR, out.FileName)
	case submission.ValidationFailed:
		log.WarnContext(ctx, "Document rejected by authority validation", "messages", len(out.Messages))
	case submission.AlreadySubmitted:
		log.InfoContext(ctx, "Document was already submitted", "fiscal_code", out.FiscalCode)
	case submission.TransportError:
		log.ErrorContext(ctx, "Authority reply could not be used", "error", out.Cause)
	}
	return outcome
}

func (p *pipeline) issuer(ctx context.Context, token string) (company.Company, error) {
	if strings.TrimSpace(token) == "" {
		return company.Company{}, submission.NewValidationError("token is required")
	}
	c, err := p.deps.Companies.LookupCompany(ctx, token)
	if errors.Is(err, company.ErrNotFound) {
		return company.Company{}, submission.NewValidationError("company not found")
	}
	if err != nil {
		return company.Company{}, fmt.Errorf("lookup company: %w", err)
	}
	return c, nil
}

// save stores the signed document for resend detection. A failure is logged
// and counted but never changes the outcome.
func (p *pipeline) save(ctx context.Context, log *slog.Logger, doc document.TaxDocument, issuer company.Company, fiscalCode string, signed []byte, qr, fileName string) {
	rec := record.DocumentRecord{
		ID:                    uuid.New(),
		CompanyID:             issuer.ID,
		CompanyIdentification: issuer.IdentificationNumber,
		TypeDocumentID:        doc.TypeDocumentID,
		Prefix:                doc.Prefix,
		Number:                doc.Number,
		FiscalCode:            fiscalCode,
		IssueDate:             doc.Date,
		IssueTime:             doc.Time,
		PayableAmount:         doc.LegalMonetaryTotals.PayableAmount,
		SignedDocument:        signed,
		QR:                    qr,
		FileName:              fileName,
		IsValid:               true,
		CreatedAt:             p.deps.Now(),
	}
	if err := p.deps.Records.Save(context.WithoutCancel(ctx), rec); err != nil {
		p.deps.Metrics.IncrementRecordSaveFailures()
		log.ErrorContext(ctx, "Failed to store submitted document", "fiscal_code", fiscalCode, "error", err)
	}
}
