package builder

import (
	"context"

	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/source"
)

// InvoiceBuilder builds sales invoices (code 01).
type InvoiceBuilder struct {
	common
}

func NewInvoiceBuilder(resolver CodeResolver) *InvoiceBuilder {
	return &InvoiceBuilder{common{kind: document.KindInvoice, resolver: resolver}}
}

func (b *InvoiceBuilder) Build(ctx context.Context, src source.Document) (document.TaxDocument, error) {
	doc, party, err := b.base(ctx, src)
	if err != nil {
		return document.TaxDocument{}, err
	}
	doc.Customer = party
	return validated(doc)
}

// CreditNoteBuilder builds credit notes (code 91) referencing an invoice.
type CreditNoteBuilder struct {
	common
}

func NewCreditNoteBuilder(resolver CodeResolver) *CreditNoteBuilder {
	return &CreditNoteBuilder{common{kind: document.KindCreditNote, resolver: resolver}}
}

func (b *CreditNoteBuilder) Build(ctx context.Context, src source.Document) (document.TaxDocument, error) {
	doc, party, err := b.base(ctx, src)
	if err != nil {
		return document.TaxDocument{}, err
	}
	doc.Customer = party
	if err := b.billingReference(ctx, &doc, src.Referencias); err != nil {
		return document.TaxDocument{}, err
	}
	return validated(doc)
}
