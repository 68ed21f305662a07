package builder

import (
	"log/slog"

	"3tcapital/ms_emision_dian/internal/core/document"
)

// Factory selects the builder for a document type code.
type Factory struct {
	resolver CodeResolver
	log      *slog.Logger
}

func NewFactory(resolver CodeResolver, log *slog.Logger) *Factory {
	return &Factory{resolver: resolver, log: log}
}

// Builder returns the builder for code. Unknown codes fail with the list of
// supported codes; there is no default.
func (f *Factory) Builder(code string) (Builder, error) {
	kind, err := document.ParseKind(code)
	if err != nil {
		return nil, err
	}
	return f.ForKind(kind)
}

// ForKind returns the builder for kind.
func (f *Factory) ForKind(kind document.Kind) (Builder, error) {
	switch kind {
	case document.KindInvoice:
		return NewInvoiceBuilder(f.resolver), nil
	case document.KindCreditNote:
		return NewCreditNoteBuilder(f.resolver), nil
	case document.KindSupportDocument:
		return NewSupportDocumentBuilder(f.resolver, f.log), nil
	case document.KindSupportCreditNote:
		return NewSupportCreditNoteBuilder(f.resolver, f.log), nil
	}
	return nil, &document.UnsupportedTypeError{Value: kind.String(), Supported: document.SupportedCodes()}
}
