package document

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the closed set of document kinds the pipeline can emit.
type Kind int

const (
	KindInvoice Kind = iota + 1
	KindCreditNote
	KindSupportDocument
	KindSupportCreditNote
)

// AllKinds returns every supported kind in registration order.
func AllKinds() []Kind {
	return []Kind{KindInvoice, KindCreditNote, KindSupportDocument, KindSupportCreditNote}
}

// Code returns the DIAN document type code ("01", "91", ...).
func (k Kind) Code() string {
	switch k {
	case KindInvoice:
		return "01"
	case KindCreditNote:
		return "91"
	case KindSupportDocument:
		return "05"
	case KindSupportCreditNote:
		return "95"
	}
	return ""
}

// TypeDocumentID returns the numeric identifier the authority expects in the payload.
func (k Kind) TypeDocumentID() int {
	switch k {
	case KindInvoice:
		return 1
	case KindCreditNote:
		return 4
	case KindSupportDocument:
		return 11
	case KindSupportCreditNote:
		return 13
	}
	return 0
}

// Endpoint is the authority path segment used to submit this kind.
func (k Kind) Endpoint() string {
	switch k {
	case KindInvoice:
		return "invoice"
	case KindCreditNote:
		return "credit-note"
	case KindSupportDocument:
		return "support-document"
	case KindSupportCreditNote:
		return "sd-credit-note"
	}
	return ""
}

// FiscalCodeField is the JSON key the authority uses for the unique code of this kind.
func (k Kind) FiscalCodeField() string {
	switch k {
	case KindInvoice:
		return "cufe"
	case KindCreditNote:
		return "cude"
	case KindSupportDocument, KindSupportCreditNote:
		return "cuds"
	}
	return ""
}

// IsCreditNote reports whether the kind carries a billing reference.
func (k Kind) IsCreditNote() bool {
	return k == KindCreditNote || k == KindSupportCreditNote
}

// IsSupport reports whether the kind is a support document (counterparty is the seller).
func (k Kind) IsSupport() bool {
	return k == KindSupportDocument || k == KindSupportCreditNote
}

func (k Kind) String() string {
	switch k {
	case KindInvoice:
		return "invoice"
	case KindCreditNote:
		return "credit_note"
	case KindSupportDocument:
		return "support_document"
	case KindSupportCreditNote:
		return "support_credit_note"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// SupportedCodes lists the known document type codes, sorted.
func SupportedCodes() []string {
	codes := make([]string, 0, len(AllKinds()))
	for _, k := range AllKinds() {
		codes = append(codes, k.Code())
	}
	sort.Strings(codes)
	return codes
}

// ParseKind resolves a DIAN document type code.
func ParseKind(code string) (Kind, error) {
	trimmed := strings.TrimSpace(code)
	for _, k := range AllKinds() {
		if k.Code() == trimmed {
			return k, nil
		}
	}
	return 0, &UnsupportedTypeError{Value: trimmed, Supported: SupportedCodes()}
}

// KindFromTypeID resolves the numeric typeDocumentId used by the registry.
func KindFromTypeID(id int) (Kind, error) {
	for _, k := range AllKinds() {
		if k.TypeDocumentID() == id {
			return k, nil
		}
	}
	supported := make([]string, 0, len(AllKinds()))
	for _, k := range AllKinds() {
		supported = append(supported, fmt.Sprintf("%d", k.TypeDocumentID()))
	}
	return 0, &UnsupportedTypeError{Value: fmt.Sprintf("%d", id), Supported: supported}
}

// UnsupportedTypeError is returned for document types outside the closed set.
type UnsupportedTypeError struct {
	Value     string
	Supported []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("Tipo de documento no soportado: %s (soportados: %s)", e.Value, strings.Join(e.Supported, ", "))
}
