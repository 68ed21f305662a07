package submission

import (
	"strings"

	"github.com/shopspring/decimal"

	"3tcapital/ms_emision_dian/internal/core/document"
)

// DefaultQRBaseURL is the DIAN document lookup printed in the QR payload.
const DefaultQRBaseURL = "https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey="

const taxIDIVA = 1

// QRBuilder composes the QR text when the authority omits QRStr.
type QRBuilder struct {
	baseURL string
}

func NewQRBuilder(baseURL string) QRBuilder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultQRBaseURL
	}
	return QRBuilder{baseURL: baseURL}
}

// Build lays out the payload the way DIAN prints it on the graphic representation.
func (q QRBuilder) Build(doc document.TaxDocument, issuerNIT, fiscalCode string) string {
	iva, other := decimal.Zero, decimal.Zero
	for _, t := range doc.TaxTotals {
		if t.TaxID == taxIDIVA {
			iva = iva.Add(t.TaxAmount)
			continue
		}
		other = other.Add(t.TaxAmount)
	}

	buyer := ""
	if p := doc.Counterparty(); p != nil {
		buyer = p.IdentificationNumber
	}

	totals := doc.LegalMonetaryTotals
	lines := []string{
		"NumFac: " + doc.DocumentNumber(),
		"FecFac: " + doc.Date,
		"HorFac: " + doc.Time,
		"NitFac: " + issuerNIT,
		"DocAdq: " + buyer,
		"ValFac: " + totals.LineExtensionAmount.StringFixed(2),
		"ValIva: " + iva.StringFixed(2),
		"ValOtroIm: " + other.StringFixed(2),
		"ValTolFac: " + totals.PayableAmount.StringFixed(2),
		"CUFE: " + fiscalCode,
		"QRCode: " + q.baseURL + fiscalCode,
	}
	return strings.Join(lines, "\n")
}
