package builder

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/source"
)

// SupportDocumentBuilder builds support documents (code 05) and, with a
// reference, their adjustment notes (code 95).
type SupportDocumentBuilder struct {
	common
	log *slog.Logger
}

func NewSupportDocumentBuilder(resolver CodeResolver, log *slog.Logger) *SupportDocumentBuilder {
	return &SupportDocumentBuilder{common: common{kind: document.KindSupportDocument, resolver: resolver}, log: log}
}

func NewSupportCreditNoteBuilder(resolver CodeResolver, log *slog.Logger) *SupportDocumentBuilder {
	return &SupportDocumentBuilder{common: common{kind: document.KindSupportCreditNote, resolver: resolver}, log: log}
}

func (b *SupportDocumentBuilder) Build(ctx context.Context, src source.Document) (document.TaxDocument, error) {
	doc, party, err := b.base(ctx, src)
	if err != nil {
		return document.TaxDocument{}, err
	}
	doc.Seller = party

	if len(src.Retenciones) > 0 {
		if doc.WithholdingTaxTotals, err = b.taxTotals(ctx, src.Retenciones); err != nil {
			return document.TaxDocument{}, err
		}
	}

	for i := range doc.Lines {
		doc.Lines[i].TypeGenerationTransmitionID = transmissionPerOperation
		doc.Lines[i].StartDate = doc.Date
	}

	if b.kind.IsCreditNote() {
		if err := b.billingReference(ctx, &doc, src.Referencias); err != nil {
			return document.TaxDocument{}, err
		}
	}

	if removed, ok := reconcileZeroRate(&doc); ok {
		b.log.WarnContext(ctx, "zero-rate tax removed from line",
			"prefix", doc.Prefix,
			"number", doc.Number,
			"line", removed.line+1,
			"amount", removed.amount.StringFixed(2),
			"tax_exclusive_adjusted", removed.adjustedTotals,
		)
	}
	return validated(doc)
}

type zeroRateFix struct {
	line           int
	amount         decimal.Decimal
	adjustedTotals bool
}

// reconcileZeroRate compares the 0% taxable amounts reported per line with the
// document-level 0% taxable amount. When they differ, the 0% entry of the line
// whose amount equals the difference is dropped; if the line is left without
// taxes, the tax-exclusive total is lowered by the same amount.
func reconcileZeroRate(doc *document.TaxDocument) (zeroRateFix, bool) {
	documentZero := decimal.Zero
	for _, t := range doc.TaxTotals {
		if t.IsZeroRate() {
			documentZero = documentZero.Add(t.TaxableAmount)
		}
	}
	linesZero := decimal.Zero
	for _, l := range doc.Lines {
		linesZero = linesZero.Add(l.ZeroRateTaxable())
	}

	discrepancy := money(linesZero.Sub(documentZero))
	if discrepancy.IsZero() {
		return zeroRateFix{}, false
	}

	for i := range doc.Lines {
		line := &doc.Lines[i]
		lineZero := line.ZeroRateTaxable()
		if lineZero.IsZero() || !money(lineZero).Equal(discrepancy) {
			continue
		}

		kept := make([]document.TaxTotal, 0, len(line.TaxTotals))
		for _, t := range line.TaxTotals {
			if !t.IsZeroRate() {
				kept = append(kept, t)
			}
		}

		fix := zeroRateFix{line: i, amount: discrepancy}
		if len(kept) == 0 {
			line.TaxTotals = nil
			totals := &doc.LegalMonetaryTotals
			totals.TaxExclusiveAmount = money(totals.TaxExclusiveAmount.Sub(discrepancy))
			fix.adjustedTotals = true
		} else {
			line.TaxTotals = kept
		}
		return fix, true
	}
	return zeroRateFix{}, false
}
