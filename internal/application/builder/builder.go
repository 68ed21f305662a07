// Package builder turns structured source documents into canonical tax documents,
// one builder per document kind.
package builder

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"3tcapital/ms_emision_dian/internal/core/catalog"
	"3tcapital/ms_emision_dian/internal/core/document"
	"3tcapital/ms_emision_dian/internal/core/source"
	"3tcapital/ms_emision_dian/internal/core/submission"
)

// Authority defaults used when the sender leaves a value out.
const (
	DefaultUnitMeasureID       = 70 // "94" unidad
	DefaultPaymentFormID       = 1  // contado
	DefaultPaymentMethodID     = 10 // efectivo
	standardItemIdentification = 4  // 999, estándar de adopción del contribuyente
	transmissionPerOperation   = 1
	defaultIssueTime           = "00:00:00"
)

// CodeResolver is the catalog lookup used while building.
type CodeResolver interface {
	ResolveCode(ctx context.Context, domain catalog.Domain, code string) (int, error)
	ResolveOrDefault(ctx context.Context, domain catalog.Domain, code string, def int) (int, error)
}

// Builder produces the canonical document for one kind.
type Builder interface {
	Kind() document.Kind
	Build(ctx context.Context, src source.Document) (document.TaxDocument, error)
}

// common holds the mapping shared by every kind.
type common struct {
	kind     document.Kind
	resolver CodeResolver
}

func (c common) Kind() document.Kind {
	return c.kind
}

// base maps header, counterparty, lines, taxes, payments and totals.
// Kind-specific builders place the party and add their own sections.
func (c common) base(ctx context.Context, src source.Document) (document.TaxDocument, *document.Party, error) {
	if src.Cliente == nil {
		return document.TaxDocument{}, nil, submission.NewValidationError("customer is required")
	}
	if len(src.Detalle) == 0 {
		return document.TaxDocument{}, nil, submission.NewValidationError("at least one line is required")
	}
	if strings.TrimSpace(src.FechaEmision) == "" {
		return document.TaxDocument{}, nil, submission.NewValidationError("issue date is required")
	}

	issueTime := strings.TrimSpace(src.HoraEmision)
	if issueTime == "" {
		issueTime = defaultIssueTime
	}

	doc := document.TaxDocument{
		Number:           src.Numero,
		Prefix:           strings.TrimSpace(src.Prefijo),
		TypeDocumentID:   c.kind.TypeDocumentID(),
		Date:             strings.TrimSpace(src.FechaEmision),
		Time:             issueTime,
		ResolutionNumber: strings.TrimSpace(src.Resolucion),
		Notes:            src.Observaciones,
	}
	for _, email := range src.CorreosCopia {
		if e := strings.TrimSpace(email); e != "" {
			doc.EmailCcList = append(doc.EmailCcList, document.Email{Email: e})
		}
	}

	party, err := c.party(ctx, src.Cliente)
	if err != nil {
		return document.TaxDocument{}, nil, err
	}

	if doc.Lines, err = c.lines(ctx, src.Detalle); err != nil {
		return document.TaxDocument{}, nil, err
	}

	if len(src.Impuestos) > 0 {
		if doc.TaxTotals, err = c.taxTotals(ctx, src.Impuestos); err != nil {
			return document.TaxDocument{}, nil, err
		}
	} else {
		doc.TaxTotals = aggregateLineTaxes(doc.Lines)
	}

	if doc.PaymentForm, err = c.payments(ctx, src.Pagos); err != nil {
		return document.TaxDocument{}, nil, err
	}

	doc.LegalMonetaryTotals = totals(src.Totales)
	return doc, party, nil
}

func (c common) party(ctx context.Context, p *source.Party) (*document.Party, error) {
	if strings.TrimSpace(p.Identificacion) == "" {
		return nil, submission.NewValidationError("customer identification is required")
	}

	identificationType, err := c.resolver.ResolveCode(ctx, catalog.DomainIdentification, p.TipoIdentificacion)
	if err != nil {
		return nil, err
	}
	organization, err := c.resolver.ResolveCode(ctx, catalog.DomainOrganization, p.TipoOrganizacion)
	if err != nil {
		return nil, err
	}

	party := &document.Party{
		IdentificationNumber:         strings.TrimSpace(p.Identificacion),
		DV:                           strings.TrimSpace(p.DV),
		Name:                         strings.TrimSpace(p.Nombre),
		Phone:                        strings.TrimSpace(p.Telefono),
		Address:                      strings.TrimSpace(p.Direccion),
		Email:                        strings.TrimSpace(p.Email),
		MerchantRegistration:         strings.TrimSpace(p.MatriculaMercantil),
		TypeDocumentIdentificationID: identificationType,
		TypeOrganizationID:           organization,
	}

	// Liability, regime and municipality are optional for foreign or natural persons.
	if strings.TrimSpace(p.Responsabilidad) != "" {
		if party.TypeLiabilityID, err = c.resolver.ResolveCode(ctx, catalog.DomainLiability, p.Responsabilidad); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(p.Regimen) != "" {
		if party.TypeRegimeID, err = c.resolver.ResolveCode(ctx, catalog.DomainRegime, p.Regimen); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(p.Municipio) != "" {
		if party.MunicipalityID, err = c.resolver.ResolveCode(ctx, catalog.DomainMunicipality, p.Municipio); err != nil {
			return nil, err
		}
	}
	return party, nil
}

func (c common) lines(ctx context.Context, src []source.Line) ([]document.Line, error) {
	lines := make([]document.Line, 0, len(src))
	for i, l := range src {
		unit, err := c.resolver.ResolveOrDefault(ctx, catalog.DomainUnit, l.Unidad, DefaultUnitMeasureID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		lineExtension := money(l.Total)
		line := document.Line{
			UnitMeasureID:            unit,
			InvoicedQuantity:         l.Cantidad,
			LineExtensionAmount:      lineExtension,
			FreeOfChargeIndicator:    l.Gratuito,
			Description:              strings.TrimSpace(l.Descripcion),
			Code:                     strings.TrimSpace(l.Codigo),
			TypeItemIdentificationID: standardItemIdentification,
			PriceAmount:              reconcilePrice(money(l.PrecioUnitario), l.Cantidad, lineExtension),
			BaseQuantity:             l.Cantidad,
		}

		if l.Descuento.IsPositive() {
			discount := money(l.Descuento)
			line.AllowanceCharges = []document.AllowanceCharge{{
				ChargeIndicator:       false,
				AllowanceChargeReason: "Descuento",
				Amount:                discount,
				BaseAmount:            lineExtension.Add(discount),
			}}
		}

		if len(l.Impuestos) > 0 {
			if line.TaxTotals, err = c.taxTotals(ctx, l.Impuestos); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (c common) taxTotals(ctx context.Context, src []source.Tax) ([]document.TaxTotal, error) {
	out := make([]document.TaxTotal, 0, len(src))
	for _, t := range src {
		id, err := c.resolver.ResolveCode(ctx, catalog.DomainTax, t.Codigo)
		if err != nil {
			return nil, err
		}
		out = append(out, document.TaxTotal{
			TaxID:         id,
			TaxAmount:     money(t.Valor),
			Percent:       money(t.Porcentaje),
			TaxableAmount: money(t.Base),
		})
	}
	return out, nil
}

func (c common) payments(ctx context.Context, src []source.Payment) ([]document.PaymentForm, error) {
	if len(src) == 0 {
		return []document.PaymentForm{{PaymentFormID: DefaultPaymentFormID, PaymentMethodID: DefaultPaymentMethodID}}, nil
	}
	out := make([]document.PaymentForm, 0, len(src))
	for _, p := range src {
		form, err := c.resolver.ResolveOrDefault(ctx, catalog.DomainPaymentForm, p.FormaPago, DefaultPaymentFormID)
		if err != nil {
			return nil, err
		}
		method, err := c.resolver.ResolveOrDefault(ctx, catalog.DomainPaymentMethod, p.MedioPago, DefaultPaymentMethodID)
		if err != nil {
			return nil, err
		}
		out = append(out, document.PaymentForm{
			PaymentFormID:   form,
			PaymentMethodID: method,
			PaymentDueDate:  strings.TrimSpace(p.FechaVencimiento),
			DurationMeasure: strings.TrimSpace(p.Plazo),
		})
	}
	return out, nil
}

// billingReference maps the first reference; exactly one is expected.
func (c common) billingReference(ctx context.Context, doc *document.TaxDocument, refs []source.Reference) error {
	if len(refs) == 0 {
		return submission.NewValidationError("billing reference is required")
	}
	ref := refs[0]
	doc.BillingReference = &document.BillingReference{
		Number:    strings.TrimSpace(ref.Numero),
		UUID:      strings.TrimSpace(ref.Cufe),
		IssueDate: strings.TrimSpace(ref.FechaEmision),
	}
	if strings.TrimSpace(ref.ConceptoCorreccion) != "" {
		code, err := c.resolver.ResolveCode(ctx, catalog.DomainCorrectionConcept, ref.ConceptoCorreccion)
		if err != nil {
			return err
		}
		doc.DiscrepancyResponseCode = code
		doc.DiscrepancyResponseDescription = strings.TrimSpace(ref.DescripcionCorreccion)
	}
	return nil
}

// totals takes the sender's totals as-is; they are not recomputed from lines.
func totals(t source.Totals) document.MonetaryTotals {
	return document.MonetaryTotals{
		LineExtensionAmount:  money(t.Bruto),
		TaxExclusiveAmount:   money(t.BaseImponible),
		TaxInclusiveAmount:   money(t.TotalConImpuestos),
		AllowanceTotalAmount: money(t.Descuentos),
		ChargeTotalAmount:    money(t.Cargos),
		PayableAmount:        money(t.TotalPagar),
	}
}

// aggregateLineTaxes groups line taxes by tax id and percent when the sender
// did not send document-level taxes.
func aggregateLineTaxes(lines []document.Line) []document.TaxTotal {
	type key struct {
		id      int
		percent string
	}
	grouped := make(map[key]*document.TaxTotal)
	var order []key
	for _, l := range lines {
		for _, t := range l.TaxTotals {
			k := key{id: t.TaxID, percent: t.Percent.StringFixed(2)}
			agg, ok := grouped[k]
			if !ok {
				agg = &document.TaxTotal{TaxID: t.TaxID, Percent: t.Percent, TaxAmount: decimal.Zero, TaxableAmount: decimal.Zero}
				grouped[k] = agg
				order = append(order, k)
			}
			agg.TaxAmount = agg.TaxAmount.Add(t.TaxAmount)
			agg.TaxableAmount = agg.TaxableAmount.Add(t.TaxableAmount)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].id < order[j].id })

	out := make([]document.TaxTotal, 0, len(order))
	for _, k := range order {
		out = append(out, *grouped[k])
	}
	return out
}

func validated(doc document.TaxDocument) (document.TaxDocument, error) {
	if err := doc.Validate(); err != nil {
		return document.TaxDocument{}, submission.NewValidationError(err.Error())
	}
	return doc, nil
}
