package legacy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"3tcapital/ms_emision_dian/internal/core/source"
	"3tcapital/ms_emision_dian/internal/core/submission"
)

// Message groups the raw segments of one legacy submission.
type Message struct {
	Header      string
	Customer    string
	Details     []string
	Taxes       []string
	Withholding []string
	Payments    []string
	References  []string
}

// ToSource decodes every segment and maps the result into the structured model.
// Malformed amounts are validation errors; absent fields stay empty.
func ToSource(msg Message) (source.Document, error) {
	h := DecodeHeader(msg.Header)

	doc := source.Document{
		TipoDocumento:    h.DocumentType,
		Prefijo:          h.Prefix,
		FechaEmision:     h.IssueDate,
		HoraEmision:      h.IssueTime,
		FechaVencimiento: h.DueDate,
		Resolucion:       h.Resolution,
		Moneda:           h.Currency,
		Observaciones:    h.Notes,
		CorreosCopia:     h.CopyEmails,
		Detalle:          source.OneOrMany[source.Line]{},
		Impuestos:        source.OneOrMany[source.Tax]{},
		Retenciones:      source.OneOrMany[source.Tax]{},
		Pagos:            source.OneOrMany[source.Payment]{},
		Referencias:      source.OneOrMany[source.Reference]{},
	}

	if h.Number != "" {
		n, err := strconv.Atoi(strings.TrimSpace(h.Number))
		if err != nil {
			return source.Document{}, submission.NewValidationError(fmt.Sprintf("invalid document number: %s", h.Number))
		}
		doc.Numero = n
	}

	p := amountParser{}
	doc.Totales = source.Totals{
		Bruto:             p.parse("totalBruto", h.LineExtension),
		BaseImponible:     p.parse("baseImponible", h.TaxExclusive),
		TotalConImpuestos: p.parse("totalConImpuestos", h.TaxInclusive),
		Descuentos:        p.parse("descuentos", h.Allowances),
		Cargos:            p.parse("cargos", h.Charges),
		TotalPagar:        p.parse("totalPagar", h.Payable),
	}

	if strings.TrimSpace(msg.Customer) != "" {
		c := DecodeCustomer(msg.Customer)
		doc.Cliente = &source.Party{
			TipoIdentificacion: c.IdentificationType,
			Identificacion:     c.Identification,
			DV:                 c.DV,
			Nombre:             c.Name,
			Direccion:          c.Address,
			Municipio:          c.Municipality,
			Telefono:           c.Phone,
			Email:              c.Email,
			TipoOrganizacion:   c.OrganizationType,
			Responsabilidad:    c.Liability,
			Regimen:            c.Regime,
			MatriculaMercantil: c.MerchantRegistration,
		}
	}

	for _, segment := range msg.Details {
		d := DecodeDetail(segment)
		line := source.Line{
			Codigo:         d.Code,
			Descripcion:    d.Description,
			Cantidad:       p.parse("cantidad", d.Quantity),
			Unidad:         d.Unit,
			PrecioUnitario: p.parse("precioUnitario", d.UnitPrice),
			Total:          p.parse("total", d.Total),
			Descuento:      p.parse("descuento", d.Discount),
			Impuestos:      source.OneOrMany[source.Tax]{},
		}
		if d.Tax != nil {
			line.Impuestos = append(line.Impuestos, p.tax(*d.Tax))
		}
		doc.Detalle = append(doc.Detalle, line)
	}

	for _, segment := range msg.Taxes {
		doc.Impuestos = append(doc.Impuestos, p.tax(DecodeTax(segment)))
	}
	for _, segment := range msg.Withholding {
		doc.Retenciones = append(doc.Retenciones, p.tax(DecodeTax(segment)))
	}
	for _, segment := range msg.Payments {
		pay := DecodePayment(segment)
		doc.Pagos = append(doc.Pagos, source.Payment{
			FormaPago:        pay.Form,
			MedioPago:        pay.Method,
			FechaVencimiento: pay.DueDate,
			Plazo:            pay.Duration,
		})
	}
	for _, segment := range msg.References {
		ref := DecodeReference(segment)
		doc.Referencias = append(doc.Referencias, source.Reference{
			Numero:                ref.Number,
			Cufe:                  ref.FiscalCode,
			FechaEmision:          ref.IssueDate,
			ConceptoCorreccion:    ref.CorrectionConcept,
			DescripcionCorreccion: ref.CorrectionDescription,
		})
	}

	if len(p.errs) > 0 {
		return source.Document{}, submission.NewValidationError(p.errs...)
	}
	return doc, nil
}

// amountParser collects every malformed amount instead of stopping at the first.
type amountParser struct {
	errs []string
}

func (p *amountParser) parse(field, value string) decimal.Decimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("invalid amount for %s: %s", field, value))
		return decimal.Zero
	}
	return d
}

func (p *amountParser) tax(t Tax) source.Tax {
	return source.Tax{
		Codigo:     t.Code,
		Porcentaje: p.parse("porcentaje", t.Percent),
		Base:       p.parse("base", t.Base),
		Valor:      p.parse("valor", t.Amount),
	}
}
