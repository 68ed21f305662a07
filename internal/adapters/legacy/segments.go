package legacy

import (
	"strings"
)

// Header is the document header segment.
type Header struct {
	DocumentType  string
	Prefix        string
	Number        string
	IssueDate     string
	IssueTime     string
	DueDate       string
	Resolution    string
	Currency      string
	Notes         string
	LineExtension string
	TaxExclusive  string
	TaxInclusive  string
	Allowances    string
	Charges       string
	Payable       string
	CopyEmails    []string
}

type Customer struct {
	IdentificationType   string
	Identification       string
	DV                   string
	Name                 string
	Address              string
	Municipality         string
	Phone                string
	Email                string
	OrganizationType     string
	Liability            string
	Regime               string
	MerchantRegistration string
}

type Detail struct {
	Code        string
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Total       string
	Discount    string
	Tax         *Tax
}

type Tax struct {
	Code    string
	Percent string
	Base    string
	Amount  string
}

type Payment struct {
	Form     string
	Method   string
	DueDate  string
	Duration string
}

type Reference struct {
	Number                string
	FiscalCode            string
	IssueDate             string
	CorrectionConcept     string
	CorrectionDescription string
}

// DecodeHeader decodes "tipo|PREFIJO-NUMERO|YYYY-MM-DD HH:MM:SS|...".
func DecodeHeader(segment string) Header {
	f := decodeWith(segment, Delimiter, HeaderFields)
	prefix, number := splitDocumentNumber(f.get("numeroDocumento"))
	date, clock := splitTimestamp(f.get("fechaEmision"))
	return Header{
		DocumentType:  strings.TrimSpace(f.get("tipoDocumento")),
		Prefix:        prefix,
		Number:        number,
		IssueDate:     date,
		IssueTime:     clock,
		DueDate:       f.get("fechaVencimiento"),
		Resolution:    f.get("resolucion"),
		Currency:      f.get("moneda"),
		Notes:         f.get("observaciones"),
		LineExtension: f.get("totalBruto"),
		TaxExclusive:  f.get("baseImponible"),
		TaxInclusive:  f.get("totalConImpuestos"),
		Allowances:    f.get("descuentos"),
		Charges:       f.get("cargos"),
		Payable:       f.get("totalPagar"),
		CopyEmails:    splitList(f.get("correosCopia")),
	}
}

func DecodeCustomer(segment string) Customer {
	f := decodeWith(segment, Delimiter, CustomerFields)
	return Customer{
		IdentificationType:   f.get("tipoIdentificacion"),
		Identification:       f.get("identificacion"),
		DV:                   f.get("dv"),
		Name:                 f.get("nombre"),
		Address:              f.get("direccion"),
		Municipality:         f.get("municipio"),
		Phone:                f.get("telefono"),
		Email:                f.get("email"),
		OrganizationType:     f.get("tipoOrganizacion"),
		Liability:            f.get("responsabilidad"),
		Regime:               f.get("regimen"),
		MerchantRegistration: f.get("matriculaMercantil"),
	}
}

// DecodeDetail decodes a line-detail segment, which uses DetailDelimiter.
func DecodeDetail(segment string) Detail {
	f := decodeWith(segment, DetailDelimiter, DetailFields)
	d := Detail{
		Code:        f.get("codigo"),
		Description: f.get("descripcion"),
		Quantity:    f.get("cantidad"),
		Unit:        f.get("unidad"),
		UnitPrice:   f.get("precioUnitario"),
		Total:       f.get("total"),
		Discount:    f.get("descuento"),
	}
	if code := f.get("impuestoCodigo"); code != "" {
		d.Tax = &Tax{
			Code:    code,
			Percent: f.get("impuestoPorcentaje"),
			Base:    f.get("impuestoBase"),
			Amount:  f.get("impuestoValor"),
		}
	}
	return d
}

func DecodeTax(segment string) Tax {
	f := decodeWith(segment, Delimiter, TaxFields)
	return Tax{
		Code:    f.get("codigo"),
		Percent: f.get("porcentaje"),
		Base:    f.get("base"),
		Amount:  f.get("valor"),
	}
}

func DecodePayment(segment string) Payment {
	f := decodeWith(segment, Delimiter, PaymentFields)
	return Payment{
		Form:     f.get("formaPago"),
		Method:   f.get("medioPago"),
		DueDate:  f.get("fechaVencimiento"),
		Duration: f.get("plazo"),
	}
}

func DecodeReference(segment string) Reference {
	f := decodeWith(segment, Delimiter, ReferenceFields)
	return Reference{
		Number:                f.get("numero"),
		FiscalCode:            f.get("cufe"),
		IssueDate:             f.get("fechaEmision"),
		CorrectionConcept:     f.get("conceptoCorreccion"),
		CorrectionDescription: f.get("descripcionCorreccion"),
	}
}

// splitDocumentNumber turns "SETP-001" or "SETP001" into ("SETP", "001").
func splitDocumentNumber(value string) (prefix, number string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if i := strings.LastIndex(value, "-"); i >= 0 {
		return value[:i], value[i+1:]
	}
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			return value[:i], value[i:]
		}
	}
	return value, ""
}

// splitTimestamp turns "2024-01-19 10:00:00" (or with a T separator) into date and time.
func splitTimestamp(value string) (date, clock string) {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, " T"); i >= 0 {
		return value[:i], strings.TrimSpace(value[i+1:])
	}
	return value, ""
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
