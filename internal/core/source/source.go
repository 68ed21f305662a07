// Package source holds the structured inbound document shared by the REST and
// legacy entry points before it is turned into a canonical tax document.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// OneOrMany decodes a JSON value that may be a single object or an array of them.
// After decoding it is always a plain slice; null and absent values are empty.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = OneOrMany[T]{}
		return nil
	}
	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		if many == nil {
			many = []T{}
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*o = OneOrMany[T]{one}
	return nil
}

// First returns the first element, if any.
func (o OneOrMany[T]) First() (T, bool) {
	var zero T
	if len(o) == 0 {
		return zero, false
	}
	return o[0], true
}

// Document is an inbound tax document in the sender's structure.
type Document struct {
	TipoDocumento    string `json:"tipoDocumento,omitempty"`
	Prefijo          string `json:"prefijo"`
	Numero           int    `json:"numero"`
	FechaEmision     string `json:"fechaEmision"`
	HoraEmision      string `json:"horaEmision"`
	FechaVencimiento string `json:"fechaVencimiento,omitempty"`
	Resolucion       string `json:"resolucion,omitempty"`
	Moneda           string `json:"moneda,omitempty"`
	Observaciones    string `json:"observaciones,omitempty"`

	Cliente     *Party               `json:"cliente"`
	Detalle     OneOrMany[Line]      `json:"detalle"`
	Impuestos   OneOrMany[Tax]       `json:"impuestos"`
	Retenciones OneOrMany[Tax]       `json:"retenciones"`
	Pagos       OneOrMany[Payment]   `json:"pagos"`
	Referencias OneOrMany[Reference] `json:"referencias"`
	Totales     Totals               `json:"totales"`

	CorreosCopia []string `json:"correosCopia,omitempty"`
}

// DocumentNumber is the prefix and number joined, or empty when no number was sent.
func (d Document) DocumentNumber() string {
	if d.Numero == 0 {
		return d.Prefijo
	}
	return fmt.Sprintf("%s%d", d.Prefijo, d.Numero)
}

type Party struct {
	TipoIdentificacion string `json:"tipoIdentificacion"`
	Identificacion     string `json:"identificacion"`
	DV                 string `json:"dv"`
	Nombre             string `json:"nombre"`
	Direccion          string `json:"direccion"`
	Municipio          string `json:"municipio"`
	Telefono           string `json:"telefono"`
	Email              string `json:"email"`
	TipoOrganizacion   string `json:"tipoOrganizacion"`
	Responsabilidad    string `json:"responsabilidad"`
	Regimen            string `json:"regimen"`
	MatriculaMercantil string `json:"matriculaMercantil"`
}

type Line struct {
	Codigo         string          `json:"codigo"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	Unidad         string          `json:"unidad"`
	PrecioUnitario decimal.Decimal `json:"precioUnitario"`
	Total          decimal.Decimal `json:"total"`
	Descuento      decimal.Decimal `json:"descuento"`
	Gratuito       bool            `json:"gratuito,omitempty"`
	Impuestos      OneOrMany[Tax]  `json:"impuestos"`
}

type Tax struct {
	Codigo     string          `json:"codigo"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
	Base       decimal.Decimal `json:"base"`
	Valor      decimal.Decimal `json:"valor"`
}

type Payment struct {
	FormaPago        string `json:"formaPago"`
	MedioPago        string `json:"medioPago"`
	FechaVencimiento string `json:"fechaVencimiento"`
	Plazo            string `json:"plazo"`
}

type Reference struct {
	Numero                string `json:"numero"`
	Cufe                  string `json:"cufe"`
	FechaEmision          string `json:"fechaEmision"`
	ConceptoCorreccion    string `json:"conceptoCorreccion"`
	DescripcionCorreccion string `json:"descripcionCorreccion"`
}

type Totals struct {
	Bruto             decimal.Decimal `json:"bruto"`
	BaseImponible     decimal.Decimal `json:"baseImponible"`
	TotalConImpuestos decimal.Decimal `json:"totalConImpuestos"`
	Descuentos        decimal.Decimal `json:"descuentos"`
	Cargos            decimal.Decimal `json:"cargos"`
	TotalPagar        decimal.Decimal `json:"totalPagar"`
}
