package legacy

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"3tcapital/ms_emision_dian/internal/core/submission"
)

func TestDecode_NoTrimming(t *testing.T) {
	fields := Decode(" a | b||", Delimiter)
	assert.Equal(t, []string{" a ", " b", "", ""}, fields)
}

func TestDecodeHeader_SplitsPrefixAndTimestamp(t *testing.T) {
	h := DecodeHeader("01|SETP-001|2024-01-19 10:00:00|2024-02-19|18760000001|COP")

	assert.Equal(t, "01", h.DocumentType)
	assert.Equal(t, "SETP", h.Prefix)
	assert.Equal(t, "001", h.Number)
	assert.Equal(t, "2024-01-19", h.IssueDate)
	assert.Equal(t, "10:00:00", h.IssueTime)
	assert.Equal(t, "2024-02-19", h.DueDate)
	assert.Equal(t, "COP", h.Currency)
	// Trailing fields the sender omitted are empty, not an error.
	assert.Empty(t, h.Payable)
	assert.Nil(t, h.CopyEmails)
}

func TestSplitDocumentNumber(t *testing.T) {
	tests := []struct {
		in, prefix, number string
	}{
		{"SETP-001", "SETP", "001"},
		{"SETT5608", "SETT", "5608"},
		{"FE-X-10", "FE-X", "10"},
		{"PREFIX", "PREFIX", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			prefix, number := splitDocumentNumber(tt.in)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.number, number)
		})
	}
}

func TestDecodeDetail_UsesDetailDelimiter(t *testing.T) {
	segment := strings.Join([]string{"P-01", "Servicio | mensual", "2", "94", "1000.00", "2000.00", "0", "01", "19", "2000.00", "380.00"}, DetailDelimiter)

	d := DecodeDetail(segment)

	assert.Equal(t, "P-01", d.Code)
	assert.Equal(t, "Servicio | mensual", d.Description)
	assert.Equal(t, "2", d.Quantity)
	assert.Equal(t, "94", d.Unit)
	require.NotNil(t, d.Tax)
	assert.Equal(t, "01", d.Tax.Code)
	assert.Equal(t, "380.00", d.Tax.Amount)
}

func TestDecodeDetail_WithoutTax(t *testing.T) {
	d := DecodeDetail(strings.Join([]string{"P-02", "Bien", "1"}, DetailDelimiter))
	assert.Nil(t, d.Tax)
	assert.Empty(t, d.Unit)
}

func TestToSource(t *testing.T) {
	msg := Message{
		Header:   "01|SETP-001|2024-01-19 10:00:00||18760000001|COP|nota|1000.00|1000.00|1190.00|0|0|1190.00|a@x.co;b@x.co",
		Customer: "31|900123456|7|ACME SAS|Calle 1|11001|3000000|acme@x.co|1|O-13|48|",
		Details: []string{
			strings.Join([]string{"P-01", "Servicio", "1", "94", "1000.00", "1000.00", "0", "01", "19", "1000.00", "190.00"}, DetailDelimiter),
		},
		Taxes:    []string{"01|19|1000.00|190.00"},
		Payments: []string{"1|10||"},
	}

	doc, err := ToSource(msg)
	require.NoError(t, err)

	assert.Equal(t, "01", doc.TipoDocumento)
	assert.Equal(t, "SETP", doc.Prefijo)
	assert.Equal(t, 1, doc.Numero)
	assert.Equal(t, "2024-01-19", doc.FechaEmision)
	assert.Equal(t, "10:00:00", doc.HoraEmision)
	assert.Equal(t, []string{"a@x.co", "b@x.co"}, doc.CorreosCopia)
	require.NotNil(t, doc.Cliente)
	assert.Equal(t, "900123456", doc.Cliente.Identificacion)
	require.Len(t, doc.Detalle, 1)
	require.Len(t, doc.Detalle[0].Impuestos, 1)
	assert.True(t, decimal.RequireFromString("190").Equal(doc.Detalle[0].Impuestos[0].Valor))
	require.Len(t, doc.Impuestos, 1)
	require.Len(t, doc.Pagos, 1)
	assert.Equal(t, "10", doc.Pagos[0].MedioPago)
	assert.Empty(t, doc.Referencias)
	assert.True(t, decimal.RequireFromString("1190").Equal(doc.Totales.TotalPagar))
}

func TestToSource_MissingCustomerLeavesNil(t *testing.T) {
	doc, err := ToSource(Message{Header: "01|SETP-2|2024-01-19 10:00:00"})
	require.NoError(t, err)
	assert.Nil(t, doc.Cliente)
}

func TestToSource_CollectsMalformedAmounts(t *testing.T) {
	_, err := ToSource(Message{
		Header: "01|SETP-2|2024-01-19 10:00:00|||||abc|||||xyz",
	})

	var validation *submission.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Len(t, validation.Messages, 2)
	assert.Contains(t, validation.Messages[0], "totalBruto")
}
