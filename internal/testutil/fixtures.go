package testutil

import (
	"github.com/shopspring/decimal"

	"3tcapital/ms_emision_dian/internal/core/company"
	"3tcapital/ms_emision_dian/internal/core/source"
)

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SampleCompany is the issuer used across tests.
func SampleCompany() company.Company {
	return company.Company{
		ID:                   7,
		IdentificationNumber: "900123456",
		DV:                   "7",
		Name:                 "EMISOR DE PRUEBAS SAS",
		Credentials:          company.Credentials{APIToken: "api-token-123"},
	}
}

// SampleSource is a one-line invoice at 19% IVA with consistent totals.
func SampleSource() source.Document {
	return source.Document{
		Prefijo:      "SETP",
		Numero:       990000001,
		FechaEmision: "2024-01-19",
		HoraEmision:  "10:00:00",
		Resolucion:   "18760000001",
		Cliente: &source.Party{
			TipoIdentificacion: "31",
			Identificacion:     "800199436",
			DV:                 "5",
			Nombre:             "CLIENTE SAS",
			Direccion:          "Calle 100 # 10-20",
			Municipio:          "11001",
			Telefono:           "6015550000",
			Email:              "facturas@cliente.co",
			TipoOrganizacion:   "1",
			Responsabilidad:    "O-13",
			Regimen:            "48",
		},
		Detalle: source.OneOrMany[source.Line]{{
			Codigo:         "SRV-01",
			Descripcion:    "Servicio de consultoría",
			Cantidad:       Dec("2"),
			Unidad:         "94",
			PrecioUnitario: Dec("500000"),
			Total:          Dec("1000000"),
			Impuestos: source.OneOrMany[source.Tax]{{
				Codigo: "01", Porcentaje: Dec("19"), Base: Dec("1000000"), Valor: Dec("190000"),
			}},
		}},
		Impuestos: source.OneOrMany[source.Tax]{{
			Codigo: "01", Porcentaje: Dec("19"), Base: Dec("1000000"), Valor: Dec("190000"),
		}},
		Pagos: source.OneOrMany[source.Payment]{{FormaPago: "1", MedioPago: "10"}},
		Totales: source.Totals{
			Bruto:             Dec("1000000"),
			BaseImponible:     Dec("1000000"),
			TotalConImpuestos: Dec("1190000"),
			TotalPagar:        Dec("1190000"),
		},
	}
}
