package legacy

// Ordered field lists, one per segment type.
var (
	HeaderFields = []string{
		"tipoDocumento",
		"numeroDocumento",
		"fechaEmision",
		"fechaVencimiento",
		"resolucion",
		"moneda",
		"observaciones",
		"totalBruto",
		"baseImponible",
		"totalConImpuestos",
		"descuentos",
		"cargos",
		"totalPagar",
		"correosCopia",
	}

	CustomerFields = []string{
		"tipoIdentificacion",
		"identificacion",
		"dv",
		"nombre",
		"direccion",
		"municipio",
		"telefono",
		"email",
		"tipoOrganizacion",
		"responsabilidad",
		"regimen",
		"matriculaMercantil",
	}

	DetailFields = []string{
		"codigo",
		"descripcion",
		"cantidad",
		"unidad",
		"precioUnitario",
		"total",
		"descuento",
		"impuestoCodigo",
		"impuestoPorcentaje",
		"impuestoBase",
		"impuestoValor",
	}

	TaxFields = []string{
		"codigo",
		"porcentaje",
		"base",
		"valor",
	}

	PaymentFields = []string{
		"formaPago",
		"medioPago",
		"fechaVencimiento",
		"plazo",
	}

	ReferenceFields = []string{
		"numero",
		"cufe",
		"fechaEmision",
		"conceptoCorreccion",
		"descripcionCorreccion",
	}
)
