package entity

import "github.com/shopspring/decimal"

// InvoiceLine representa una línea de la factura.
type InvoiceLine struct {
	ID            int64
	InvoiceID     int64
	Sequence      int
	ProductName   string
	Barcode       string // Identificación estándar del ítem (opcional)
	BarcodeScheme string // GTIN, UPC...
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal // Porcentaje 0-100
	TaxCategory   string          // S, Z, E, O (vacío = O)
	TaxPercent    decimal.Decimal
	ExemptionCode string // VATEX-SA-*
	ExemptionText string
}
