// Package zatca arma el documento UBL 2.1 de ZATCA (Arabia Saudita), calcula el hash
// canónico, el QR TLV y se comunica con los endpoints de compliance, clearance y reporting.
package zatca

import (
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
)

// InvoiceBuildContext contexto con todos los datos necesarios para construir el XML de la factura.
type InvoiceBuildContext struct {
	Invoice  *entity.Invoice
	Company  *entity.Company // Vendedor (AccountingSupplierParty)
	Partner  *entity.Partner // Comprador (AccountingCustomerParty)
	Lines    []*entity.InvoiceLine
	Original *entity.Invoice // Factura referenciada por notas (BillingReference)

	Totals         domzatca.Totals
	Classification domzatca.Classification

	ICV int64  // KSA-16
	PIH string // KSA-13

	// Signed agrega el placeholder UBLExtensions, la referencia QR y cac:Signature.
	Signed bool
}

// NewInvoiceBuildContext calcula totales y clasificación a partir de la factura y sus líneas.
func NewInvoiceBuildContext(inv *entity.Invoice, company *entity.Company, partner *entity.Partner,
	lines []*entity.InvoiceLine, original *entity.Invoice) *InvoiceBuildContext {
	return &InvoiceBuildContext{
		Invoice:        inv,
		Company:        company,
		Partner:        partner,
		Lines:          lines,
		Original:       original,
		Totals:         domzatca.ComputeTotals(inv, lines),
		Classification: domzatca.Classify(inv, lines),
	}
}
