// Package einvoice orquesta el ciclo ZATCA de una factura: generación encadenada (ICV + PIH),
// firma, envío al portal, onboarding del CSID, verificación de la cadena y descarga de artefactos.
package einvoice

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	pkgzatca "github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// Repos repositorios de un mismo alcance (pool o transacción).
type Repos struct {
	Invoices    repository.InvoiceRepository
	Companies   repository.CompanyRepository
	Partners    repository.PartnerRepository
	Attachments repository.AttachmentStore
	Configs     repository.ConfigurationRepository
	Counter     repository.ICVCounter
}

// ChainTxRunner ejecuta fn en una transacción con un único escritor por empresa:
// el siguiente ICV y la lectura de la factura anterior no pueden intercalarse.
type ChainTxRunner interface {
	RunChain(ctx context.Context, companyID string, fn func(r Repos) error) error
}

// MaterialSource resuelve el CSID con el que se firma. Material vacío (sin certificado)
// significa que el documento se genera sin firma.
type MaterialSource interface {
	Material(cfg *entity.ZatcaConfiguration) (pkgzatca.SigningMaterial, error)
}

// PDFData datos ya calculados para la representación impresa.
type PDFData struct {
	Invoice        *entity.Invoice
	Company        *entity.Company
	Partner        *entity.Partner
	Totals         domzatca.Totals
	Classification domzatca.Classification
}

// InvoicePDFGenerator genera el PDF con el QR de la factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, data PDFData) ([]byte, error)
}
