package einvoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
)

// ArtifactsUseCase lectura de lo generado: estado, XML, ZIP, reporte y PDF.
type ArtifactsUseCase struct {
	repos     Repos
	generator InvoicePDFGenerator
}

// NewArtifactsUseCase generator puede ser nil si no se expone el PDF.
func NewArtifactsUseCase(repos Repos, generator InvoicePDFGenerator) *ArtifactsUseCase {
	return &ArtifactsUseCase{repos: repos, generator: generator}
}

// Status factura con sus campos ZATCA.
func (uc *ArtifactsUseCase) Status(ctx context.Context, companyID string, invoiceID int64) (*entity.Invoice, error) {
	return loadOwned(ctx, uc.repos.Invoices, companyID, invoiceID)
}

// List página de facturas publicadas de la empresa (orden de ID) y el total.
func (uc *ArtifactsUseCase) List(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, int, error) {
	invoices, err := uc.repos.Invoices.ListPosted(ctx, companyID)
	if err != nil {
		return nil, 0, fmt.Errorf("listar facturas: %w", err)
	}
	total := len(invoices)
	if offset >= total {
		return []*entity.Invoice{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return invoices[offset:end], total, nil
}

// Download adjunto del campo pedido (zatca_invoice, zatca_hash_invoice, zatca_cleared_invoice).
func (uc *ArtifactsUseCase) Download(ctx context.Context, companyID string, invoiceID int64, field string) (*entity.Attachment, error) {
	switch field {
	case entity.AttachmentSignedXML, entity.AttachmentHashXML, entity.AttachmentClearedXML:
	default:
		return nil, fmt.Errorf("%w: adjunto %q", domain.ErrInvalidInput, field)
	}
	if _, err := loadOwned(ctx, uc.repos.Invoices, companyID, invoiceID); err != nil {
		return nil, err
	}
	att, err := uc.repos.Attachments.Get(ctx, invoiceID, field)
	if err != nil {
		return nil, fmt.Errorf("obtener adjunto: %w", err)
	}
	if att == nil {
		return nil, fmt.Errorf("%w: la factura no tiene %s", domain.ErrNotFound, field)
	}
	return att, nil
}

// Bundle ZIP con los XML disponibles (firmado, hash y cleared).
func (uc *ArtifactsUseCase) Bundle(ctx context.Context, companyID string, invoiceID int64) ([]byte, string, error) {
	inv, err := loadOwned(ctx, uc.repos.Invoices, companyID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	var entries []infrazatca.ZipEntry
	for _, field := range []string{entity.AttachmentSignedXML, entity.AttachmentHashXML, entity.AttachmentClearedXML} {
		att, err := uc.repos.Attachments.Get(ctx, invoiceID, field)
		if err != nil {
			return nil, "", fmt.Errorf("obtener adjunto: %w", err)
		}
		if att != nil {
			entries = append(entries, infrazatca.ZipEntry{Name: att.Name, Data: att.Data})
		}
	}
	if len(entries) == 0 {
		return nil, "", fmt.Errorf("%w: la factura no tiene XML generado", domain.ErrNotFound)
	}
	data, err := infrazatca.CompressToZip(entries)
	if err != nil {
		return nil, "", err
	}
	name := inv.XMLName
	if name == "" {
		name = entries[0].Name
	}
	return data, infrazatca.BundleName(name), nil
}

// Report tabla HTML del último envío.
func (uc *ArtifactsUseCase) Report(ctx context.Context, companyID string, invoiceID int64) (string, error) {
	inv, err := loadOwned(ctx, uc.repos.Invoices, companyID, invoiceID)
	if err != nil {
		return "", err
	}
	if inv.SubmissionReport == "" {
		return "", fmt.Errorf("%w: la factura no se ha enviado a ZATCA", domain.ErrNotFound)
	}
	return inv.SubmissionReport, nil
}

// PDF representación impresa con el QR. Requiere XML generado.
func (uc *ArtifactsUseCase) PDF(ctx context.Context, companyID string, invoiceID int64) ([]byte, string, error) {
	if uc.generator == nil {
		return nil, "", fmt.Errorf("%w: generador de PDF no disponible", domain.ErrNotConfigured)
	}
	inv, err := loadOwned(ctx, uc.repos.Invoices, companyID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if inv.QRCode == "" {
		return nil, "", fmt.Errorf("%w: genere el XML antes de descargar el PDF", domain.ErrConflict)
	}
	company, err := uc.repos.Companies.GetByID(ctx, inv.CompanyID)
	if err != nil || company == nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", orNotFound(err))
	}
	partner, err := uc.repos.Partners.GetByID(ctx, inv.PartnerID)
	if err != nil || partner == nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", orNotFound(err))
	}
	lines, err := uc.repos.Invoices.GetLines(ctx, inv.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener líneas: %w", err)
	}

	data, err := uc.generator.GenerateInvoicePDF(ctx, PDFData{
		Invoice:        inv,
		Company:        company,
		Partner:        partner,
		Totals:         domzatca.ComputeTotals(inv, lines),
		Classification: domzatca.Classify(inv, lines),
	})
	if err != nil {
		return nil, "", err
	}
	name := strings.TrimSuffix(inv.XMLName, ".xml")
	if name == "" {
		name = fmt.Sprintf("invoice_%d", inv.ID)
	}
	return data, name + ".pdf", nil
}

func orNotFound(err error) error {
	if err != nil {
		return err
	}
	return domain.ErrNotFound
}
