package einvoice

import (
	"context"
	"fmt"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
)

// ChainReport resultado de verificar la cadena PIH de una empresa.
type ChainReport struct {
	CompanyID string                `json:"company_id"`
	Checked   int                   `json:"checked"`
	Valid     bool                  `json:"valid"`
	Issues    []domzatca.ChainIssue `json:"issues"`
}

// ChainUseCase recorre las facturas publicadas en orden de ID y comprueba los eslabones.
type ChainUseCase struct {
	repos Repos
	canon *infrazatca.Canonicalizer
}

// NewChainUseCase construye el verificador.
func NewChainUseCase(repos Repos, canon *infrazatca.Canonicalizer) *ChainUseCase {
	return &ChainUseCase{repos: repos, canon: canon}
}

// Verify recalcula cada hash desde el XML de hash guardado y valida pih(n) == hash(n-1).
// Los PIH iniciales a mitad de cadena se reportan como advertencia.
func (uc *ChainUseCase) Verify(ctx context.Context, companyID string) (*ChainReport, error) {
	invoices, err := uc.repos.Invoices.ListPosted(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}

	links := make([]domzatca.ChainLink, 0, len(invoices))
	var readIssues []domzatca.ChainIssue
	for _, inv := range invoices {
		link := domzatca.ChainLink{InvoiceID: inv.ID, PIH: inv.PIH, Hash: inv.Hash}
		if inv.Hash != "" {
			recomputed, err := uc.recompute(ctx, inv.ID)
			if err != nil {
				readIssues = append(readIssues, domzatca.ChainIssue{
					InvoiceID: inv.ID, Severity: domzatca.SeverityError, Message: err.Error(),
				})
			}
			link.Recomputed = recomputed
		}
		links = append(links, link)
	}

	issues := append(readIssues, domzatca.VerifyLinks(links)...)
	return &ChainReport{
		CompanyID: companyID,
		Checked:   len(invoices),
		Valid:     !domzatca.HasErrors(issues),
		Issues:    issues,
	}, nil
}

func (uc *ChainUseCase) recompute(ctx context.Context, invoiceID int64) (string, error) {
	att, err := uc.repos.Attachments.Get(ctx, invoiceID, entity.AttachmentHashXML)
	if err != nil {
		return "", fmt.Errorf("leer XML de hash: %w", err)
	}
	if att == nil {
		return "", fmt.Errorf("falta el XML de hash de la factura")
	}
	res, err := uc.canon.HashXML(att.Data, infrazatca.Options{})
	if err != nil {
		return "", fmt.Errorf("recalcular hash: %w", err)
	}
	return res.Base64, nil
}
