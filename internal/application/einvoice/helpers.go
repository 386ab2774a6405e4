package einvoice

import (
	"context"
	"fmt"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

// loadOwned carga la factura y verifica que pertenezca a la empresa del token.
func loadOwned(ctx context.Context, invoices repository.InvoiceRepository, companyID string, invoiceID int64) (*entity.Invoice, error) {
	inv, err := invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}
