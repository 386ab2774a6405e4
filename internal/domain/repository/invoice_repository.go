package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
// Los Get* devuelven (nil, nil) cuando el registro no existe.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	GetLines(ctx context.Context, invoiceID int64) ([]*entity.InvoiceLine, error)

	// GetPreviousPosted devuelve la factura publicada de la misma empresa con el mayor ID
	// estrictamente menor que id. Es el eslabón anterior de la cadena PIH.
	GetPreviousPosted(ctx context.Context, companyID string, id int64) (*entity.Invoice, error)

	// GetNextPosted devuelve la factura publicada de la misma empresa con el menor ID
	// estrictamente mayor que id (la que encadena el hash de id).
	GetNextPosted(ctx context.Context, companyID string, id int64) (*entity.Invoice, error)

	// ListPosted lista las facturas publicadas de la empresa en orden de ID (para verificar la cadena).
	ListPosted(ctx context.Context, companyID string) ([]*entity.Invoice, error)

	// UpdateZatca persiste los campos ZATCA (uuid, icv, pih, hash, qr, estado, nombres de archivo, reporte).
	UpdateZatca(ctx context.Context, invoice *entity.Invoice) error
}
