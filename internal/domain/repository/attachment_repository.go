package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// AttachmentStore guarda los XML generados por factura y campo.
// Put reemplaza el adjunto existente del mismo campo.
type AttachmentStore interface {
	Put(ctx context.Context, a *entity.Attachment) error
	Get(ctx context.Context, invoiceID int64, field string) (*entity.Attachment, error)
}
