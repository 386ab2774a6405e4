package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.AttachmentStore = (*AttachmentRepo)(nil)

// AttachmentRepo guarda los XML en invoice_attachments (BYTEA), una fila por factura y campo.
type AttachmentRepo struct {
	q Querier
}

// NewAttachmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAttachmentRepository(q Querier) *AttachmentRepo {
	return &AttachmentRepo{q: q}
}

// Put inserta o reemplaza el adjunto del campo.
func (r *AttachmentRepo) Put(ctx context.Context, a *entity.Attachment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.MimeType == "" {
		a.MimeType = "application/xml"
	}
	query := `
		INSERT INTO invoice_attachments (invoice_id, field, name, mime_type, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (invoice_id, field) DO UPDATE
		SET name = EXCLUDED.name, mime_type = EXCLUDED.mime_type, data = EXCLUDED.data, created_at = EXCLUDED.created_at`
	if _, err := r.q.Exec(ctx, query, a.InvoiceID, a.Field, a.Name, a.MimeType, a.Data, a.CreatedAt); err != nil {
		return fmt.Errorf("upsert attachment %s: %w", a.Field, err)
	}
	return nil
}

// Get devuelve (nil, nil) si la factura no tiene ese adjunto.
func (r *AttachmentRepo) Get(ctx context.Context, invoiceID int64, field string) (*entity.Attachment, error) {
	query := `
		SELECT invoice_id, field, name, mime_type, data, created_at
		FROM invoice_attachments WHERE invoice_id = $1 AND field = $2`
	var a entity.Attachment
	err := r.q.QueryRow(ctx, query, invoiceID, field).Scan(&a.InvoiceID, &a.Field, &a.Name, &a.MimeType, &a.Data, &a.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attachment %s: %w", field, err)
	}
	return &a, nil
}
