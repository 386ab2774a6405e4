package einvoice

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.AttachmentStore = (*StagedAttachments)(nil)

// StagedAttachments retiene los Put sobre un almacén sin transacción (S3) hasta Flush.
// Get ve primero lo retenido. Si la cadena falla no se llama Flush y el almacén no cambia.
type StagedAttachments struct {
	store   repository.AttachmentStore
	mu      sync.Mutex
	pending []*entity.Attachment
}

// NewStagedAttachments envuelve store.
func NewStagedAttachments(store repository.AttachmentStore) *StagedAttachments {
	return &StagedAttachments{store: store}
}

func (s *StagedAttachments) Put(_ context.Context, a *entity.Attachment) error {
	cp := *a
	cp.Data = append([]byte(nil), a.Data...)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p.InvoiceID == cp.InvoiceID && p.Field == cp.Field {
			s.pending[i] = &cp
			return nil
		}
	}
	s.pending = append(s.pending, &cp)
	return nil
}

func (s *StagedAttachments) Get(ctx context.Context, invoiceID int64, field string) (*entity.Attachment, error) {
	s.mu.Lock()
	for _, p := range s.pending {
		if p.InvoiceID == invoiceID && p.Field == field {
			cp := *p
			s.mu.Unlock()
			return &cp, nil
		}
	}
	s.mu.Unlock()
	return s.store.Get(ctx, invoiceID, field)
}

// Flush escribe lo retenido en el almacén real. Llamar solo tras el commit.
func (s *StagedAttachments) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, a := range pending {
		if err := s.store.Put(ctx, a); err != nil {
			return fmt.Errorf("guardar adjunto %s de la factura %d: %w", a.Field, a.InvoiceID, err)
		}
	}
	return nil
}
