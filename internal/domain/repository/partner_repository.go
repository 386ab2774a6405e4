package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// PartnerRepository lectura del comprador.
type PartnerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Partner, error)
}
