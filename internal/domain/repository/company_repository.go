package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// CompanyRepository lectura del vendedor.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
