package repository

import (
	"context"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// ConfigurationRepository endpoints y credenciales ZATCA por empresa.
type ConfigurationRepository interface {
	GetByCompany(ctx context.Context, companyID string) (*entity.ZatcaConfiguration, error)
	Save(ctx context.Context, cfg *entity.ZatcaConfiguration) error
}
