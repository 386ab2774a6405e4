package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID obtiene el vendedor con su dirección nacional.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, vat, license_scheme, license_no, currency,
		       street, street2, building_no, additional_no, district, city, zip, state, country_code,
		       created_at, updated_at
		FROM companies WHERE id = $1`
	var c entity.Company
	a := &c.Address
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.VAT, &c.LicenseScheme, &c.LicenseNo, &c.Currency,
		&a.Street, &a.Street2, &a.BuildingNo, &a.AdditionalNo, &a.District, &a.City, &a.Zip, &a.State, &a.CountryCode,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
