package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.PartnerRepository = (*PartnerRepo)(nil)

// PartnerRepo lectura de compradores.
type PartnerRepo struct {
	q Querier
}

// NewPartnerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPartnerRepository(q Querier) *PartnerRepo {
	return &PartnerRepo{q: q}
}

// GetByID obtiene el comprador; (nil, nil) si no existe.
func (r *PartnerRepo) GetByID(ctx context.Context, id string) (*entity.Partner, error) {
	query := `
		SELECT id, company_id, name, vat, identification_id, id_scheme,
		       street, street2, building_no, additional_no, district, city, zip, state, country_code,
		       created_at, updated_at
		FROM partners WHERE id = $1`
	var p entity.Partner
	a := &p.Address
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.VAT, &p.IdentificationID, &p.IDScheme,
		&a.Street, &a.Street2, &a.BuildingNo, &a.AdditionalNo, &a.District, &a.City, &a.Zip, &a.State, &a.CountryCode,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return &p, nil
}
