package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.ConfigurationRepository = (*ConfigurationRepo)(nil)

// ConfigurationRepo endpoints y CSID por empresa.
type ConfigurationRepo struct {
	q Querier
}

// NewConfigurationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConfigurationRepository(q Querier) *ConfigurationRepo {
	return &ConfigurationRepo{q: q}
}

// GetByCompany (nil, nil) si la empresa aún no tiene configuración.
func (r *ConfigurationRepo) GetByCompany(ctx context.Context, companyID string) (*entity.ZatcaConfiguration, error) {
	query := `
		SELECT company_id, compliance_url, compliance_invoice_url, clearance_url, reporting_url, production_url,
		       compliance_token, compliance_secret, compliance_request_id,
		       production_token, production_secret, production_request_id,
		       certificate, private_key, updated_at
		FROM zatca_configurations WHERE company_id = $1`
	var c entity.ZatcaConfiguration
	err := r.q.QueryRow(ctx, query, companyID).Scan(
		&c.CompanyID, &c.ComplianceURL, &c.ComplianceInvoiceURL, &c.ClearanceURL, &c.ReportingURL, &c.ProductionURL,
		&c.Compliance.BinarySecurityToken, &c.Compliance.Secret, &c.Compliance.RequestID,
		&c.Production.BinarySecurityToken, &c.Production.Secret, &c.Production.RequestID,
		&c.Certificate, &c.PrivateKey, &c.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get zatca configuration: %w", err)
	}
	return &c, nil
}

// Save inserta o reemplaza la configuración completa de la empresa.
func (r *ConfigurationRepo) Save(ctx context.Context, c *entity.ZatcaConfiguration) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO zatca_configurations (
			company_id, compliance_url, compliance_invoice_url, clearance_url, reporting_url, production_url,
			compliance_token, compliance_secret, compliance_request_id,
			production_token, production_secret, production_request_id,
			certificate, private_key, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (company_id) DO UPDATE SET
			compliance_url = EXCLUDED.compliance_url,
			compliance_invoice_url = EXCLUDED.compliance_invoice_url,
			clearance_url = EXCLUDED.clearance_url,
			reporting_url = EXCLUDED.reporting_url,
			production_url = EXCLUDED.production_url,
			compliance_token = EXCLUDED.compliance_token,
			compliance_secret = EXCLUDED.compliance_secret,
			compliance_request_id = EXCLUDED.compliance_request_id,
			production_token = EXCLUDED.production_token,
			production_secret = EXCLUDED.production_secret,
			production_request_id = EXCLUDED.production_request_id,
			certificate = EXCLUDED.certificate,
			private_key = EXCLUDED.private_key,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		c.CompanyID, c.ComplianceURL, c.ComplianceInvoiceURL, c.ClearanceURL, c.ReportingURL, c.ProductionURL,
		c.Compliance.BinarySecurityToken, c.Compliance.Secret, c.Compliance.RequestID,
		c.Production.BinarySecurityToken, c.Production.Secret, c.Production.RequestID,
		c.Certificate, c.PrivateKey, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save zatca configuration: %w", err)
	}
	return nil
}
