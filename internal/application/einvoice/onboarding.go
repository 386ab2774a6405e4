package einvoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

// OnboardingUseCase obtiene y renueva el CSID de la empresa. El CSR y su llave se
// generan fuera (openssl); aquí solo se intercambian con el portal.
type OnboardingUseCase struct {
	configs repository.ConfigurationRepository
	client  infrazatca.Onboarder
	baseURL string
	log     *logger.Logger
}

// NewOnboardingUseCase baseURL es ZATCA_BASE_URL (sin /compliance ni /production/csids).
func NewOnboardingUseCase(configs repository.ConfigurationRepository, client infrazatca.Onboarder, baseURL string, log *logger.Logger) *OnboardingUseCase {
	return &OnboardingUseCase{configs: configs, client: client, baseURL: baseURL, log: log.WithComponent("onboarding")}
}

// CSIDRequest CSR en base64, OTP del portal Fatoora y, opcional, la llave PEM del CSR.
type CSIDRequest struct {
	CSR        string
	OTP        string
	PrivateKey string
}

// RequestComplianceCSID POST /compliance. Guarda token, secret y requestID de compliance;
// el token pasa a ser el certificado con el que se firman las facturas de prueba.
func (uc *OnboardingUseCase) RequestComplianceCSID(ctx context.Context, companyID string, req CSIDRequest) (*entity.ZatcaConfiguration, error) {
	if strings.TrimSpace(req.CSR) == "" || strings.TrimSpace(req.OTP) == "" {
		return nil, fmt.Errorf("%w: csr y otp son requeridos", domain.ErrInvalidInput)
	}
	cfg, err := uc.load(ctx, companyID, true)
	if err != nil {
		return nil, err
	}
	resp, err := uc.client.ComplianceCSID(ctx, uc.baseURL, req.CSR, req.OTP)
	if err != nil {
		return nil, err
	}
	cfg.Compliance = credentialsFrom(resp)
	cfg.Certificate = resp.BinarySecurityToken
	if req.PrivateKey != "" {
		cfg.PrivateKey = req.PrivateKey
	}
	return uc.save(ctx, cfg, "compliance")
}

// RequestProductionCSID POST /production/csids con el requestID de compliance.
func (uc *OnboardingUseCase) RequestProductionCSID(ctx context.Context, companyID string) (*entity.ZatcaConfiguration, error) {
	cfg, err := uc.load(ctx, companyID, false)
	if err != nil {
		return nil, err
	}
	if cfg.Compliance.Empty() || cfg.Compliance.RequestID == "" {
		return nil, fmt.Errorf("%w: solicite primero el CSID de compliance", domain.ErrNotConfigured)
	}
	resp, err := uc.client.ProductionCSID(ctx, uc.baseURL,
		cfg.Compliance.BinarySecurityToken, cfg.Compliance.Secret, cfg.Compliance.RequestID)
	if err != nil {
		return nil, err
	}
	cfg.Production = credentialsFrom(resp)
	cfg.Certificate = resp.BinarySecurityToken
	return uc.save(ctx, cfg, "production")
}

// RenewProductionCSID renueva el CSID de producción con un CSR nuevo.
func (uc *OnboardingUseCase) RenewProductionCSID(ctx context.Context, companyID string, req CSIDRequest) (*entity.ZatcaConfiguration, error) {
	if strings.TrimSpace(req.CSR) == "" || strings.TrimSpace(req.OTP) == "" {
		return nil, fmt.Errorf("%w: csr y otp son requeridos", domain.ErrInvalidInput)
	}
	cfg, err := uc.load(ctx, companyID, false)
	if err != nil {
		return nil, err
	}
	if cfg.Production.Empty() {
		return nil, fmt.Errorf("%w: no hay CSID de producción que renovar", domain.ErrNotConfigured)
	}
	resp, err := uc.client.RenewProductionCSID(ctx, uc.baseURL,
		cfg.Production.BinarySecurityToken, cfg.Production.Secret, req.CSR, req.OTP)
	if err != nil {
		return nil, err
	}
	cfg.Production = credentialsFrom(resp)
	cfg.Certificate = resp.BinarySecurityToken
	if req.PrivateKey != "" {
		cfg.PrivateKey = req.PrivateKey
	}
	return uc.save(ctx, cfg, "renew")
}

func (uc *OnboardingUseCase) load(ctx context.Context, companyID string, create bool) (*entity.ZatcaConfiguration, error) {
	cfg, err := uc.configs.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("obtener configuración ZATCA: %w", err)
	}
	if cfg == nil {
		if !create {
			return nil, fmt.Errorf("%w: la empresa no tiene configuración ZATCA", domain.ErrNotConfigured)
		}
		cfg = &entity.ZatcaConfiguration{CompanyID: companyID}
	}
	return cfg, nil
}

func (uc *OnboardingUseCase) save(ctx context.Context, cfg *entity.ZatcaConfiguration, step string) (*entity.ZatcaConfiguration, error) {
	if err := uc.configs.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("guardar configuración ZATCA: %w", err)
	}
	uc.log.Info().Str("company_id", cfg.CompanyID).Str("step", step).Msg("CSID actualizado")
	return cfg, nil
}

func credentialsFrom(resp *infrazatca.CSIDResponse) entity.Credentials {
	return entity.Credentials{
		BinarySecurityToken: resp.BinarySecurityToken,
		Secret:              resp.Secret,
		RequestID:           resp.RequestID.String(),
	}
}
