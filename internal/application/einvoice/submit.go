package einvoice

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

// SubmitResult resultado de un envío al portal.
type SubmitResult struct {
	InvoiceID         int64                        `json:"invoice_id"`
	Kind              string                       `json:"kind"`
	HTTPStatus        int                          `json:"http_status"`
	Accepted          bool                         `json:"accepted"`
	Status            string                       `json:"status"` // validationResults.status
	ZatcaStatus       string                       `json:"zatca_status"`
	ClearanceStatus   string                       `json:"clearance_status,omitempty"`
	ReportingStatus   string                       `json:"reporting_status,omitempty"`
	ClearedHash       string                       `json:"cleared_hash,omitempty"`
	ValidationResults []infrazatca.ValidationGroup `json:"validation_results"`
}

// SubmitUseCase envía el XML firmado a compliance, clearance o reporting.
// No reintenta: el resultado del portal se guarda como reporte HTML en la factura.
type SubmitUseCase struct {
	repos     Repos
	submitter infrazatca.Submitter
	canon     *infrazatca.Canonicalizer
	log       *logger.Logger
}

// NewSubmitUseCase construye el caso de uso. repos va atado al pool (sin transacción):
// no se mantiene una transacción abierta durante la llamada HTTP.
func NewSubmitUseCase(repos Repos, submitter infrazatca.Submitter, canon *infrazatca.Canonicalizer, log *logger.Logger) *SubmitUseCase {
	return &SubmitUseCase{repos: repos, submitter: submitter, canon: canon, log: log.WithComponent("submit")}
}

// Submit envía la factura al endpoint del tipo indicado.
//
// Retorna:
//   - domain.ErrInvalidInput   tipo de envío desconocido.
//   - domain.ErrConflict       la factura aún no tiene XML generado.
//   - domain.ErrNotConfigured  faltan URL o credenciales del endpoint.
//   - ErrZatcaServer / ErrZatcaUnauthorized / ErrZatcaAccessDenied del cliente.
func (uc *SubmitUseCase) Submit(ctx context.Context, companyID string, invoiceID int64, kind string) (*SubmitResult, error) {
	switch kind {
	case infrazatca.SubmitCompliance, infrazatca.SubmitClearance, infrazatca.SubmitReporting:
	default:
		return nil, fmt.Errorf("%w: tipo de envío %q (usar compliance, clearance o reporting)", domain.ErrInvalidInput, kind)
	}

	inv, err := loadOwned(ctx, uc.repos.Invoices, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Hash == "" || inv.UUID == "" {
		return nil, fmt.Errorf("%w: genere el XML antes de enviarlo", domain.ErrConflict)
	}
	att, err := uc.repos.Attachments.Get(ctx, inv.ID, entity.AttachmentSignedXML)
	if err != nil {
		return nil, fmt.Errorf("obtener XML: %w", err)
	}
	if att == nil {
		return nil, fmt.Errorf("%w: la factura no tiene XML guardado", domain.ErrConflict)
	}

	cfg, err := uc.repos.Configs.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("obtener configuración ZATCA: %w", err)
	}
	url, creds, err := endpointFor(cfg, kind)
	if err != nil {
		return nil, err
	}

	resp, err := uc.submitter.Submit(ctx, infrazatca.SubmitRequest{
		Kind:        kind,
		URL:         url,
		Username:    creds.BinarySecurityToken,
		Password:    creds.Secret,
		InvoiceHash: inv.Hash,
		UUID:        inv.UUID,
		XML:         att.Data,
	})
	if err != nil {
		uc.log.Error().Err(err).Int64("invoice_id", inv.ID).Str("kind", kind).Msg("envío a ZATCA fallido")
		return nil, err
	}

	report, err := infrazatca.RenderReport(kind, resp)
	if err != nil {
		return nil, err
	}
	inv.SubmissionReport = report
	inv.ZatcaStatus = statusAfter(kind, resp.Accepted())

	if kind == infrazatca.SubmitClearance && resp.ClearedInvoice != "" {
		if err := uc.storeCleared(ctx, inv, resp.ClearedInvoice); err != nil {
			return nil, err
		}
	}

	if err := uc.repos.Invoices.UpdateZatca(ctx, inv); err != nil {
		return nil, fmt.Errorf("actualizar factura: %w", err)
	}

	uc.log.Info().
		Int64("invoice_id", inv.ID).
		Str("company_id", companyID).
		Str("kind", kind).
		Int("http_status", resp.HTTPStatus).
		Str("zatca_status", inv.ZatcaStatus).
		Msg("envío a ZATCA procesado")

	return &SubmitResult{
		InvoiceID:         inv.ID,
		Kind:              kind,
		HTTPStatus:        resp.HTTPStatus,
		Accepted:          resp.Accepted(),
		Status:            resp.Status(),
		ZatcaStatus:       inv.ZatcaStatus,
		ClearanceStatus:   resp.ClearanceStatus,
		ReportingStatus:   resp.ReportingStatus,
		ClearedHash:       inv.ClearedHash,
		ValidationResults: resp.Groups(),
	}, nil
}

// storeCleared decodifica el XML devuelto por clearance, lo guarda y registra su hash
// sin quitar UBLExtensions/QR/Signature (el documento ya viene sellado por ZATCA).
func (uc *SubmitUseCase) storeCleared(ctx context.Context, inv *entity.Invoice, encoded string) error {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return fmt.Errorf("%w: clearedInvoice no es base64: %v", infrazatca.ErrZatcaAccessDenied, err)
	}
	hash, err := uc.canon.HashXML(data, infrazatca.Options{SkipTransform: true})
	if err != nil {
		return fmt.Errorf("hash del XML cleared: %w", err)
	}

	company, err := uc.repos.Companies.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return fmt.Errorf("obtener empresa: %w", err)
	}
	name := fmt.Sprintf("invoice_%d_cleared.xml", inv.ID)
	if company != nil {
		_, _, name = infrazatca.Filenames(company, inv)
	}
	if err := uc.repos.Attachments.Put(ctx, &entity.Attachment{
		InvoiceID: inv.ID, Field: entity.AttachmentClearedXML, Name: name, MimeType: "application/xml", Data: data,
	}); err != nil {
		return fmt.Errorf("guardar XML cleared: %w", err)
	}
	inv.ClearedHash = hash.Base64
	inv.ClearedXMLName = name
	return nil
}

// endpointFor compliance usa el CSID de compliance; clearance y reporting el de producción.
func endpointFor(cfg *entity.ZatcaConfiguration, kind string) (string, entity.Credentials, error) {
	if cfg == nil {
		return "", entity.Credentials{}, fmt.Errorf("%w: la empresa no tiene configuración ZATCA", domain.ErrNotConfigured)
	}
	var url string
	creds := cfg.Production
	switch kind {
	case infrazatca.SubmitCompliance:
		url, creds = cfg.ComplianceURL, cfg.Compliance
	case infrazatca.SubmitClearance:
		url = cfg.ClearanceURL
	case infrazatca.SubmitReporting:
		url = cfg.ReportingURL
	}
	if url == "" {
		return "", creds, fmt.Errorf("%w: falta la URL de %s", domain.ErrNotConfigured, kind)
	}
	if creds.Empty() {
		return "", creds, fmt.Errorf("%w: faltan credenciales (CSID) para %s", domain.ErrNotConfigured, kind)
	}
	return url, creds, nil
}

func statusAfter(kind string, accepted bool) string {
	if !accepted {
		return entity.ZatcaStatusRejected
	}
	switch kind {
	case infrazatca.SubmitClearance:
		return entity.ZatcaStatusCleared
	case infrazatca.SubmitReporting:
		return entity.ZatcaStatusReported
	default:
		return entity.ZatcaStatusComplianceChecked
	}
}
