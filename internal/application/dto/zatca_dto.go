package dto

import (
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// CSIDRequest body para POST /api/zatca/onboarding/compliance y /renew.
// CSR en base64 (tal como lo genera openssl), OTP del portal Fatoora y, opcional,
// la llave privada PEM con la que se generó el CSR.
type CSIDRequest struct {
	CSR        string `json:"csr"`
	OTP        string `json:"otp"`
	PrivateKey string `json:"private_key,omitempty"`
}

// CredentialsResponse CSID sin el secret.
type CredentialsResponse struct {
	RequestID  string `json:"request_id,omitempty"`
	Configured bool   `json:"configured"`
}

// ZatcaConfigurationResponse estado del onboarding de la empresa.
type ZatcaConfigurationResponse struct {
	CompanyID      string              `json:"company_id"`
	Compliance     CredentialsResponse `json:"compliance"`
	Production     CredentialsResponse `json:"production"`
	HasCertificate bool                `json:"has_certificate"`
	HasPrivateKey  bool                `json:"has_private_key"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewZatcaConfigurationResponse nunca expone token, secret ni llave.
func NewZatcaConfigurationResponse(cfg *entity.ZatcaConfiguration) ZatcaConfigurationResponse {
	creds := func(c entity.Credentials) CredentialsResponse {
		return CredentialsResponse{RequestID: c.RequestID, Configured: !c.Empty()}
	}
	return ZatcaConfigurationResponse{
		CompanyID:      cfg.CompanyID,
		Compliance:     creds(cfg.Compliance),
		Production:     creds(cfg.Production),
		HasCertificate: cfg.Certificate != "",
		HasPrivateKey:  cfg.PrivateKey != "",
		UpdatedAt:      cfg.UpdatedAt,
	}
}

// InvoiceZatcaResponse campos ZATCA de una factura (GET /api/zatca/invoices/:id).
type InvoiceZatcaResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	State          string    `json:"state"`
	ZatcaStatus    string    `json:"zatca_status"`
	UUID           string    `json:"uuid,omitempty"`
	ICV            int64     `json:"icv,omitempty"`
	PIH            string    `json:"pih,omitempty"`
	Hash           string    `json:"hash,omitempty"`
	ClearedHash    string    `json:"cleared_hash,omitempty"`
	QRCode         string    `json:"qr_code,omitempty"`
	XMLName        string    `json:"xml_name,omitempty"`
	HashXMLName    string    `json:"hash_xml_name,omitempty"`
	ClearedXMLName string    `json:"cleared_xml_name,omitempty"`
	Submitted      bool      `json:"submitted"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewInvoiceZatcaResponse estado vacío se muestra como PENDING.
func NewInvoiceZatcaResponse(inv *entity.Invoice) InvoiceZatcaResponse {
	status := inv.ZatcaStatus
	if status == "" {
		status = entity.ZatcaStatusPending
	}
	return InvoiceZatcaResponse{
		ID:             inv.ID,
		Name:           inv.DocumentID(),
		State:          inv.State,
		ZatcaStatus:    status,
		UUID:           inv.UUID,
		ICV:            inv.ICV,
		PIH:            inv.PIH,
		Hash:           inv.Hash,
		ClearedHash:    inv.ClearedHash,
		QRCode:         inv.QRCode,
		XMLName:        inv.XMLName,
		HashXMLName:    inv.HashXMLName,
		ClearedXMLName: inv.ClearedXMLName,
		Submitted:      inv.SubmissionReport != "",
		UpdatedAt:      inv.UpdatedAt,
	}
}

// InvoiceListResponse página de facturas con su estado ZATCA.
type InvoiceListResponse struct {
	Items []InvoiceZatcaResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}
