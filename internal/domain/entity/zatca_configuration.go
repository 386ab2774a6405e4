package entity

import "time"

// Credentials binarySecurityToken + secret devueltos por el portal (CSID).
type Credentials struct {
	BinarySecurityToken string
	Secret              string
	RequestID           string
}

// Empty true si falta el token o el secret.
func (c Credentials) Empty() bool {
	return c.BinarySecurityToken == "" || c.Secret == ""
}

// ZatcaConfiguration endpoints y credenciales ZATCA por empresa.
type ZatcaConfiguration struct {
	CompanyID            string
	ComplianceURL        string // /compliance/invoices
	ComplianceInvoiceURL string // /compliance (CSID de compliance)
	ClearanceURL         string // /invoices/clearance/single
	ReportingURL         string // /invoices/reporting/single
	ProductionURL        string // /production/csids
	Compliance           Credentials
	Production           Credentials
	Certificate          string // Certificado X.509 en base64 (si no se carga desde archivo)
	PrivateKey           string // Llave privada PEM
	UpdatedAt            time.Time
}
