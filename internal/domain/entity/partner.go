package entity

import "time"

// Partner representa al comprador (AccountingCustomerParty).
type Partner struct {
	ID               string
	CompanyID        string
	Name             string
	VAT              string // Opcional; se omite en exportaciones
	IdentificationID string // Número según el esquema (NAT, CRN, TIN...)
	IDScheme         string
	Address          Address
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
