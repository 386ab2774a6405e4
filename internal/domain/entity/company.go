package entity

import "time"

// Address dirección nacional saudí (National Address).
type Address struct {
	Street       string
	Street2      string
	BuildingNo   string // 4 dígitos
	AdditionalNo string // Plot identification, 4 dígitos
	District     string
	City         string
	Zip          string // 5 dígitos
	State        string
	CountryCode  string // ISO 3166-1 alfa-2
}

// Company representa al vendedor (AccountingSupplierParty).
type Company struct {
	ID            string
	Name          string
	VAT           string // 15 dígitos, empieza y termina en 3
	LicenseScheme string // CRN, MOM, MLS, 700, SAG, OTH
	LicenseNo     string
	Currency      string
	Address       Address
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
