// Package zatca contiene catálogos y validaciones alineados a las especificaciones
// técnicas de factura electrónica ZATCA (Arabia Saudita, fase 2 "integration").
package zatca

// =============================================================================
// BT-3 - Tipo de documento (UNTDID 1001)
// =============================================================================

const (
	InvoiceTypeTax    = "388" // Factura
	InvoiceTypeCredit = "381" // Nota crédito
	InvoiceTypeDebit  = "383" // Nota débito
)

// =============================================================================
// KSA-2 - Subtipo de transacción (cbc:InvoiceTypeCode/@name)
// Formato NNPNESB: NN = 01 estándar / 02 simplificada, luego banderas de
// terceros, nominal, exportación, resumen y autofacturación.
// =============================================================================

const (
	SubtypeStandard   = "01"
	SubtypeSimplified = "02"
)

// =============================================================================
// BT-151 - Categorías de IVA (UNCL5305 subconjunto KSA)
// =============================================================================

const (
	TaxCategoryStandard   = "S" // Tasa estándar
	TaxCategoryZeroRated  = "Z" // Tasa cero
	TaxCategoryExempt     = "E" // Exento
	TaxCategoryOutOfScope = "O" // Fuera del alcance del IVA
)

// ValidTaxCategories categorías aceptadas por ZATCA.
var ValidTaxCategories = map[string]bool{
	TaxCategoryStandard:   true,
	TaxCategoryZeroRated:  true,
	TaxCategoryExempt:     true,
	TaxCategoryOutOfScope: true,
}

// =============================================================================
// BT-121 / BT-120 - Motivos de exención (VATEX)
// =============================================================================

const (
	ExemptionOutOfScope = "VATEX-SA-OOS"
	ExemptionEducation  = "VATEX-SA-EDU"
	ExemptionHealth     = "VATEX-SA-HEA"
)

// OutOfScopeReason texto fijo para la categoría O.
const OutOfScopeReason = "Not subject to VAT"

// ExemptionReasons texto oficial por código VATEX.
var ExemptionReasons = map[string]string{
	"VATEX-SA-29":   "Financial services mentioned in Article 29 of the VAT Regulations",
	"VATEX-SA-29-7": "Life insurance services mentioned in Article 29 of the VAT Regulations",
	"VATEX-SA-30":   "Real estate transactions mentioned in Article 30 of the VAT Regulations",
	"VATEX-SA-32":   "Export of goods",
	"VATEX-SA-33":   "Export of services",
	"VATEX-SA-34-1": "The international transport of Goods",
	"VATEX-SA-34-2": "International transport of passengers",
	"VATEX-SA-34-3": "Services directly connected and incidental to a Supply of international passenger transport",
	"VATEX-SA-34-4": "Supply of a qualifying means of transport",
	"VATEX-SA-34-5": "Any services relating to Goods or passenger transportation, as defined in article twenty five of these Regulations",
	"VATEX-SA-35":   "Medicines and medical equipment",
	"VATEX-SA-36":   "Qualifying metals",
	"VATEX-SA-EDU":  "Private education to citizen",
	"VATEX-SA-HEA":  "Private healthcare to citizen",
	"VATEX-SA-OOS":  OutOfScopeReason,
}

// ExemptionCodesByCategory códigos VATEX admitidos para cada categoría.
var ExemptionCodesByCategory = map[string]map[string]bool{
	TaxCategoryExempt: {
		"VATEX-SA-29": true, "VATEX-SA-29-7": true, "VATEX-SA-30": true,
	},
	TaxCategoryZeroRated: {
		"VATEX-SA-32": true, "VATEX-SA-33": true,
		"VATEX-SA-34-1": true, "VATEX-SA-34-2": true, "VATEX-SA-34-3": true,
		"VATEX-SA-34-4": true, "VATEX-SA-34-5": true,
		"VATEX-SA-35": true, "VATEX-SA-36": true,
		ExemptionEducation: true, ExemptionHealth: true,
	},
	TaxCategoryOutOfScope: {
		ExemptionOutOfScope: true,
	},
}

// =============================================================================
// BT-81 - Medios de pago (UNTDID 4461)
// =============================================================================

const (
	PaymentMeansCash     = "10"
	PaymentMeansCredit   = "30"
	PaymentMeansTransfer = "42"
	PaymentMeansCard     = "48"
	PaymentMeansOther    = "1"
)

// ValidPaymentMeansCodes códigos de medio de pago aceptados.
var ValidPaymentMeansCodes = map[string]bool{
	PaymentMeansCash: true, PaymentMeansCredit: true, PaymentMeansTransfer: true,
	PaymentMeansCard: true, PaymentMeansOther: true,
}

// =============================================================================
// BT-29 / BT-46 - Esquemas de identificación de las partes
// =============================================================================

// SellerIDSchemes esquemas válidos para el vendedor (licencia comercial).
var SellerIDSchemes = map[string]bool{
	"CRN": true, "MOM": true, "MLS": true, "700": true, "SAG": true, "OTH": true,
}

// BuyerIDSchemes esquemas válidos para el comprador.
var BuyerIDSchemes = map[string]bool{
	"TIN": true, "CRN": true, "MOM": true, "MLS": true, "700": true, "SAG": true,
	"NAT": true, "GCC": true, "IQA": true, "PAS": true, "OTH": true,
}

// BuyerIDNational identificación nacional (obligatoria con VATEX-SA-EDU/HEA).
const BuyerIDNational = "NAT"

// =============================================================================
// Varios
// =============================================================================

const (
	CurrencySAR   = "SAR"
	UnitCodePiece = "PCE"
	ProfileID     = "reporting:1.0"
	TaxSchemeVAT  = "VAT"
	CountrySA     = "SA"
)

// PlaceholderPIH hash "anterior" que ZATCA fija para la primera factura de la cadena
// (base64 del hex SHA-256 de "0").
const PlaceholderPIH = "NWZlY2ViNjZmZmM4NmYzOGQ5NTI3ODZjNmQ2OTZjNzljMmRiYzIzOWRkNGU5MWI0NjcyOWQ3M2EyN2ZiNTdlOQ=="
