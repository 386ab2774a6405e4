package zatca

// Namespaces UBL 2.1 y extensiones de firma usadas por ZATCA.
const (
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NsExt     = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// Firma UBL (sig:UBLDocumentSignatures)
	NsSig = "urn:oasis:names:specification:ubl:schema:xsd:CommonSignatureComponents-2"
	NsSac = "urn:oasis:names:specification:ubl:schema:xsd:SignatureAggregateComponents-2"
	NsSbc = "urn:oasis:names:specification:ubl:schema:xsd:SignatureBasicComponents-2"
)

// Identificadores fijos del bloque de firma.
const (
	ExtensionURIXAdES      = "urn:oasis:names:specification:ubl:dsig:enveloped:xades"
	SignatureInformationID = "urn:oasis:names:specification:ubl:signature:1"
	SignatureInvoiceID     = "urn:oasis:names:specification:ubl:signature:Invoice"
	SignatureMethodXAdES   = "urn:oasis:names:specification:ubl:dsig:enveloped:xades"
)

// IDs de las AdditionalDocumentReference.
const (
	DocRefICV = "ICV"
	DocRefPIH = "PIH"
	DocRefQR  = "QR"
)
