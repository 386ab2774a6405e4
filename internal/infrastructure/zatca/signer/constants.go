// Constantes para la firma XAdES de ZATCA.

package signer

// Namespaces y algoritmos XMLDSig / XAdES.
const (
	NamespaceDS    = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES = "http://uri.etsi.org/01903/v1.3.2#"

	AlgC14N11      = "http://www.w3.org/2006/12/xml-c14n11"
	AlgRSASHA256   = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgECDSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256"
	AlgSHA256      = "http://www.w3.org/2001/04/xmlenc#sha256"
	AlgXPath       = "http://www.w3.org/TR/1999/REC-xpath-19991116"

	TypeSignatureProperties = "http://www.w3.org/2000/09/xmldsig#SignatureProperties"
)

// Ids que enlazan SignedInfo con las propiedades firmadas.
const (
	SignatureID        = "signature"
	InvoiceReferenceID = "invoiceSignedData"
	SignedPropertiesID = "xadesSignedProperties"
)

// Transformaciones XPath que excluyen del digest lo que el propio proceso agrega.
var invoiceTransforms = []string{
	"not(//ancestor-or-self::ext:UBLExtensions)",
	"not(//ancestor-or-self::cac:Signature)",
	"not(//ancestor-or-self::cac:AdditionalDocumentReference[cbc:ID='QR'])",
}
