// Package zatca: interfaz para firma XAdES del documento UBL.

package zatca

import (
	"crypto"
	"crypto/x509"

	"github.com/beevik/etree"
)

// SigningMaterial certificado (CSID) y llave con la que se firma.
type SigningMaterial struct {
	Certificate *x509.Certificate
	Key         crypto.Signer
}

// SignatureResult datos de la firma que además alimentan el QR (tags 7, 8 y 9).
type SignatureResult struct {
	SignatureValue []byte // firma sobre el digest de la factura
	PublicKey      []byte // SubjectPublicKeyInfo DER
	CertSignature  []byte // firma de la CA sobre el certificado
}

// Signer completa el ds:Signature dentro del placeholder ext:UBLExtensions del documento.
type Signer interface {
	// Sign recibe el documento ya construido y el hash (base64) de su subárbol canónico.
	Sign(doc *etree.Document, invoiceHashB64 string, material SigningMaterial) (*SignatureResult, error)
}
