// Servicio de firma XAdES (enveloped) para la factura electrónica ZATCA.
// Completa ds:Signature dentro de sac:SignatureInformation en ext:UBLExtensions.

package signer

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// DigitalSignatureService implementa zatca.Signer.
type DigitalSignatureService struct {
	now func() time.Time
}

// Option configura el servicio.
type Option func(*DigitalSignatureService)

// WithClock fija el reloj usado para xades:SigningTime.
func WithClock(now func() time.Time) Option {
	return func(s *DigitalSignatureService) { s.now = now }
}

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService(opts ...Option) *DigitalSignatureService {
	s := &DigitalSignatureService{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sign firma el digest de la factura e inserta ds:Signature en el documento.
// El hash de la factura no cambia: todo lo que se agrega queda bajo ext:UBLExtensions.
func (s *DigitalSignatureService) Sign(doc *etree.Document, invoiceHashB64 string, material zatca.SigningMaterial) (*zatca.SignatureResult, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("zatca: documento vacío")
	}
	if material.Certificate == nil || material.Key == nil {
		return nil, fmt.Errorf("zatca: falta certificado o llave privada")
	}
	digest, err := base64.StdEncoding.DecodeString(invoiceHashB64)
	if err != nil || len(digest) != sha256.Size {
		return nil, fmt.Errorf("zatca: hash de factura inválido")
	}
	sigMethod, err := signatureMethod(material.Key)
	if err != nil {
		return nil, err
	}
	info := findSignatureInformation(doc.Root())
	if info == nil {
		return nil, fmt.Errorf("zatca: no se encontró sac:SignatureInformation en ext:UBLExtensions")
	}

	// 1) SignatureValue sobre el digest crudo de la factura
	signatureValue, err := material.Key.Sign(rand.Reader, digest, crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("zatca: firmar hash de factura: %w", err)
	}

	// 2) QualifyingProperties (SigningTime, SigningCertificate)
	cert := material.Certificate
	certB64 := base64.StdEncoding.EncodeToString(cert.Raw)
	certDigest, issuer, serial := CertDigestAndIssuerSerial(cert)
	object := etree.NewElement("ds:Object")
	qp := object.CreateElement("xades:QualifyingProperties")
	qp.CreateAttr("xmlns:xades", NamespaceXAdES)
	qp.CreateAttr("Target", SignatureID)
	signedProps := qp.CreateElement("xades:SignedProperties")
	signedProps.CreateAttr("Id", SignedPropertiesID)
	ssp := signedProps.CreateElement("xades:SignedSignatureProperties")
	ssp.CreateElement("xades:SigningTime").SetText(s.now().UTC().Format("2006-01-02T15:04:05"))
	c := ssp.CreateElement("xades:SigningCertificate").CreateElement("xades:Cert")
	cd := c.CreateElement("xades:CertDigest")
	cd.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	cd.CreateElement("ds:DigestValue").SetText(certDigest)
	is := c.CreateElement("xades:IssuerSerial")
	is.CreateElement("ds:X509IssuerName").SetText(issuer)
	is.CreateElement("ds:X509SerialNumber").SetText(serial)

	propsDigest, err := signedPropertiesDigest(signedProps)
	if err != nil {
		return nil, err
	}

	// 3) ds:Signature en el orden SignedInfo, SignatureValue, KeyInfo, Object
	sig := etree.NewElement("ds:Signature")
	sig.CreateAttr("xmlns:ds", NamespaceDS)
	sig.CreateAttr("Id", SignatureID)
	sig.AddChild(buildSignedInfo(sigMethod, invoiceHashB64, propsDigest))
	sig.CreateElement("ds:SignatureValue").SetText(base64.StdEncoding.EncodeToString(signatureValue))
	sig.CreateElement("ds:KeyInfo").CreateElement("ds:X509Data").CreateElement("ds:X509Certificate").SetText(certB64)
	sig.AddChild(object)

	info.AddChild(sig)

	return &zatca.SignatureResult{
		SignatureValue: signatureValue,
		PublicKey:      cert.RawSubjectPublicKeyInfo,
		CertSignature:  cert.Signature,
	}, nil
}

func buildSignedInfo(sigMethod, invoiceHashB64, propsDigest string) *etree.Element {
	si := etree.NewElement("ds:SignedInfo")
	si.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", AlgC14N11)
	si.CreateElement("ds:SignatureMethod").CreateAttr("Algorithm", sigMethod)

	ref := si.CreateElement("ds:Reference")
	ref.CreateAttr("Id", InvoiceReferenceID)
	ref.CreateAttr("URI", "")
	transforms := ref.CreateElement("ds:Transforms")
	for _, xp := range invoiceTransforms {
		t := transforms.CreateElement("ds:Transform")
		t.CreateAttr("Algorithm", AlgXPath)
		t.CreateElement("ds:XPath").SetText(xp)
	}
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", AlgC14N11)
	ref.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	ref.CreateElement("ds:DigestValue").SetText(invoiceHashB64)

	props := si.CreateElement("ds:Reference")
	props.CreateAttr("Type", TypeSignatureProperties)
	props.CreateAttr("URI", "#"+SignedPropertiesID)
	props.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	props.CreateElement("ds:DigestValue").SetText(propsDigest)
	return si
}

// signedPropertiesDigest base64 del hex SHA-256 de xades:SignedProperties canonicalizado.
// Se serializa una copia con los namespaces declarados en ella misma.
func signedPropertiesDigest(signedProps *etree.Element) (string, error) {
	cp := signedProps.Copy()
	cp.CreateAttr("xmlns:xades", NamespaceXAdES)
	cp.CreateAttr("xmlns:ds", NamespaceDS)
	d := etree.NewDocument()
	d.SetRoot(cp)
	raw, err := d.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("zatca: serializar SignedProperties: %w", err)
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Entity = map[string]string{}
	canonical, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("zatca: canonicalizar SignedProperties: %w", err)
	}
	h := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(h[:]))), nil
}

func signatureMethod(key crypto.Signer) (string, error) {
	switch key.Public().(type) {
	case *ecdsa.PublicKey:
		return AlgECDSASHA256, nil
	case *rsa.PublicKey:
		return AlgRSASHA256, nil
	default:
		return "", fmt.Errorf("zatca: tipo de llave no soportado %T", key.Public())
	}
}

func findSignatureInformation(root *etree.Element) *etree.Element {
	for _, ext := range root.ChildElements() {
		if ext.Tag == "UBLExtensions" {
			return findLocal(ext, "SignatureInformation")
		}
	}
	return nil
}

func findLocal(e *etree.Element, local string) *etree.Element {
	for _, ch := range e.ChildElements() {
		if ch.Tag == local {
			return ch
		}
		if found := findLocal(ch, local); found != nil {
			return found
		}
	}
	return nil
}

var _ zatca.Signer = (*DigitalSignatureService)(nil)
