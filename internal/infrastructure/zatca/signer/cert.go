// Carga del material de firma (CSID) desde .p12 (PKCS#12), par PEM o lo guardado en la configuración.

package signer

import (
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (zatca.SigningMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return zatca.SigningMaterial{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return zatca.SigningMaterial{}, fmt.Errorf("decodificar p12: %w", err)
	}
	key, ok := priv.(crypto.Signer)
	if !ok {
		return zatca.SigningMaterial{}, fmt.Errorf("p12: la llave privada no permite firmar")
	}
	return zatca.SigningMaterial{Certificate: cert, Key: key}, nil
}

// LoadFromPEM carga certificado y llave desde archivos PEM (separados o combinados).
// Si certPath está vacío retorna material vacío y err nil: el documento se genera sin firma.
func LoadFromPEM(certPath, keyPath string) (zatca.SigningMaterial, error) {
	if certPath == "" {
		return zatca.SigningMaterial{}, nil
	}
	if keyPath == "" {
		keyPath = certPath
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return zatca.SigningMaterial{}, fmt.Errorf("leer certificado: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return zatca.SigningMaterial{}, fmt.Errorf("leer llave: %w", err)
	}
	return LoadFromStored(string(certPEM), string(keyPEM))
}

// LoadFromStored arma el material con el certificado (PEM, DER en base64 o el
// binarySecurityToken del portal) y la llave PEM guardados en la configuración.
func LoadFromStored(certificate, privateKeyPEM string) (zatca.SigningMaterial, error) {
	cert, err := ParseCertificate(certificate)
	if err != nil {
		return zatca.SigningMaterial{}, err
	}
	key, err := ParsePrivateKey([]byte(privateKeyPEM))
	if err != nil {
		return zatca.SigningMaterial{}, err
	}
	return zatca.SigningMaterial{Certificate: cert, Key: key}, nil
}

// ParseCertificate acepta PEM, DER en base64 o base64 de base64 (binarySecurityToken).
func ParseCertificate(s string) (*x509.Certificate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("certificado vacío")
	}
	if strings.Contains(s, "-----BEGIN") {
		rest := []byte(s)
		for {
			var block *pem.Block
			block, rest = pem.Decode(rest)
			if block == nil {
				return nil, fmt.Errorf("el PEM no contiene un CERTIFICATE")
			}
			if block.Type != "CERTIFICATE" {
				continue
			}
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parsear certificado PEM: %w", err)
			}
			return cert, nil
		}
	}
	der, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("certificado no es PEM ni base64: %w", err)
	}
	if cert, err := x509.ParseCertificate(der); err == nil {
		return cert, nil
	}
	// binarySecurityToken: base64 del certificado ya en base64
	inner, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(der)))
	if err != nil {
		return nil, fmt.Errorf("certificado base64 inválido")
	}
	cert, err := x509.ParseCertificate(inner)
	if err != nil {
		return nil, fmt.Errorf("parsear certificado: %w", err)
	}
	return cert, nil
}

// ParsePrivateKey acepta llaves EC, PKCS#1 (RSA) o PKCS#8 en PEM.
func ParsePrivateKey(data []byte) (crypto.Signer, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("no se encontró una llave privada PEM")
		}
		switch block.Type {
		case "EC PRIVATE KEY":
			k, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parsear llave EC: %w", err)
			}
			return k, nil
		case "RSA PRIVATE KEY":
			k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parsear llave RSA: %w", err)
			}
			return k, nil
		case "PRIVATE KEY":
			k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parsear llave PKCS#8: %w", err)
			}
			signer, ok := k.(crypto.Signer)
			if !ok {
				return nil, fmt.Errorf("tipo de llave no soportado %T", k)
			}
			return signer, nil
		}
	}
}

// CertDigestAndIssuerSerial datos de xades:SigningCertificate: digest (base64 del hex
// SHA-256 del certificado en base64), emisor y serial en decimal.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64, issuerName, serial string) {
	certB64 := base64.StdEncoding.EncodeToString(cert.Raw)
	h := sha256.Sum256([]byte(certB64))
	digestB64 = base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(h[:])))
	issuerName = cert.Issuer.String()
	serial = cert.SerialNumber.String()
	return digestB64, issuerName, serial
}
