// Package zatcatest datos de prueba compartidos: factura de ejemplo y material de firma EC desechable.
package zatcatest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// IssuedAt fecha fija de las facturas de ejemplo.
var IssuedAt = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

// Address dirección nacional completa.
func Address() entity.Address {
	return entity.Address{
		Street: "King Fahd Road", BuildingNo: "1234", AdditionalNo: "5678",
		District: "Al Olaya", City: "Riyadh", Zip: "12345", State: "Riyadh", CountryCode: "SA",
	}
}

// Company vendedor válido.
func Company() *entity.Company {
	return &entity.Company{
		ID: "c1", Name: "شركة المثال", VAT: "300000000000003", LicenseScheme: "CRN", LicenseNo: "1010010000",
		Currency: "SAR", Address: Address(),
	}
}

// Partner comprador con dirección e IVA.
func Partner() *entity.Partner {
	return &entity.Partner{
		ID: "p1", CompanyID: "c1", Name: "Buyer Co", VAT: "311111111111113",
		IdentificationID: "2020020000", IDScheme: "CRN", Address: Address(),
	}
}

// Invoice factura estándar publicada.
func Invoice(id int64) *entity.Invoice {
	return &entity.Invoice{
		ID: id, CompanyID: "c1", PartnerID: "p1", Name: "INV/2024/0001",
		Kind: entity.InvoiceKindInvoice, State: entity.InvoiceStatePosted,
		IssuedAt: IssuedAt, Currency: "SAR", UUID: "3cf5ee18-ee25-44ea-a444-2c37ba7f28be",
	}
}

// Lines una línea: 2 × 100 con IVA estándar 15%.
func Lines() []*entity.InvoiceLine {
	return []*entity.InvoiceLine{{
		ID: 1, InvoiceID: 1, Sequence: 1, ProductName: "Widget",
		Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100),
		TaxCategory: "S", TaxPercent: decimal.NewFromInt(15),
	}}
}

// Material certificado autofirmado P-256 con su llave, y ambos en PEM.
type Material struct {
	zatca.SigningMaterial
	ECKey   *ecdsa.PrivateKey
	CertPEM string
	KeyPEM  string
}

// NewMaterial genera un CSID de prueba.
func NewMaterial(t testing.TB) Material {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generar llave: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1234567890123456789),
		Subject:      pkix.Name{CommonName: "TST-886431145-300000000000003", Organization: []string{"Seller Co"}},
		NotBefore:    IssuedAt.Add(-24 * time.Hour),
		NotAfter:     IssuedAt.Add(365 * 24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("crear certificado: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsear certificado: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("serializar llave: %v", err)
	}
	return Material{
		SigningMaterial: zatca.SigningMaterial{Certificate: cert, Key: key},
		ECKey:           key,
		CertPEM:         string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		KeyPEM:          string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})),
	}
}
