package zatca

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// QRInput datos del código QR (KSA-14).
type QRInput struct {
	SellerName   string
	VATNumber    string
	Timestamp    time.Time
	TotalWithVAT decimal.Decimal
	VATTotal     decimal.Decimal

	// Solo con firma
	InvoiceHash string // base64
	Signature   *zatca.SignatureResult
	Simplified  bool
}

// BuildQR arma el TLV y lo devuelve en base64. Los tags 6 a 8 se agregan cuando hay
// firma y el 9 además solo en facturas simplificadas.
func BuildQR(in QRInput) (string, error) {
	fields := []zatca.TLV{
		{Tag: zatca.TagSellerName, Value: []byte(in.SellerName)},
		{Tag: zatca.TagVATNumber, Value: []byte(in.VATNumber)},
		{Tag: zatca.TagTimestamp, Value: []byte(in.Timestamp.UTC().Format("2006-01-02T15:04:05Z"))},
		{Tag: zatca.TagTotalWithVAT, Value: []byte(in.TotalWithVAT.StringFixed(2))},
		{Tag: zatca.TagVATTotal, Value: []byte(in.VATTotal.StringFixed(2))},
	}
	if in.Signature != nil {
		if in.InvoiceHash == "" {
			return "", fmt.Errorf("zatca: QR firmado sin hash de factura")
		}
		fields = append(fields,
			zatca.TLV{Tag: zatca.TagInvoiceHash, Value: []byte(in.InvoiceHash)},
			zatca.TLV{Tag: zatca.TagSignature, Value: []byte(base64.StdEncoding.EncodeToString(in.Signature.SignatureValue))},
			zatca.TLV{Tag: zatca.TagPublicKey, Value: in.Signature.PublicKey},
		)
		if in.Simplified {
			fields = append(fields, zatca.TLV{Tag: zatca.TagCertSignature, Value: in.Signature.CertSignature})
		}
	}
	qr, err := zatca.EncodeTLV(fields)
	if err != nil {
		return "", fmt.Errorf("zatca: construir QR: %w", err)
	}
	return qr, nil
}
