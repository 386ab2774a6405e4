package entity

import "time"

// Campos de adjunto por factura.
const (
	AttachmentSignedXML  = "zatca_invoice"         // XML completo (firmado si hubo CSID)
	AttachmentHashXML    = "zatca_hash_invoice"    // XML sin UBLExtensions/QR/Signature usado para el hash
	AttachmentClearedXML = "zatca_cleared_invoice" // XML devuelto por clearance
)

// Attachment artefacto persistido de una factura.
type Attachment struct {
	InvoiceID int64
	Field     string
	Name      string
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}
