package entity

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Estados contables de la factura (los define el ERP).
const (
	InvoiceStateDraft     = "draft"
	InvoiceStatePosted    = "posted" // Solo las publicadas participan en la cadena PIH
	InvoiceStateCancelled = "cancelled"
)

// Tipos de documento.
const (
	InvoiceKindInvoice    = "invoice"     // 388
	InvoiceKindCreditNote = "credit_note" // 381 (reembolso)
	InvoiceKindDebitNote  = "debit_note"  // 383
)

// Estados del ciclo ZATCA.
const (
	ZatcaStatusPending           = "PENDING"            // Sin XML generado
	ZatcaStatusGenerated         = "GENERATED"          // XML con hash, sin firma (sin CSID)
	ZatcaStatusSigned            = "SIGNED"             // XML firmado y con QR
	ZatcaStatusComplianceChecked = "COMPLIANCE_CHECKED" // Pasó el endpoint de compliance
	ZatcaStatusCleared           = "CLEARED"            // Aprobada por clearance (B2B)
	ZatcaStatusReported          = "REPORTED"           // Reportada (B2C)
	ZatcaStatusRejected          = "REJECTED"           // Rechazada por ZATCA
)

// TransactionFlags banderas del subtipo KSA-2 (posiciones 3 a 7).
type TransactionFlags struct {
	ThirdParty bool
	Nominal    bool
	Export     bool
	Summary    bool
	SelfBilled bool
}

// Invoice representa la cabecera de una factura de venta tal como la publica el ERP,
// más los campos que agrega el ciclo ZATCA.
type Invoice struct {
	ID                int64 // Identidad secuencial; define el orden de la cadena
	CompanyID         string
	PartnerID         string
	Name              string // Número visible (ej. INV/2024/00001); vacío = se usa el ID
	Kind              string
	State             string
	OriginalInvoiceID *int64 // Factura referenciada por notas crédito/débito (BT-25)
	CreditDebitReason string // KSA-10
	Simplified        bool   // Forzar factura simplificada (B2C)
	Flags             TransactionFlags
	IssuedAt          time.Time
	DueDate           *time.Time
	DeliveryDate      *time.Time
	Currency          string
	PaymentMeansCode  string
	PurchaseOrderRef  string
	AmountTotal       decimal.Decimal // Total según el ERP
	AmountResidual    decimal.Decimal // Saldo pendiente; Total - Saldo = anticipo (BT-113)

	// ── Campos ZATCA ──
	UUID             string // Se asigna una vez y no cambia entre regeneraciones
	ICV              int64  // KSA-16
	PIH              string // KSA-13 (base64)
	Hash             string // Digest base64 del subárbol canónico
	HashHex          string
	QRCode           string // KSA-14 (base64 TLV)
	ClearedHash      string // Digest del XML devuelto por clearance
	ZatcaStatus      string
	SubmissionReport string // Tabla HTML con el resultado del último envío
	XMLName          string
	HashXMLName      string
	ClearedXMLName   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DocumentID valor de cbc:ID: el número visible o, si no existe, el ID interno.
func (i *Invoice) DocumentID() string {
	if i.Name != "" {
		return i.Name
	}
	return strconv.FormatInt(i.ID, 10)
}

// IsNote true para notas crédito y débito.
func (i *Invoice) IsNote() bool {
	return i.Kind == InvoiceKindCreditNote || i.Kind == InvoiceKindDebitNote
}
