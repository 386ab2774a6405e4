// Package zatca contiene las reglas de negocio de factura electrónica ZATCA:
// clasificación del documento, cálculo de totales con redondeo por paso,
// validaciones previas a la generación y reglas de la cadena PIH.
// Utiliza catálogos de pkg/zatca.
package zatca

import (
	"strings"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// Classification tipo de documento (BT-3), factura estándar vs simplificada y subtipo KSA-2.
type Classification struct {
	TypeCode    string
	TaxInvoice  bool // true = estándar (B2B, clearance); false = simplificada (B2C, reporting)
	SubtypeName string
}

// Classify determina el tipo del documento a partir de la factura y sus líneas.
// Una factura es simplificada si así se marcó o si alguna línea está fuera del alcance del IVA.
func Classify(inv *entity.Invoice, lines []*entity.InvoiceLine) Classification {
	c := Classification{TypeCode: TypeCode(inv), TaxInvoice: !inv.Simplified}
	for _, l := range lines {
		if EffectiveCategory(l) == zatca.TaxCategoryOutOfScope {
			c.TaxInvoice = false
			break
		}
	}
	c.SubtypeName = subtypeName(c.TaxInvoice, inv.Flags)
	return c
}

// TypeCode 383 para nota débito, 381 para nota crédito, 388 en otro caso.
func TypeCode(inv *entity.Invoice) string {
	switch inv.Kind {
	case entity.InvoiceKindDebitNote:
		return zatca.InvoiceTypeDebit
	case entity.InvoiceKindCreditNote:
		return zatca.InvoiceTypeCredit
	default:
		return zatca.InvoiceTypeTax
	}
}

// subtypeName arma NNPNESB. Exportación y autofacturación no aplican a simplificadas,
// y una exportación nunca es autofacturada.
func subtypeName(taxInvoice bool, f entity.TransactionFlags) string {
	var sb strings.Builder
	if taxInvoice {
		sb.WriteString(zatca.SubtypeStandard)
	} else {
		sb.WriteString(zatca.SubtypeSimplified)
		f.Export = false
		f.SelfBilled = false
	}
	if f.Export {
		f.SelfBilled = false
	}
	for _, on := range []bool{f.ThirdParty, f.Nominal, f.Export, f.Summary, f.SelfBilled} {
		if on {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// EffectiveCategory categoría de la línea; vacía equivale a fuera de alcance.
func EffectiveCategory(l *entity.InvoiceLine) string {
	cat := strings.ToUpper(strings.TrimSpace(l.TaxCategory))
	if cat == "" {
		return zatca.TaxCategoryOutOfScope
	}
	return cat
}
