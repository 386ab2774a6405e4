package zatca

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

var hundred = decimal.NewFromInt(100)

// Round2 redondeo a 2 decimales (mitad alejándose de cero). Se aplica después de cada
// operación, no solo al final: ZATCA recalcula con la misma regla.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineAmounts montos calculados de una línea.
type LineAmounts struct {
	Line          *entity.InvoiceLine
	Category      string
	Percent       decimal.Decimal // Tasa efectiva (0 para Z, E y O)
	Gross         decimal.Decimal // precio × cantidad
	Discount      decimal.Decimal // BT-136
	Net           decimal.Decimal // BT-131
	TaxAmount     decimal.Decimal // KSA-11
	AmountWithTax decimal.Decimal // KSA-12
}

// TaxSubtotal agrupación BG-23 por categoría, tasa y motivo de exención.
type TaxSubtotal struct {
	Category        string
	Percent         decimal.Decimal
	TaxableAmount   decimal.Decimal // BT-116
	TaxAmount       decimal.Decimal // BT-117
	ExemptionCode   string          // BT-121
	ExemptionReason string          // BT-120
}

// Totals totales del documento.
type Totals struct {
	Lines          []LineAmounts
	Subtotals      []TaxSubtotal
	LineExtension  decimal.Decimal // BT-106
	AllowanceTotal decimal.Decimal // BT-107
	TaxExclusive   decimal.Decimal // BT-109
	TaxTotal       decimal.Decimal // BT-110
	TaxInclusive   decimal.Decimal // BT-112
	Prepaid        decimal.Decimal // BT-113
	Payable        decimal.Decimal // BT-115
}

// ComputeTotals calcula líneas, subtotales y totales. Los subtotales conservan el
// orden de primera aparición de cada grupo para que el XML sea determinista.
func ComputeTotals(inv *entity.Invoice, lines []*entity.InvoiceLine) Totals {
	var t Totals
	index := make(map[string]int)

	for _, l := range lines {
		la := computeLine(l)
		t.Lines = append(t.Lines, la)
		t.LineExtension = Round2(t.LineExtension.Add(la.Net))

		// agrupa por el código emitido, no el de la línea (O y S lo ignoran)
		code, reason := exemptionFor(la.Category, l)
		key := la.Category + "|" + la.Percent.StringFixed(2) + "|" + code
		i, ok := index[key]
		if !ok {
			t.Subtotals = append(t.Subtotals, TaxSubtotal{
				Category:        la.Category,
				Percent:         la.Percent,
				ExemptionCode:   code,
				ExemptionReason: reason,
			})
			i = len(t.Subtotals) - 1
			index[key] = i
		}
		t.Subtotals[i].TaxableAmount = Round2(t.Subtotals[i].TaxableAmount.Add(la.Net))
	}

	for i := range t.Subtotals {
		st := &t.Subtotals[i]
		if st.Category == zatca.TaxCategoryStandard {
			st.TaxAmount = Round2(st.TaxableAmount.Mul(st.Percent).Div(hundred))
		}
		t.TaxTotal = Round2(t.TaxTotal.Add(st.TaxAmount))
	}

	t.TaxExclusive = Round2(t.LineExtension.Sub(t.AllowanceTotal))
	t.TaxInclusive = Round2(t.TaxExclusive.Add(t.TaxTotal))
	if inv != nil && !inv.AmountTotal.IsZero() {
		t.Prepaid = Round2(inv.AmountTotal.Sub(inv.AmountResidual))
	}
	t.Payable = Round2(t.TaxInclusive.Sub(t.Prepaid))
	if t.Payable.IsNegative() {
		t.Payable = decimal.Zero
	}
	return t
}

func computeLine(l *entity.InvoiceLine) LineAmounts {
	la := LineAmounts{Line: l, Category: EffectiveCategory(l)}
	la.Gross = Round2(l.UnitPrice.Mul(l.Quantity))
	if l.Discount.IsPositive() {
		la.Discount = Round2(la.Gross.Mul(l.Discount).Div(hundred))
	}
	la.Net = Round2(la.Gross.Sub(la.Discount))

	la.Percent = clampPercent(l.TaxPercent)
	switch la.Category {
	case zatca.TaxCategoryZeroRated, zatca.TaxCategoryExempt, zatca.TaxCategoryOutOfScope:
		la.Percent = decimal.Zero
	}
	la.TaxAmount = Round2(la.Net.Mul(la.Percent).Div(hundred))
	la.AmountWithTax = Round2(la.Net.Add(la.TaxAmount))
	return la
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func exemptionFor(category string, l *entity.InvoiceLine) (code, reason string) {
	switch category {
	case zatca.TaxCategoryOutOfScope:
		return zatca.ExemptionOutOfScope, zatca.OutOfScopeReason
	case zatca.TaxCategoryZeroRated, zatca.TaxCategoryExempt:
		reason = l.ExemptionText
		if reason == "" {
			reason = zatca.ExemptionReasons[l.ExemptionCode]
		}
		return l.ExemptionCode, reason
	}
	return "", ""
}
