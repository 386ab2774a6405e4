// Package pdf genera la representación impresa de la factura ZATCA.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Vendedor + VAT      │  Tipo, N° factura y fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VENDEDOR: dirección nacional + CRN                          │
//	│  COMPRADOR: nombre + VAT/ID + dirección                      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | IVA | Neto | Con IVA   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Neto / Descuentos / IVA / Anticipo / A pagar       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR (TLV) + UUID + ICV + hash                        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/application/einvoice"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	pkgzatca "github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 108, Blue: 53}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ einvoice.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa einvoice.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(_ context.Context, data einvoice.PDFData) ([]byte, error) {
	if data.Invoice == nil || data.Company == nil || data.Partner == nil {
		return nil, fmt.Errorf("pdf: faltan factura, empresa o cliente")
	}
	inv, company := data.Invoice, data.Company

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(documentTitle(data.Classification), true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, company, data.Classification))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(sellerRow(company))
	m.AddRows(buyerRow(data.Partner))
	if inv.IsNote() && inv.CreditDebitReason != "" {
		m.AddRows(reasonRow(inv.CreditDebitReason))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(data.Totals.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(data.Totals)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(inv)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func documentTitle(c domzatca.Classification) string {
	var kind string
	switch c.TypeCode {
	case pkgzatca.InvoiceTypeCredit:
		kind = "Credit Note"
	case pkgzatca.InvoiceTypeDebit:
		kind = "Debit Note"
	default:
		kind = "Invoice"
	}
	if c.TaxInvoice {
		return "Tax " + kind
	}
	return "Simplified Tax " + kind
}

// headerRow: vendedor + VAT (izq) y tipo, número y fecha (der).
func headerRow(inv *entity.Invoice, company *entity.Company, c domzatca.Classification) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("VAT: "+company.VAT, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(strings.ToUpper(documentTitle(c)), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(inv.DocumentID(), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+inv.IssuedAt.UTC().Format("2006-01-02 15:04:05"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func sellerRow(company *entity.Company) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("VENDEDOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   %s: %s",
				formatAddress(company.Address),
				nonEmpty(company.LicenseScheme, "CRN"),
				nonEmpty(company.LicenseNo, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func buyerRow(p *entity.Partner) core.Row {
	id := p.VAT
	label := "VAT"
	if id == "" {
		id, label = p.IdentificationID, nonEmpty(p.IDScheme, "ID")
	}
	return row.New(18).Add(
		col.New(12).Add(
			text.New("COMPRADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(p.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("%s: %s   |   %s", label, nonEmpty(id, "-"), formatAddress(p.Address)),
				props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func reasonRow(reason string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New("Motivo: "+reason, props.Text{Size: 8, Top: 1, Color: colorGray}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("P. Unit.", 2, align.Right),
		h("IVA", 1, align.Center),
		h("Neto", 2, align.Right),
		h("Con IVA", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea con los montos ya redondeados.
func tableDetailRows(lines []domzatca.LineAmounts) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, la := range lines {
		vat := la.Category
		if la.Category == pkgzatca.TaxCategoryStandard {
			vat = la.Percent.String() + "%"
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(la.Line.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(la.Line.ProductName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(money(la.Line.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(vat,
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(money(la.Net),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(money(la.AmountWithTax),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRows: bloque de totales alineado a la derecha; descuento y anticipo solo si existen.
func totalsRows(t domzatca.Totals) []core.Row {
	pair := func(label, value string, grand bool) core.Row {
		style := props.Text{Size: 9, Align: align.Right, Right: 1}
		if grand {
			style = props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1}
		}
		lbl := style
		lbl.Style = fontstyle.Bold
		return row.New(6).Add(
			col.New(6),
			col.New(3).Add(text.New(label, lbl)),
			col.New(3).Add(text.New(value, style)),
		)
	}

	rows := []core.Row{pair("Total neto:", money(t.LineExtension), false)}
	if t.AllowanceTotal.IsPositive() {
		rows = append(rows, pair("Descuentos:", money(t.AllowanceTotal), false))
	}
	rows = append(rows,
		pair("Base imponible:", money(t.TaxExclusive), false),
		pair("IVA:", money(t.TaxTotal), false),
		pair("Total con IVA:", money(t.TaxInclusive), false),
	)
	if t.Prepaid.IsPositive() {
		rows = append(rows, pair("Anticipo:", money(t.Prepaid), false))
	}
	return append(rows, pair("TOTAL A PAGAR:", money(t.Payable), true))
}

// footerRows: QR TLV + identificadores de la cadena.
func footerRows(inv *entity.Invoice) []core.Row {
	info := []string{
		"UUID: " + inv.UUID,
		"ICV: " + strconv.FormatInt(inv.ICV, 10),
		"Hash: " + inv.Hash,
		"Estado ZATCA: " + nonEmpty(inv.ZatcaStatus, entity.ZatcaStatusPending),
	}
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN ZATCA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	details := make([]core.Component, 0, len(info))
	for i, s := range info {
		details = append(details, text.New(s, props.Text{
			Size: 7, Top: float64(4 + i*6), Left: 3, Color: colorGray,
		}))
	}
	rows = append(rows, row.New(50).Add(
		col.New(4).Add(code.NewQr(inv.QRCode, props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(details...),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money monto con 2 decimales, separador de miles y la moneda.
// Ej: 1234567.5 → "1,234,567.50 SAR"
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "." + frac + " " + pkgzatca.CurrencySAR
}

func formatAddress(a entity.Address) string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.BuildingNo + " " + a.Street, a.District, a.City, a.Zip, a.CountryCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
