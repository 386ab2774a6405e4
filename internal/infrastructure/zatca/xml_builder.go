package zatca

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// XMLBuilderService construye el árbol UBL 2.1 de la factura (sin firma XAdES).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el documento Invoice según UBL 2.1 y las reglas KSA. El árbol queda
// indentado; quien firma después no debe volver a indentarlo o cambiaría el hash.
func (s *XMLBuilderService) Build(ctx *InvoiceBuildContext) (*etree.Document, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Company == nil || ctx.Partner == nil {
		return nil, fmt.Errorf("zatca: faltan factura, empresa o cliente en el contexto")
	}
	if ctx.PIH == "" {
		return nil, fmt.Errorf("zatca: falta el PIH")
	}
	if ctx.ICV <= 0 {
		return nil, fmt.Errorf("zatca: ICV inválido %d", ctx.ICV)
	}
	inv := ctx.Invoice
	cls := ctx.Classification

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)
	root.CreateAttr("xmlns:ext", NsExt)

	// ---- ext:UBLExtensions: primer hijo; el firmador completa sac:SignatureInformation
	if ctx.Signed {
		writeUBLExtensions(root)
	}

	cbc(root, "ProfileID", zatca.ProfileID)
	cbc(root, "ID", inv.DocumentID())
	cbc(root, "UUID", inv.UUID)
	cbc(root, "IssueDate", dateOnly(inv.IssuedAt))
	cbc(root, "IssueTime", inv.IssuedAt.UTC().Format("15:04:05Z"))
	if inv.DueDate != nil {
		cbc(root, "DueDate", dateOnly(*inv.DueDate))
	}
	cbc(root, "InvoiceTypeCode", cls.TypeCode).CreateAttr("name", cls.SubtypeName)
	cbc(root, "DocumentCurrencyCode", zatca.CurrencySAR)
	cbc(root, "TaxCurrencyCode", zatca.CurrencySAR)

	if inv.PurchaseOrderRef != "" {
		cbc(cac(root, "OrderReference"), "ID", inv.PurchaseOrderRef)
	}
	if inv.IsNote() && ctx.Original != nil {
		ref := cac(cac(root, "BillingReference"), "InvoiceDocumentReference")
		cbc(ref, "ID", fmt.Sprintf("Invoice Number: %s; Invoice Issue Date: %s",
			ctx.Original.DocumentID(), dateOnly(ctx.Original.IssuedAt)))
	}

	// ---- KSA-16, KSA-13 y KSA-14
	icv := cac(root, "AdditionalDocumentReference")
	cbc(icv, "ID", DocRefICV)
	cbc(icv, "UUID", strconv.FormatInt(ctx.ICV, 10))

	pih := cac(root, "AdditionalDocumentReference")
	cbc(pih, "ID", DocRefPIH)
	cbc(cac(pih, "Attachment"), "EmbeddedDocumentBinaryObject", ctx.PIH).CreateAttr("mimeCode", "text/plain")

	if ctx.Signed {
		qr := cac(root, "AdditionalDocumentReference")
		cbc(qr, "ID", DocRefQR)
		cbc(cac(qr, "Attachment"), "EmbeddedDocumentBinaryObject", "").CreateAttr("mimeCode", "text/plain")

		sig := cac(root, "Signature")
		cbc(sig, "ID", SignatureInvoiceID)
		cbc(sig, "SignatureMethod", SignatureMethodXAdES)
	}

	writeSupplierParty(root, ctx.Company)
	writeCustomerParty(root, ctx)

	if cls.TaxInvoice && cls.TypeCode == zatca.InvoiceTypeTax {
		delivery := inv.IssuedAt
		if inv.DeliveryDate != nil {
			delivery = *inv.DeliveryDate
		}
		cbc(cac(root, "Delivery"), "ActualDeliveryDate", dateOnly(delivery))
	}

	if cls.TaxInvoice || inv.IsNote() {
		code := inv.PaymentMeansCode
		if code == "" {
			// 388 sin medio declarado se emite como tarjeta; las notas como efectivo
			code = zatca.PaymentMeansCash
			if cls.TypeCode == zatca.InvoiceTypeTax {
				code = zatca.PaymentMeansCard
			}
		}
		pm := cac(root, "PaymentMeans")
		cbc(pm, "PaymentMeansCode", code)
		if inv.IsNote() {
			cbc(pm, "InstructionNote", inv.CreditDebitReason) // KSA-10
		}
	}

	writeTaxTotals(root, ctx.Totals)
	writeLegalMonetaryTotal(root, ctx.Totals)
	for i, la := range ctx.Totals.Lines {
		writeInvoiceLine(root, i+1, la, cls.TaxInvoice)
	}

	doc.Indent(2)
	return doc, nil
}

// SetQR escribe el valor base64 del QR en la referencia QR.
func (s *XMLBuilderService) SetQR(doc *etree.Document, value string) error {
	for _, ref := range childrenByLocal(doc.Root(), "AdditionalDocumentReference") {
		if docRefID(ref) != DocRefQR {
			continue
		}
		att := firstByLocal(ref, "Attachment")
		if att == nil {
			break
		}
		obj := firstByLocal(att, "EmbeddedDocumentBinaryObject")
		if obj == nil {
			break
		}
		obj.SetText(value)
		return nil
	}
	return fmt.Errorf("zatca: el documento no tiene referencia QR")
}

// ── Partes ──────────────────────────────────────────────────────────────────

func writeUBLExtensions(root *etree.Element) {
	ext := root.CreateElement("ext:UBLExtensions").CreateElement("ext:UBLExtension")
	ext.CreateElement("ext:ExtensionURI").SetText(ExtensionURIXAdES)
	sigs := ext.CreateElement("ext:ExtensionContent").CreateElement("sig:UBLDocumentSignatures")
	sigs.CreateAttr("xmlns:sig", NsSig)
	sigs.CreateAttr("xmlns:sac", NsSac)
	sigs.CreateAttr("xmlns:sbc", NsSbc)
	info := sigs.CreateElement("sac:SignatureInformation")
	cbc(info, "ID", SignatureInformationID)
	info.CreateElement("sbc:ReferencedSignatureID").SetText(SignatureInvoiceID)
}

func writeSupplierParty(root *etree.Element, c *entity.Company) {
	party := cac(cac(root, "AccountingSupplierParty"), "Party")
	if c.LicenseNo != "" {
		cbc(cac(party, "PartyIdentification"), "ID", c.LicenseNo).CreateAttr("schemeID", c.LicenseScheme)
	}
	writeAddress(party, c.Address)
	pts := cac(party, "PartyTaxScheme")
	cbc(pts, "CompanyID", c.VAT)
	cbc(cac(pts, "TaxScheme"), "ID", zatca.TaxSchemeVAT)
	cbc(cac(party, "PartyLegalEntity"), "RegistrationName", c.Name)
}

func writeCustomerParty(root *etree.Element, ctx *InvoiceBuildContext) {
	p := ctx.Partner
	party := cac(cac(root, "AccountingCustomerParty"), "Party")
	if p.IdentificationID != "" {
		cbc(cac(party, "PartyIdentification"), "ID", p.IdentificationID).CreateAttr("schemeID", p.IDScheme)
	}
	if ctx.Classification.TaxInvoice {
		writeAddress(party, p.Address)
	}
	// BT-48: no aplica en exportaciones
	if p.VAT != "" && !ctx.Invoice.Flags.Export {
		pts := cac(party, "PartyTaxScheme")
		cbc(pts, "CompanyID", p.VAT)
		cbc(cac(pts, "TaxScheme"), "ID", zatca.TaxSchemeVAT)
	}
	if p.Name != "" {
		cbc(cac(party, "PartyLegalEntity"), "RegistrationName", p.Name)
	}
}

func writeAddress(party *etree.Element, a entity.Address) {
	addr := cac(party, "PostalAddress")
	optionalCbc(addr, "StreetName", a.Street)
	optionalCbc(addr, "AdditionalStreetName", a.Street2)
	optionalCbc(addr, "BuildingNumber", a.BuildingNo)
	optionalCbc(addr, "PlotIdentification", a.AdditionalNo)
	optionalCbc(addr, "CitySubdivisionName", a.District)
	optionalCbc(addr, "CityName", a.City)
	optionalCbc(addr, "PostalZone", a.Zip)
	optionalCbc(addr, "CountrySubentity", a.State)
	if a.CountryCode != "" {
		cbc(cac(addr, "Country"), "IdentificationCode", a.CountryCode)
	}
}

// ── Totales ─────────────────────────────────────────────────────────────────

func writeTaxTotals(root *etree.Element, t domzatca.Totals) {
	tt := cac(root, "TaxTotal")
	amount(tt, "TaxAmount", t.TaxTotal)
	for _, st := range t.Subtotals {
		sub := cac(tt, "TaxSubtotal")
		amount(sub, "TaxableAmount", st.TaxableAmount)
		amount(sub, "TaxAmount", st.TaxAmount)
		cat := cac(sub, "TaxCategory")
		id := cbc(cat, "ID", st.Category)
		id.CreateAttr("schemeID", "UN/ECE 5305")
		id.CreateAttr("schemeAgencyID", "6")
		if st.Category != zatca.TaxCategoryOutOfScope {
			cbc(cat, "Percent", st.Percent.StringFixed(2))
		}
		if st.ExemptionCode != "" {
			cbc(cat, "TaxExemptionReasonCode", st.ExemptionCode)
			cbc(cat, "TaxExemptionReason", st.ExemptionReason)
		}
		scheme := cbc(cac(cat, "TaxScheme"), "ID", zatca.TaxSchemeVAT)
		scheme.CreateAttr("schemeID", "UN/ECE 5153")
		scheme.CreateAttr("schemeAgencyID", "6")
	}

	// BT-111: total de IVA en la moneda de impuestos
	amount(cac(root, "TaxTotal"), "TaxAmount", t.TaxTotal)
}

func writeLegalMonetaryTotal(root *etree.Element, t domzatca.Totals) {
	lmt := cac(root, "LegalMonetaryTotal")
	amount(lmt, "LineExtensionAmount", t.LineExtension)
	amount(lmt, "TaxExclusiveAmount", t.TaxExclusive)
	amount(lmt, "TaxInclusiveAmount", t.TaxInclusive)
	amount(lmt, "AllowanceTotalAmount", t.AllowanceTotal)
	if !t.Prepaid.IsZero() {
		amount(lmt, "PrepaidAmount", t.Prepaid)
	}
	amount(lmt, "PayableAmount", t.Payable)
}

func writeInvoiceLine(root *etree.Element, n int, la domzatca.LineAmounts, taxInvoice bool) {
	l := la.Line
	line := cac(root, "InvoiceLine")
	cbc(line, "ID", strconv.Itoa(n))
	cbc(line, "InvoicedQuantity", formatQuantity(l.Quantity)).CreateAttr("unitCode", zatca.UnitCodePiece)
	amount(line, "LineExtensionAmount", la.Net)

	if la.Discount.IsPositive() {
		ac := cac(line, "AllowanceCharge")
		cbc(ac, "ChargeIndicator", "false")
		cbc(ac, "AllowanceChargeReasonCode", "95")
		cbc(ac, "AllowanceChargeReason", "Discount")
		amount(ac, "Amount", la.Discount)
		writeCategory(cac(ac, "TaxCategory"), la)
	}

	if taxInvoice {
		tt := cac(line, "TaxTotal")
		amount(tt, "TaxAmount", la.TaxAmount)          // KSA-11
		amount(tt, "RoundingAmount", la.AmountWithTax) // KSA-12
	}

	item := cac(line, "Item")
	name := l.ProductName
	if name == "" {
		name = "Item " + strconv.Itoa(n)
	}
	cbc(item, "Name", name)
	if l.Barcode != "" {
		id := cbc(cac(item, "StandardItemIdentification"), "ID", l.Barcode)
		if l.BarcodeScheme != "" {
			id.CreateAttr("schemeID", l.BarcodeScheme)
		}
	}
	writeCategory(cac(item, "ClassifiedTaxCategory"), la)

	price := cac(line, "Price")
	cbc(price, "PriceAmount", formatQuantity(l.UnitPrice)).CreateAttr("currencyID", zatca.CurrencySAR)
	cbc(price, "BaseQuantity", "1").CreateAttr("unitCode", zatca.UnitCodePiece)
}

func writeCategory(cat *etree.Element, la domzatca.LineAmounts) {
	cbc(cat, "ID", la.Category)
	if la.Category != zatca.TaxCategoryOutOfScope {
		cbc(cat, "Percent", la.Percent.StringFixed(2))
	}
	cbc(cac(cat, "TaxScheme"), "ID", zatca.TaxSchemeVAT)
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func cac(parent *etree.Element, local string) *etree.Element {
	return parent.CreateElement("cac:" + local)
}

func cbc(parent *etree.Element, local, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + local)
	if value != "" {
		el.SetText(norm.NFC.String(value))
	}
	return el
}

func optionalCbc(parent *etree.Element, local, value string) {
	if value != "" {
		cbc(parent, local, value)
	}
}

func amount(parent *etree.Element, local string, d decimal.Decimal) *etree.Element {
	el := cbc(parent, local, d.StringFixed(2))
	el.CreateAttr("currencyID", zatca.CurrencySAR)
	return el
}

// formatQuantity al menos 2 decimales y hasta 6, para que precio × cantidad cuadre.
func formatQuantity(d decimal.Decimal) string {
	r := d.Round(6)
	if r.Equal(r.Round(2)) {
		return r.StringFixed(2)
	}
	return r.String()
}

// dateOnly fecha en UTC sin hora.
func dateOnly(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
