package zatca_test

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca/signer"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca/zatcatest"
	pkgzatca "github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func buildContext(signed bool) *zatca.InvoiceBuildContext {
	ctx := zatca.NewInvoiceBuildContext(zatcatest.Invoice(1), zatcatest.Company(), zatcatest.Partner(), zatcatest.Lines(), nil)
	ctx.ICV = 1
	ctx.PIH = pkgzatca.PlaceholderPIH
	ctx.Signed = signed
	return ctx
}

// generate reproduce el flujo completo: construir, hashear, firmar, QR y serializar.
func generate(t *testing.T, mat zatcatest.Material, signingTime time.Time) ([]byte, *zatca.HashResult) {
	t.Helper()
	ctx := buildContext(true)
	doc, err := zatca.NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)

	hash, err := zatca.NewCanonicalizer().HashDocument(doc)
	require.NoError(t, err)

	svc := signer.NewDigitalSignatureService(signer.WithClock(func() time.Time { return signingTime }))
	sig, err := svc.Sign(doc, hash.Base64, mat.SigningMaterial)
	require.NoError(t, err)

	qr, err := zatca.BuildQR(zatca.QRInput{
		SellerName:   ctx.Company.Name,
		VATNumber:    ctx.Company.VAT,
		Timestamp:    ctx.Invoice.IssuedAt,
		TotalWithVAT: ctx.Totals.TaxInclusive,
		VATTotal:     ctx.Totals.TaxTotal,
		InvoiceHash:  hash.Base64,
		Signature:    sig,
	})
	require.NoError(t, err)
	require.NoError(t, zatca.NewXMLBuilderService().SetQR(doc, qr))

	out, err := doc.WriteToBytes()
	require.NoError(t, err)
	return out, hash
}

func text(t *testing.T, doc *etree.Document, path string) string {
	t.Helper()
	el := doc.FindElement(path)
	require.NotNil(t, el, "no se encontró %s", path)
	return el.Text()
}

// ──────────────────────────────────────────────────────────────────────────────
// Construcción del documento
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_TotalesDeExtremoAExtremo(t *testing.T) {
	doc, err := zatca.NewXMLBuilderService().Build(buildContext(false))
	require.NoError(t, err)

	assert.Equal(t, "200.00", text(t, doc, "//cac:LegalMonetaryTotal/cbc:LineExtensionAmount"))
	assert.Equal(t, "30.00", text(t, doc, "//cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "230.00", text(t, doc, "//cac:LegalMonetaryTotal/cbc:TaxInclusiveAmount"))
	assert.Equal(t, "230.00", text(t, doc, "//cac:LegalMonetaryTotal/cbc:PayableAmount"))
	assert.Equal(t, "200.00", text(t, doc, "//cac:InvoiceLine/cbc:LineExtensionAmount"))
	assert.Equal(t, "30.00", text(t, doc, "//cac:InvoiceLine/cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "230.00", text(t, doc, "//cac:InvoiceLine/cac:TaxTotal/cbc:RoundingAmount"))
	assert.Equal(t, "SAR", doc.FindElement("//cac:LegalMonetaryTotal/cbc:PayableAmount").SelectAttrValue("currencyID", ""))
}

func TestBuild_Cabecera(t *testing.T) {
	doc, err := zatca.NewXMLBuilderService().Build(buildContext(false))
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Invoice", root.Tag)
	assert.Equal(t, "ProfileID", root.ChildElements()[0].Tag, "sin firma no hay UBLExtensions")

	assert.Equal(t, "INV/2024/0001", text(t, doc, "/Invoice/cbc:ID"))
	assert.Equal(t, "2024-03-01", text(t, doc, "/Invoice/cbc:IssueDate"))
	assert.Equal(t, "10:30:00Z", text(t, doc, "/Invoice/cbc:IssueTime"))
	code := doc.FindElement("/Invoice/cbc:InvoiceTypeCode")
	require.NotNil(t, code)
	assert.Equal(t, "388", code.Text())
	assert.Equal(t, "0100000", code.SelectAttrValue("name", ""))
	assert.Equal(t, "1", text(t, doc, "//cac:AdditionalDocumentReference[cbc:ID='ICV']/cbc:UUID"))
	assert.Equal(t, pkgzatca.PlaceholderPIH, text(t, doc, "//cac:AdditionalDocumentReference[cbc:ID='PIH']/cac:Attachment/cbc:EmbeddedDocumentBinaryObject"))
	assert.Nil(t, doc.FindElement("//cac:AdditionalDocumentReference[cbc:ID='QR']"))
	assert.Equal(t, "2024-03-01", text(t, doc, "//cac:Delivery/cbc:ActualDeliveryDate"))
	assert.Equal(t, "48", text(t, doc, "//cac:PaymentMeans/cbc:PaymentMeansCode"), "388 sin medio de pago declarado")
	assert.Equal(t, "شركة المثال", text(t, doc, "//cac:AccountingSupplierParty//cbc:RegistrationName"))
}

func TestBuild_Simplificada(t *testing.T) {
	ctx := buildContext(true)
	ctx.Invoice.Simplified = true
	ctx = zatca.NewInvoiceBuildContext(ctx.Invoice, ctx.Company, ctx.Partner, ctx.Lines, nil)
	ctx.ICV, ctx.PIH, ctx.Signed = 2, "abc=", true

	doc, err := zatca.NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, "0200000", doc.FindElement("/Invoice/cbc:InvoiceTypeCode").SelectAttrValue("name", ""))
	assert.Nil(t, doc.FindElement("//cac:Delivery"))
	assert.Nil(t, doc.FindElement("//cac:PaymentMeans"))
	assert.Nil(t, doc.FindElement("//cac:AccountingCustomerParty//cac:PostalAddress"))
	assert.Nil(t, doc.FindElement("//cac:InvoiceLine/cac:TaxTotal"))
	assert.Equal(t, "UBLExtensions", doc.Root().ChildElements()[0].Tag)
	assert.NotNil(t, doc.FindElement("/Invoice/cac:Signature"))
}

func TestBuild_NotaCredito(t *testing.T) {
	original := zatcatest.Invoice(1)
	inv := zatcatest.Invoice(2)
	inv.Kind = entity.InvoiceKindCreditNote
	inv.OriginalInvoiceID = &original.ID
	inv.CreditDebitReason = "Devolución de mercancía"

	ctx := zatca.NewInvoiceBuildContext(inv, zatcatest.Company(), zatcatest.Partner(), zatcatest.Lines(), original)
	ctx.ICV, ctx.PIH = 2, "abc="
	doc, err := zatca.NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, "381", text(t, doc, "/Invoice/cbc:InvoiceTypeCode"))
	assert.Equal(t, "Invoice Number: INV/2024/0001; Invoice Issue Date: 2024-03-01",
		text(t, doc, "//cac:BillingReference/cac:InvoiceDocumentReference/cbc:ID"))
	assert.Equal(t, "Devolución de mercancía", text(t, doc, "//cac:PaymentMeans/cbc:InstructionNote"))
	assert.Equal(t, "10", text(t, doc, "//cac:PaymentMeans/cbc:PaymentMeansCode"))
	assert.Nil(t, doc.FindElement("//cac:Delivery"), "solo las facturas 388 llevan fecha de entrega")
}

func TestBuild_DescuentoYExencion(t *testing.T) {
	lines := []*entity.InvoiceLine{
		{ProductName: "A", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), Discount: decimal.NewFromInt(10), TaxCategory: "S", TaxPercent: decimal.NewFromInt(15)},
		{ProductName: "B", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50), TaxCategory: "Z", ExemptionCode: "VATEX-SA-32"},
	}
	ctx := zatca.NewInvoiceBuildContext(zatcatest.Invoice(1), zatcatest.Company(), zatcatest.Partner(), lines, nil)
	ctx.ICV, ctx.PIH = 1, pkgzatca.PlaceholderPIH
	doc, err := zatca.NewXMLBuilderService().Build(ctx)
	require.NoError(t, err)

	ac := doc.FindElement("//cac:InvoiceLine/cac:AllowanceCharge")
	require.NotNil(t, ac)
	assert.Equal(t, "false", ac.FindElement("cbc:ChargeIndicator").Text())
	assert.Equal(t, "95", ac.FindElement("cbc:AllowanceChargeReasonCode").Text())
	assert.Equal(t, "10.00", ac.FindElement("cbc:Amount").Text())

	subs := doc.FindElements("/Invoice/cac:TaxTotal/cac:TaxSubtotal")
	require.Len(t, subs, 2)
	assert.Equal(t, "VATEX-SA-32", subs[1].FindElement("cac:TaxCategory/cbc:TaxExemptionReasonCode").Text())
	assert.Equal(t, "Export of goods", subs[1].FindElement("cac:TaxCategory/cbc:TaxExemptionReason").Text())
	assert.Equal(t, "13.50", text(t, doc, "/Invoice/cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "140.00", text(t, doc, "//cac:LegalMonetaryTotal/cbc:TaxExclusiveAmount"))
}

func TestBuild_SinPIH(t *testing.T) {
	ctx := buildContext(false)
	ctx.PIH = ""
	_, err := zatca.NewXMLBuilderService().Build(ctx)
	assert.Error(t, err)
}

func TestSetQR_SinReferencia(t *testing.T) {
	doc, err := zatca.NewXMLBuilderService().Build(buildContext(false))
	require.NoError(t, err)
	assert.Error(t, zatca.NewXMLBuilderService().SetQR(doc, "x"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Hash canónico
// ──────────────────────────────────────────────────────────────────────────────

func TestHash_Determinista(t *testing.T) {
	b := zatca.NewXMLBuilderService()
	c := zatca.NewCanonicalizer()

	doc1, err := b.Build(buildContext(true))
	require.NoError(t, err)
	doc2, err := b.Build(buildContext(true))
	require.NoError(t, err)

	h1, err := c.HashDocument(doc1)
	require.NoError(t, err)
	h2, err := c.HashDocument(doc2)
	require.NoError(t, err)

	assert.Equal(t, h1.Base64, h2.Base64)
	assert.Equal(t, h1.Hex, h2.Hex)
	assert.Len(t, h1.Hex, 64)
	assert.Equal(t, h1.Canonical, h2.Canonical)
}

func TestHash_NoDependeDeLaFirma(t *testing.T) {
	mat := zatcatest.NewMaterial(t)
	out1, h1 := generate(t, mat, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC))
	out2, h2 := generate(t, mat, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.NotEqual(t, out1, out2, "la hora de firma y la firma ECDSA cambian el documento")
	assert.Equal(t, h1.Base64, h2.Base64)

	c := zatca.NewCanonicalizer()
	re1, err := c.HashXML(out1, zatca.Options{})
	require.NoError(t, err)
	re2, err := c.HashXML(out2, zatca.Options{})
	require.NoError(t, err)
	assert.Equal(t, h1.Base64, re1.Base64, "el documento firmado conserva el hash calculado antes de firmar")
	assert.Equal(t, h1.Base64, re2.Base64)
}

func TestHash_SubarbolEliminado(t *testing.T) {
	out, h := generate(t, zatcatest.NewMaterial(t), zatcatest.IssuedAt)

	full := string(out)
	require.Contains(t, full, "UBLExtensions")
	require.Contains(t, full, "<cac:Signature>")
	require.Contains(t, full, "ds:SignatureValue")

	for _, b := range [][]byte{h.Canonical, h.Stripped} {
		s := string(b)
		assert.NotContains(t, s, "UBLExtensions")
		assert.NotContains(t, s, "<cac:Signature>")
		assert.NotContains(t, s, "X509Certificate")
		assert.NotContains(t, s, ">QR<")
		assert.Contains(t, s, ">PIH<")
		assert.Contains(t, s, ">ICV<")
	}
	assert.True(t, strings.HasPrefix(string(h.Stripped), "<?xml"))
}

func TestHashXML_ArtefactoHash(t *testing.T) {
	_, h := generate(t, zatcatest.NewMaterial(t), zatcatest.IssuedAt)
	c := zatca.NewCanonicalizer()

	again, err := c.HashXML(h.Stripped, zatca.Options{})
	require.NoError(t, err)
	assert.Equal(t, h.Base64, again.Base64)

	skip, err := c.HashXML(h.Stripped, zatca.Options{SkipTransform: true})
	require.NoError(t, err)
	assert.Equal(t, h.Base64, skip.Base64)
}

func TestHashXML_SkipTransformNoElimina(t *testing.T) {
	out, h := generate(t, zatcatest.NewMaterial(t), zatcatest.IssuedAt)
	skip, err := zatca.NewCanonicalizer().HashXML(out, zatca.Options{SkipTransform: true})
	require.NoError(t, err)
	assert.NotEqual(t, h.Base64, skip.Base64)
	assert.Contains(t, string(skip.Canonical), "UBLExtensions")
}

func TestHashXML_Invalido(t *testing.T) {
	_, err := zatca.NewCanonicalizer().HashXML([]byte("<Invoice>"), zatca.Options{})
	assert.Error(t, err)
}

func TestStrip_QRConEspacios(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<Invoice xmlns:cac="a" xmlns:cbc="b">
<cac:AdditionalDocumentReference><cbc:ID>  QR
</cbc:ID></cac:AdditionalDocumentReference>
<cac:AdditionalDocumentReference><cbc:ID>PIH</cbc:ID></cac:AdditionalDocumentReference>
<cac:Party><cac:Signature/></cac:Party>
<cac:Signature/>
</Invoice>`))
	zatca.NewCanonicalizer().Strip(doc.Root())

	refs := doc.FindElements("//cac:AdditionalDocumentReference")
	require.Len(t, refs, 1)
	assert.Equal(t, "PIH", refs[0].FindElement("cbc:ID").Text())
	assert.Nil(t, doc.FindElement("/Invoice/cac:Signature"))
	assert.NotNil(t, doc.FindElement("//cac:Party/cac:Signature"), "solo se eliminan los cac:Signature hijos de Invoice")
}

// ──────────────────────────────────────────────────────────────────────────────
// QR
// ──────────────────────────────────────────────────────────────────────────────

func TestBuildQR_SinFirma(t *testing.T) {
	qr, err := zatca.BuildQR(zatca.QRInput{
		SellerName: "شركة المثال", VATNumber: "300000000000003", Timestamp: zatcatest.IssuedAt,
		TotalWithVAT: decimal.RequireFromString("230"), VATTotal: decimal.RequireFromString("30"),
	})
	require.NoError(t, err)

	tags, err := pkgzatca.DecodeTLV(qr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, pkgzatca.SortedTags(tags))
	assert.Equal(t, "شركة المثال", string(tags[pkgzatca.TagSellerName]))
	assert.Equal(t, "2024-03-01T10:30:00Z", string(tags[pkgzatca.TagTimestamp]))
	assert.Equal(t, "230.00", string(tags[pkgzatca.TagTotalWithVAT]))
	assert.Equal(t, "30.00", string(tags[pkgzatca.TagVATTotal]))
}

func TestBuildQR_FirmadaSimplificada(t *testing.T) {
	sig := &pkgzatca.SignatureResult{SignatureValue: []byte{1, 2, 3}, PublicKey: []byte{4, 5}, CertSignature: []byte{6}}
	in := zatca.QRInput{
		SellerName: "S", VATNumber: "300000000000003", Timestamp: zatcatest.IssuedAt,
		InvoiceHash: "aGFzaA==", Signature: sig,
	}
	qr, err := zatca.BuildQR(in)
	require.NoError(t, err)
	tags, err := pkgzatca.DecodeTLV(qr)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, pkgzatca.SortedTags(tags))
	assert.Equal(t, "AQID", string(tags[pkgzatca.TagSignature]))

	in.Simplified = true
	qr, err = zatca.BuildQR(in)
	require.NoError(t, err)
	tags, err = pkgzatca.DecodeTLV(qr)
	require.NoError(t, err)
	assert.Equal(t, []byte{6}, tags[pkgzatca.TagCertSignature])
}

// ──────────────────────────────────────────────────────────────────────────────
// Nombres de archivo y ZIP
// ──────────────────────────────────────────────────────────────────────────────

func TestFilenames(t *testing.T) {
	xmlName, hashName, clearedName := zatca.Filenames(zatcatest.Company(), zatcatest.Invoice(1))
	assert.Equal(t, "300000000000003_20240301T103000Z_INV-2024-0001.xml", xmlName)
	assert.Equal(t, "300000000000003_20240301T103000Z_INV-2024-0001_hash.xml", hashName)
	assert.Equal(t, "300000000000003_20240301T103000Z_INV-2024-0001_cleared.xml", clearedName)
	assert.Equal(t, "300000000000003_20240301T103000Z_INV-2024-0001.zip", zatca.BundleName(xmlName))
}

func TestCompressToZip(t *testing.T) {
	data, err := zatca.CompressToZip([]zatca.ZipEntry{{Name: "a.xml", Data: []byte("<a/>")}, {Name: "vacio.xml"}})
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))
}
