package zatca_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	pkgzatca "github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validAddress() entity.Address {
	return entity.Address{
		Street: "King Fahd Road", BuildingNo: "1234", AdditionalNo: "5678",
		District: "Al Olaya", City: "Riyadh", Zip: "12345", State: "Riyadh", CountryCode: "SA",
	}
}

func fixture() zatca.ValidationInput {
	return zatca.ValidationInput{
		Invoice: &entity.Invoice{
			ID: 10, CompanyID: "c1", Kind: entity.InvoiceKindInvoice, State: entity.InvoiceStatePosted,
			IssuedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), Currency: "SAR",
		},
		Company: &entity.Company{
			ID: "c1", Name: "Seller Co", VAT: "300000000000003", LicenseScheme: "CRN", LicenseNo: "1010010000",
			Currency: "SAR", Address: validAddress(),
		},
		Partner: &entity.Partner{ID: "p1", Name: "Buyer Co", VAT: "311111111111113", IDScheme: "CRN", IdentificationID: "2020020000", Address: validAddress()},
		Lines: []*entity.InvoiceLine{
			{ID: 1, ProductName: "Widget", Quantity: d("2"), UnitPrice: d("100"), TaxCategory: "S", TaxPercent: d("15")},
		},
		Now: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Totales
// ──────────────────────────────────────────────────────────────────────────────

func TestComputeTotals_CasoBasico(t *testing.T) {
	in := fixture()
	tot := zatca.ComputeTotals(in.Invoice, in.Lines)

	assert.Equal(t, "200.00", tot.LineExtension.StringFixed(2))
	assert.Equal(t, "200.00", tot.TaxExclusive.StringFixed(2))
	assert.Equal(t, "30.00", tot.TaxTotal.StringFixed(2))
	assert.Equal(t, "230.00", tot.TaxInclusive.StringFixed(2))
	assert.Equal(t, "230.00", tot.Payable.StringFixed(2))
	assert.True(t, tot.Prepaid.IsZero())

	require.Len(t, tot.Lines, 1)
	assert.Equal(t, "30.00", tot.Lines[0].TaxAmount.StringFixed(2))
	assert.Equal(t, "230.00", tot.Lines[0].AmountWithTax.StringFixed(2))
	require.Len(t, tot.Subtotals, 1)
	assert.Equal(t, "S", tot.Subtotals[0].Category)
	assert.Equal(t, "200.00", tot.Subtotals[0].TaxableAmount.StringFixed(2))
}

func TestComputeTotals_RedondeoPorPaso(t *testing.T) {
	// 3 × 0.335 = 1.005 → 1.01 ; descuento 10% → 0.101 → 0.10 ; neto 0.91
	lines := []*entity.InvoiceLine{
		{Quantity: d("3"), UnitPrice: d("0.335"), Discount: d("10"), TaxCategory: "S", TaxPercent: d("15")},
		{Quantity: d("1"), UnitPrice: d("0.005"), TaxCategory: "S", TaxPercent: d("15")},
	}
	tot := zatca.ComputeTotals(&entity.Invoice{}, lines)

	assert.Equal(t, "1.01", tot.Lines[0].Gross.StringFixed(2))
	assert.Equal(t, "0.10", tot.Lines[0].Discount.StringFixed(2))
	assert.Equal(t, "0.91", tot.Lines[0].Net.StringFixed(2))
	assert.Equal(t, "0.01", tot.Lines[1].Net.StringFixed(2))
	// Cada monto intermedio ya tiene 2 decimales exactos.
	for _, l := range tot.Lines {
		for _, v := range []decimal.Decimal{l.Gross, l.Discount, l.Net, l.TaxAmount, l.AmountWithTax} {
			assert.True(t, v.Equal(v.Round(2)), "monto %s no está redondeado", v)
		}
	}
	assert.Equal(t, "0.92", tot.LineExtension.StringFixed(2))
	// IVA del grupo sobre el base redondeado: 0.92 × 15% = 0.138 → 0.14
	assert.Equal(t, "0.14", tot.TaxTotal.StringFixed(2))
	assert.Equal(t, "1.06", tot.TaxInclusive.StringFixed(2))
}

func TestComputeTotals_CategoriasSinIVA(t *testing.T) {
	lines := []*entity.InvoiceLine{
		{Quantity: d("1"), UnitPrice: d("50"), TaxCategory: "Z", TaxPercent: d("15"), ExemptionCode: "VATEX-SA-32"},
		{Quantity: d("1"), UnitPrice: d("20"), TaxCategory: "", TaxPercent: d("15")},
		{Quantity: d("1"), UnitPrice: d("100"), TaxCategory: "S", TaxPercent: d("150")},
	}
	tot := zatca.ComputeTotals(&entity.Invoice{}, lines)

	assert.True(t, tot.Lines[0].Percent.IsZero(), "Z fuerza 0%")
	assert.Equal(t, "O", tot.Lines[1].Category, "categoría vacía equivale a O")
	assert.True(t, tot.Lines[1].Percent.IsZero())
	assert.Equal(t, "100", tot.Lines[2].Percent.String(), "la tasa se limita a 100")

	require.Len(t, tot.Subtotals, 3)
	assert.Equal(t, "VATEX-SA-32", tot.Subtotals[0].ExemptionCode)
	assert.Equal(t, "Export of goods", tot.Subtotals[0].ExemptionReason)
	assert.Equal(t, pkgzatca.ExemptionOutOfScope, tot.Subtotals[1].ExemptionCode)
	assert.Equal(t, pkgzatca.OutOfScopeReason, tot.Subtotals[1].ExemptionReason)
	assert.Equal(t, "100.00", tot.TaxTotal.StringFixed(2))
}

func TestComputeTotals_AgrupaPorTasa(t *testing.T) {
	lines := []*entity.InvoiceLine{
		{Quantity: d("1"), UnitPrice: d("100"), TaxCategory: "S", TaxPercent: d("15")},
		{Quantity: d("1"), UnitPrice: d("100"), TaxCategory: "S", TaxPercent: d("5")},
		{Quantity: d("1"), UnitPrice: d("10"), TaxCategory: "S", TaxPercent: d("15")},
	}
	tot := zatca.ComputeTotals(&entity.Invoice{}, lines)

	require.Len(t, tot.Subtotals, 2)
	assert.Equal(t, "110.00", tot.Subtotals[0].TaxableAmount.StringFixed(2))
	assert.Equal(t, "16.50", tot.Subtotals[0].TaxAmount.StringFixed(2))
	assert.Equal(t, "5.00", tot.Subtotals[1].TaxAmount.StringFixed(2))
	assert.Equal(t, "21.50", tot.TaxTotal.StringFixed(2))
}

func TestComputeTotals_FueraDeAlcanceUnSoloSubtotal(t *testing.T) {
	lines := []*entity.InvoiceLine{
		{Quantity: d("1"), UnitPrice: d("30"), TaxCategory: "O", ExemptionCode: "VATEX-SA-32"},
		{Quantity: d("1"), UnitPrice: d("20"), TaxCategory: "O", ExemptionCode: "VATEX-SA-35"},
		{Quantity: d("1"), UnitPrice: d("10"), TaxCategory: "O"},
		{Quantity: d("1"), UnitPrice: d("100"), TaxCategory: "S", TaxPercent: d("15"), ExemptionCode: "VATEX-SA-32"},
		{Quantity: d("1"), UnitPrice: d("100"), TaxCategory: "S", TaxPercent: d("15")},
	}
	tot := zatca.ComputeTotals(&entity.Invoice{}, lines)

	require.Len(t, tot.Subtotals, 2)
	assert.Equal(t, "O", tot.Subtotals[0].Category)
	assert.Equal(t, pkgzatca.ExemptionOutOfScope, tot.Subtotals[0].ExemptionCode)
	assert.Equal(t, "60.00", tot.Subtotals[0].TaxableAmount.StringFixed(2))
	assert.Equal(t, "S", tot.Subtotals[1].Category)
	assert.Empty(t, tot.Subtotals[1].ExemptionCode)
	assert.Equal(t, "200.00", tot.Subtotals[1].TaxableAmount.StringFixed(2))
	assert.Equal(t, "30.00", tot.Subtotals[1].TaxAmount.StringFixed(2))
}

func TestComputeTotals_Anticipo(t *testing.T) {
	in := fixture()
	in.Invoice.AmountTotal = d("230")
	in.Invoice.AmountResidual = d("30")
	tot := zatca.ComputeTotals(in.Invoice, in.Lines)

	assert.Equal(t, "200.00", tot.Prepaid.StringFixed(2))
	assert.Equal(t, "30.00", tot.Payable.StringFixed(2))

	in.Invoice.AmountResidual = d("-100")
	tot = zatca.ComputeTotals(in.Invoice, in.Lines)
	assert.True(t, tot.Payable.IsZero(), "el saldo a pagar nunca es negativo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Clasificación
// ──────────────────────────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	in := fixture()
	c := zatca.Classify(in.Invoice, in.Lines)
	assert.Equal(t, "388", c.TypeCode)
	assert.True(t, c.TaxInvoice)
	assert.Equal(t, "0100000", c.SubtypeName)

	credit := &entity.Invoice{Kind: entity.InvoiceKindCreditNote}
	assert.Equal(t, "381", zatca.TypeCode(credit))
	debit := &entity.Invoice{Kind: entity.InvoiceKindDebitNote}
	assert.Equal(t, "383", zatca.TypeCode(debit))

	outOfScope := []*entity.InvoiceLine{{TaxCategory: "O"}}
	c = zatca.Classify(&entity.Invoice{}, outOfScope)
	assert.False(t, c.TaxInvoice, "una línea O hace la factura simplificada")
	assert.Equal(t, "0200000", c.SubtypeName)
}

func TestClassify_Banderas(t *testing.T) {
	lines := []*entity.InvoiceLine{{TaxCategory: "S"}}
	inv := &entity.Invoice{Flags: entity.TransactionFlags{Export: true, SelfBilled: true, Summary: true}}
	assert.Equal(t, "0100110", zatca.Classify(inv, lines).SubtypeName, "exportación nunca es autofacturada")

	inv.Simplified = true
	assert.Equal(t, "0200010", zatca.Classify(inv, lines).SubtypeName, "simplificada no admite exportación")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateInvoice_Valida(t *testing.T) {
	assert.NoError(t, zatca.ValidateInvoice(fixture()))
}

func TestValidateInvoice_MonedaNoSAR(t *testing.T) {
	in := fixture()
	in.Company.Currency = "USD"
	err := zatca.ValidateInvoice(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, zatca.ErrInvalidInvoice))
	assert.Contains(t, err.Error(), "SAR")
}

func TestValidateInvoice_Reglas(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*zatca.ValidationInput)
		expect string
	}{
		{"sin lineas", func(in *zatca.ValidationInput) { in.Lines = nil }, "al menos una línea"},
		{"fecha futura", func(in *zatca.ValidationInput) { in.Invoice.IssuedAt = in.Now.Add(time.Hour) }, "futura"},
		{"direccion empresa", func(in *zatca.ValidationInput) { in.Company.Address.District = "" }, "district"},
		{"numero adicional", func(in *zatca.ValidationInput) { in.Company.Address.AdditionalNo = "12" }, "4 dígitos"},
		{"codigo postal", func(in *zatca.ValidationInput) { in.Company.Address.Zip = "1234" }, "5 dígitos"},
		{"iva empresa", func(in *zatca.ValidationInput) { in.Company.VAT = "123" }, "IVA de la empresa"},
		{"direccion cliente", func(in *zatca.ValidationInput) { in.Partner.Address.City = "" }, "dirección del cliente"},
		{"nota sin motivo", func(in *zatca.ValidationInput) {
			id := int64(3)
			in.Invoice.Kind = entity.InvoiceKindCreditNote
			in.Invoice.OriginalInvoiceID = &id
			in.Original = &entity.Invoice{ID: 3}
		}, "KSA-10"},
		{"nota sin original", func(in *zatca.ValidationInput) {
			in.Invoice.Kind = entity.InvoiceKindDebitNote
			in.Invoice.CreditDebitReason = "ajuste"
		}, "factura original"},
		{"exencion invalida", func(in *zatca.ValidationInput) {
			in.Lines[0].TaxCategory = "E"
			in.Lines[0].ExemptionCode = "VATEX-SA-32"
		}, "no válido para la categoría E"},
		{"BR-KSA-49", func(in *zatca.ValidationInput) {
			in.Lines[0].TaxCategory = "Z"
			in.Lines[0].ExemptionCode = "VATEX-SA-EDU"
		}, "NAT"},
		{"cantidad cero", func(in *zatca.ValidationInput) { in.Lines[0].Quantity = decimal.Zero }, "cantidad"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := fixture()
			tc.mutate(&in)
			err := zatca.ValidateInvoice(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, zatca.ErrInvalidInvoice)
			assert.Contains(t, err.Error(), tc.expect)
		})
	}
}

func TestValidateInvoice_SimplificadaSinDireccionCliente(t *testing.T) {
	in := fixture()
	in.Invoice.Simplified = true
	in.Partner.Address = entity.Address{}
	assert.NoError(t, zatca.ValidateInvoice(in))
}

func TestValidateInvoice_ReportaTodosLosErrores(t *testing.T) {
	in := fixture()
	in.Company.Currency = "EUR"
	in.Company.Address.Zip = "1"
	in.Lines = nil
	err := zatca.ValidateInvoice(in)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "SAR")
	assert.Contains(t, msg, "5 dígitos")
	assert.Contains(t, msg, "al menos una línea")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cadena PIH
// ──────────────────────────────────────────────────────────────────────────────

func TestResolvePIH(t *testing.T) {
	pih, fallback, err := zatca.ResolvePIH(nil, true)
	require.NoError(t, err)
	assert.Equal(t, pkgzatca.PlaceholderPIH, pih)
	assert.False(t, fallback)

	pih, fallback, err = zatca.ResolvePIH(&entity.Invoice{ID: 4, Hash: "abc="}, true)
	require.NoError(t, err)
	assert.Equal(t, "abc=", pih)
	assert.False(t, fallback)

	pih, fallback, err = zatca.ResolvePIH(&entity.Invoice{ID: 4}, false)
	require.NoError(t, err)
	assert.Equal(t, pkgzatca.PlaceholderPIH, pih)
	assert.True(t, fallback)

	_, _, err = zatca.ResolvePIH(&entity.Invoice{ID: 4}, true)
	assert.ErrorIs(t, err, zatca.ErrBrokenChain)
}

func TestVerifyLinks_CadenaValida(t *testing.T) {
	links := []zatca.ChainLink{
		{InvoiceID: 1, PIH: pkgzatca.PlaceholderPIH, Hash: "h1", Recomputed: "h1"},
		{InvoiceID: 2, PIH: "h1", Hash: "h2", Recomputed: "h2"},
		{InvoiceID: 5, PIH: "h2", Hash: "h5"},
	}
	assert.Empty(t, zatca.VerifyLinks(links))
}

func TestVerifyLinks_Hallazgos(t *testing.T) {
	links := []zatca.ChainLink{
		{InvoiceID: 1, PIH: "otro", Hash: "h1"},
		{InvoiceID: 2, PIH: "h1", Hash: "h2", Recomputed: "distinto"},
		{InvoiceID: 3},
		{InvoiceID: 4, PIH: pkgzatca.PlaceholderPIH, Hash: "h4"},
		{InvoiceID: 5, PIH: pkgzatca.PlaceholderPIH, Hash: "h5"},
		{InvoiceID: 6, PIH: "h1", Hash: "h6"},
	}
	issues := zatca.VerifyLinks(links)
	require.True(t, zatca.HasErrors(issues))

	byID := map[int64][]string{}
	for _, is := range issues {
		byID[is.InvoiceID] = append(byID[is.InvoiceID], is.Severity)
	}
	assert.Equal(t, []string{"error"}, byID[1], "cabeza sin placeholder")
	assert.Equal(t, []string{"error"}, byID[2], "hash no coincide con el XML")
	assert.Equal(t, []string{"warning"}, byID[3], "publicada sin XML")
	assert.Equal(t, []string{"warning"}, byID[4], "placeholder tras eslabón sin hash")
	assert.Equal(t, []string{"error"}, byID[5], "placeholder aunque el anterior tenía hash")
	assert.Equal(t, []string{"error"}, byID[6], "PIH no coincide")
}
