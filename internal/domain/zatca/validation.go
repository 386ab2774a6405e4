package zatca

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// ErrInvalidInvoice agrupa errores de validación de factura.
var ErrInvalidInvoice = errors.New("factura inválida para ZATCA")

// ValidationInput datos que se validan antes de tocar el contador o generar XML.
type ValidationInput struct {
	Invoice  *entity.Invoice
	Company  *entity.Company
	Partner  *entity.Partner
	Lines    []*entity.InvoiceLine
	Original *entity.Invoice // factura referenciada por notas; nil en facturas
	Now      time.Time
}

// ValidateInvoice aplica las reglas de negocio KSA. Todas las fallas se reportan juntas
// y cualquiera de ellas bloquea la generación completa.
func ValidateInvoice(in ValidationInput) error {
	if in.Invoice == nil || in.Company == nil || in.Partner == nil {
		return fmt.Errorf("%w: faltan factura, empresa o cliente", ErrInvalidInvoice)
	}
	inv := in.Invoice
	var errs []error

	// BR-KSA-CL-02
	if in.Company.Currency != zatca.CurrencySAR {
		errs = append(errs, fmt.Errorf("la moneda de la empresa debe ser SAR, es %q", in.Company.Currency))
	}
	if inv.Currency != "" && inv.Currency != zatca.CurrencySAR {
		errs = append(errs, fmt.Errorf("la moneda de la factura debe ser SAR, es %q", inv.Currency))
	}

	if len(in.Lines) == 0 {
		errs = append(errs, fmt.Errorf("la factura debe tener al menos una línea"))
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	if inv.IssuedAt.IsZero() {
		errs = append(errs, fmt.Errorf("la factura no tiene fecha de emisión"))
	} else if inv.IssuedAt.After(now) {
		errs = append(errs, fmt.Errorf("la fecha de la factura (%s) no puede ser futura", inv.IssuedAt.Format(time.RFC3339)))
	}

	// Vendedor
	if missing := missingAddressFields(in.Company.Address); len(missing) > 0 {
		errs = append(errs, fmt.Errorf("faltan datos en la dirección de la empresa: %s", strings.Join(missing, ", ")))
	}
	if in.Company.Address.AdditionalNo != "" {
		if err := zatca.ValidateDigits("número adicional de la empresa", in.Company.Address.AdditionalNo, 4); err != nil {
			errs = append(errs, err)
		}
	}
	if in.Company.Address.Zip != "" {
		if err := zatca.ValidateDigits("código postal de la empresa", in.Company.Address.Zip, 5); err != nil {
			errs = append(errs, err)
		}
	}
	if err := zatca.ValidateVATNumber(in.Company.VAT); err != nil {
		errs = append(errs, fmt.Errorf("IVA de la empresa: %w", err))
	}
	if in.Company.LicenseScheme != "" && !zatca.SellerIDSchemes[in.Company.LicenseScheme] {
		errs = append(errs, fmt.Errorf("esquema de identificación del vendedor inválido: %q", in.Company.LicenseScheme))
	}

	// Comprador
	cls := Classify(inv, in.Lines)
	if cls.TaxInvoice {
		if missing := missingAddressFields(in.Partner.Address); len(missing) > 0 {
			errs = append(errs, fmt.Errorf("faltan datos en la dirección del cliente, obligatorios en facturas estándar: %s", strings.Join(missing, ", ")))
		}
	}
	if in.Partner.IDScheme != "" && !zatca.BuyerIDSchemes[in.Partner.IDScheme] {
		errs = append(errs, fmt.Errorf("esquema de identificación del comprador inválido: %q", in.Partner.IDScheme))
	}

	// Notas crédito/débito: BR-KSA-56 y KSA-10
	if inv.IsNote() {
		if inv.OriginalInvoiceID == nil || in.Original == nil {
			errs = append(errs, fmt.Errorf("las notas crédito/débito deben referenciar la factura original"))
		}
		if strings.TrimSpace(inv.CreditDebitReason) == "" {
			errs = append(errs, fmt.Errorf("las notas crédito/débito requieren el motivo (KSA-10)"))
		}
	}

	if inv.PaymentMeansCode != "" && !zatca.ValidPaymentMeansCodes[inv.PaymentMeansCode] {
		errs = append(errs, fmt.Errorf("medio de pago desconocido: %q", inv.PaymentMeansCode))
	}

	for i, l := range in.Lines {
		errs = append(errs, validateLine(i+1, l, in.Partner)...)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

func validateLine(n int, l *entity.InvoiceLine, partner *entity.Partner) []error {
	var errs []error
	if !l.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("línea %d: la cantidad debe ser mayor que cero", n))
	}
	if l.UnitPrice.IsNegative() {
		errs = append(errs, fmt.Errorf("línea %d: el precio no puede ser negativo", n))
	}
	if l.Discount.IsNegative() || l.Discount.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, fmt.Errorf("línea %d: el descuento debe estar entre 0 y 100", n))
	}

	cat := EffectiveCategory(l)
	if !zatca.ValidTaxCategories[cat] {
		errs = append(errs, fmt.Errorf("línea %d: categoría de IVA desconocida %q", n, cat))
		return errs
	}
	if cat == zatca.TaxCategoryZeroRated || cat == zatca.TaxCategoryExempt {
		if !zatca.ExemptionCodesByCategory[cat][l.ExemptionCode] {
			errs = append(errs, fmt.Errorf("línea %d: código de exención %q no válido para la categoría %s", n, l.ExemptionCode, cat))
		}
	}
	// BR-KSA-49
	if (l.ExemptionCode == zatca.ExemptionEducation || l.ExemptionCode == zatca.ExemptionHealth) &&
		partner.IDScheme != zatca.BuyerIDNational {
		errs = append(errs, fmt.Errorf("línea %d: %s exige que el comprador se identifique con NAT", n, l.ExemptionCode))
	}
	return errs
}

func missingAddressFields(a entity.Address) []string {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("street", a.Street)
	check("building_no", a.BuildingNo)
	check("additional_no", a.AdditionalNo)
	check("district", a.District)
	check("city", a.City)
	check("zip", a.Zip)
	check("state", a.State)
	check("country", a.CountryCode)
	return missing
}
