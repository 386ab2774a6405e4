package zatca

import (
	"fmt"
	"unicode"
)

// ValidateVATNumber valida el número de registro de IVA saudí (BR-KSA-39/40):
// 15 dígitos, empieza y termina en 3.
func ValidateVATNumber(vat string) error {
	if len(vat) != 15 {
		return fmt.Errorf("zatca: el número de IVA debe tener 15 dígitos, se recibieron %d caracteres", len(vat))
	}
	if !AllDigits(vat) {
		return fmt.Errorf("zatca: el número de IVA solo admite dígitos")
	}
	if vat[0] != '3' || vat[14] != '3' {
		return fmt.Errorf("zatca: el número de IVA debe empezar y terminar en 3")
	}
	return nil
}

// ValidateDigits comprueba que s tenga exactamente n dígitos (número adicional 4, código postal 5).
func ValidateDigits(field, s string, n int) error {
	if len(s) != n || !AllDigits(s) {
		return fmt.Errorf("zatca: %s debe tener exactamente %d dígitos", field, n)
	}
	return nil
}

// AllDigits true si s no está vacío y solo contiene dígitos ASCII.
func AllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
