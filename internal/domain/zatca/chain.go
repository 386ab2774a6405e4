package zatca

import (
	"errors"
	"fmt"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// ErrBrokenChain la factura anterior existe pero no tiene hash.
var ErrBrokenChain = errors.New("cadena PIH rota")

// ResolvePIH devuelve el PIH para la factura siguiente a prev.
//
//   - prev == nil: cabeza de la cadena, se usa el placeholder.
//   - prev sin hash: en modo estricto devuelve ErrBrokenChain; si no, usa el placeholder
//     y fallback = true para que quien llama lo registre.
func ResolvePIH(prev *entity.Invoice, strict bool) (pih string, fallback bool, err error) {
	if prev == nil {
		return zatca.PlaceholderPIH, false, nil
	}
	if prev.Hash == "" {
		if strict {
			return "", false, fmt.Errorf("%w: la factura %d no tiene hash", ErrBrokenChain, prev.ID)
		}
		return zatca.PlaceholderPIH, true, nil
	}
	return prev.Hash, false, nil
}

// Severidades de ChainIssue.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ChainLink eslabón a verificar. Recomputed es el hash recalculado desde el XML
// guardado; vacío si no se pudo recalcular.
type ChainLink struct {
	InvoiceID  int64
	PIH        string
	Hash       string
	Recomputed string
}

// ChainIssue hallazgo de la verificación.
type ChainIssue struct {
	InvoiceID int64  `json:"invoice_id"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// VerifyLinks comprueba pih(n) == hash(n-1), la cabeza con placeholder y que cada hash
// almacenado coincida con el recalculado. Un placeholder a mitad de cadena se reporta
// como advertencia si el eslabón anterior no tenía hash, y como error si lo tenía.
func VerifyLinks(links []ChainLink) []ChainIssue {
	var issues []ChainIssue
	add := func(id int64, sev, format string, args ...any) {
		issues = append(issues, ChainIssue{InvoiceID: id, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	for i, l := range links {
		if l.Hash == "" && l.PIH == "" {
			add(l.InvoiceID, SeverityWarning, "factura publicada sin XML ZATCA generado")
			continue
		}
		if l.Hash == "" {
			add(l.InvoiceID, SeverityError, "la factura tiene PIH pero no hash")
		}
		if l.Recomputed != "" && l.Recomputed != l.Hash {
			add(l.InvoiceID, SeverityError, "el hash almacenado no coincide con el XML (%s != %s)", l.Hash, l.Recomputed)
		}

		if i == 0 {
			if l.PIH != zatca.PlaceholderPIH {
				add(l.InvoiceID, SeverityError, "la primera factura de la cadena debe usar el PIH inicial")
			}
			continue
		}
		prev := links[i-1]
		switch {
		case prev.Hash != "" && l.PIH == prev.Hash:
		case prev.Hash == "" && l.PIH == zatca.PlaceholderPIH:
			add(l.InvoiceID, SeverityWarning, "PIH inicial a mitad de cadena: la factura %d no tenía hash", prev.InvoiceID)
		case l.PIH == zatca.PlaceholderPIH:
			add(l.InvoiceID, SeverityError, "PIH inicial a mitad de cadena aunque la factura %d tiene hash", prev.InvoiceID)
		default:
			add(l.InvoiceID, SeverityError, "PIH no coincide con el hash de la factura %d", prev.InvoiceID)
		}
	}
	return issues
}

// HasErrors true si algún hallazgo es de severidad error.
func HasErrors(issues []ChainIssue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}
