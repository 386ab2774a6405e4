package signer

import (
	"strings"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// MaterialLoader resuelve el CSID: el archivo configurado (ZATCA_CERT_PATH) tiene
// prioridad; si no hay, se usa el certificado y la llave guardados por empresa.
type MaterialLoader struct {
	fixed zatca.SigningMaterial
}

// NewMaterialLoader carga el archivo una sola vez. .p12/.pfx se leen como PKCS#12;
// cualquier otra extensión como PEM. certPath vacío deja el loader sin material fijo.
func NewMaterialLoader(certPath, keyPath, password string) (*MaterialLoader, error) {
	if certPath == "" {
		return &MaterialLoader{}, nil
	}
	var (
		m   zatca.SigningMaterial
		err error
	)
	lower := strings.ToLower(certPath)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		m, err = LoadFromP12(certPath, password)
	} else {
		m, err = LoadFromPEM(certPath, keyPath)
	}
	if err != nil {
		return nil, err
	}
	return &MaterialLoader{fixed: m}, nil
}

// Material devuelve material vacío (sin firma) si no hay archivo ni CSID guardado.
func (l *MaterialLoader) Material(cfg *entity.ZatcaConfiguration) (zatca.SigningMaterial, error) {
	if l.fixed.Certificate != nil {
		return l.fixed, nil
	}
	if cfg == nil || cfg.Certificate == "" || cfg.PrivateKey == "" {
		return zatca.SigningMaterial{}, nil
	}
	return LoadFromStored(cfg.Certificate, cfg.PrivateKey)
}
