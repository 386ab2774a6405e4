package zatca

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// ZipEntry archivo dentro del paquete de descarga.
type ZipEntry struct {
	Name string
	Data []byte
}

// CompressToZip empaqueta los XML de la factura (firmado, hash y cleared) en un ZIP en memoria.
// Las entradas vacías se omiten.
func CompressToZip(entries []ZipEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if len(e.Data) == 0 {
			continue
		}
		fw, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("zip: crear entrada %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return nil, fmt.Errorf("zip: escribir %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9-]`)

// Filenames nombres de los artefactos según la convención ZATCA:
//
//	{VAT}_{YYYYMMDD}T{HHMMSS}Z_{número}.xml
//
// Ejemplo: 300000000000003_20240301T103000Z_INV-2024-00001.xml
func Filenames(company *entity.Company, inv *entity.Invoice) (xmlName, hashName, clearedName string) {
	number := unsafeName.ReplaceAllString(strings.TrimSpace(inv.DocumentID()), "-")
	base := fmt.Sprintf("%s_%s_%s", company.VAT, inv.IssuedAt.UTC().Format("20060102T150405Z"), number)
	return base + ".xml", base + "_hash.xml", base + "_cleared.xml"
}

// BundleName nombre del ZIP con todos los artefactos.
func BundleName(xmlName string) string {
	return strings.TrimSuffix(xmlName, ".xml") + ".zip"
}
