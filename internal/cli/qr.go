package cli

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pkgzatca "github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

var qrTagNames = map[byte]string{
	pkgzatca.TagSellerName:    "vendedor",
	pkgzatca.TagVATNumber:     "nit_iva",
	pkgzatca.TagTimestamp:     "fecha_hora",
	pkgzatca.TagTotalWithVAT:  "total_con_iva",
	pkgzatca.TagVATTotal:      "total_iva",
	pkgzatca.TagInvoiceHash:   "hash_factura",
	pkgzatca.TagSignature:     "firma",
	pkgzatca.TagPublicKey:     "llave_publica",
	pkgzatca.TagCertSignature: "firma_certificado",
}

func newQRCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "qr <base64>",
		Short:   "Decodifica el contenido TLV de un código QR",
		Example: `  zatcactl qr AQ3YtNix2YPYqSDYp9mE2YXYq9in2YQCDzMwMDAwMDAwMDAwMDAwMw==`,
		Args:    cobra.ExactArgs(1),
		RunE:    runQR,
	}
}

func runQR(cmd *cobra.Command, args []string) error {
	fields, err := pkgzatca.DecodeTLV(strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for tag := pkgzatca.TagSellerName; tag <= pkgzatca.TagCertSignature; tag++ {
		value, ok := fields[tag]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%d %-17s %s\n", tag, qrTagNames[tag], printable(tag, value))
	}
	return nil
}

// printable llave pública y firma del certificado son DER: se muestran en base64.
func printable(tag byte, value []byte) string {
	if tag >= pkgzatca.TagPublicKey {
		return base64.StdEncoding.EncodeToString(value)
	}
	return string(value)
}
