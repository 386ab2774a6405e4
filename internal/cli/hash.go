package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
)

func newHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <archivo.xml>",
		Short: "Calcula el hash canónico (PIH) de un XML de factura",
		Long: `Calcula el SHA-256 del XML canonicalizado (C14N 1.1) tal como se usa en el PIH.

Por defecto elimina UBLExtensions, la referencia QR y cac:Signature antes de
canonicalizar. Con --cleared se hashea el documento sin transformar, como se hace
con el XML devuelto por clearance.`,
		Example: `  zatcactl hash factura_firmada.xml
  zatcactl hash factura_cleared.xml --cleared`,
		Args: cobra.ExactArgs(1),
		RunE: runHash,
	}
	cmd.Flags().Bool("cleared", false, "No eliminar firma ni QR (XML devuelto por clearance)")
	cmd.Flags().Bool("canonical", false, "Imprimir también los bytes canónicos")
	return cmd
}

func runHash(cmd *cobra.Command, args []string) error {
	cleared, _ := cmd.Flags().GetBool("cleared")
	canonical, _ := cmd.Flags().GetBool("canonical")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("leer %s: %w", args[0], err)
	}
	res, err := infrazatca.NewCanonicalizer().HashXML(data, infrazatca.Options{SkipTransform: cleared})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "base64: %s\n", res.Base64)
	fmt.Fprintf(out, "hex:    %s\n", res.Hex)
	if canonical {
		fmt.Fprintf(out, "\n%s\n", res.Canonical)
	}
	return nil
}
