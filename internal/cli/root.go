// Package cli comandos de zatcactl: utilidades de operación sobre la cadena de facturas.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-einvoice/pkg/config"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

var version = "1.0.0"

// NewRootCmd árbol completo de comandos. Cada llamada devuelve una instancia nueva.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zatcactl",
		Short: "Herramientas de línea de comandos para facturación ZATCA",
		Long: `zatcactl agrupa utilidades de soporte para la facturación electrónica ZATCA:
calcular el hash canónico de un XML, decodificar el QR TLV, verificar la cadena PIH
de una empresa, aplicar migraciones y emitir tokens JWT de prueba.

Lee la misma configuración que la API (.env / variables de entorno).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newHashCmd(),
		newQRCmd(),
		newTokenCmd(),
		newVerifyChainCmd(),
		newMigrateCmd(),
	)
	return root
}

// Execute punto de entrada de cmd/zatcactl.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Output: os.Stderr})
	return cfg, log, nil
}
