package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-einvoice/pkg/config"
	"github.com/jhoicas/zatca-einvoice/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para probar la API",
		Long: `Firma un token con JWT_SECRET (o --secret) para el usuario, empresa y rol indicados.
Roles válidos: admin, contador, auditor.`,
		Example: `  zatcactl token --company 7f1c... --user u1 --role contador --ttl 2h`,
		RunE:    runToken,
	}
	cmd.Flags().String("company", "", "ID de la empresa (requerido)")
	cmd.Flags().String("user", "cli", "ID del usuario")
	cmd.Flags().String("role", jwt.RoleAdmin, "Rol: admin, contador o auditor")
	cmd.Flags().Duration("ttl", time.Hour, "Vigencia del token")
	cmd.Flags().String("secret", "", "Secreto HMAC (por defecto JWT_SECRET)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func runToken(cmd *cobra.Command, _ []string) error {
	companyID, _ := cmd.Flags().GetString("company")
	userID, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	secret, _ := cmd.Flags().GetString("secret")

	switch role {
	case jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleAuditor:
	default:
		return fmt.Errorf("rol %q no válido (usar admin, contador o auditor)", role)
	}

	issuer := "zatca-einvoice"
	if secret == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		secret, issuer = cfg.JWT.Secret, cfg.JWT.Issuer
	}
	if secret == "" {
		return fmt.Errorf("JWT_SECRET no configurado (usar --secret)")
	}

	tok, err := jwt.Generate(secret, issuer, jwt.Identity{UserID: userID, CompanyID: companyID, Role: role}, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
