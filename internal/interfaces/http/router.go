package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/internal/application/einvoice"
	"github.com/jhoicas/zatca-einvoice/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Generate   *einvoice.GenerateUseCase
	Submit     *einvoice.SubmitUseCase
	Chain      *einvoice.ChainUseCase
	Artifacts  *einvoice.ArtifactsUseCase
	Onboarding *einvoice.OnboardingUseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
//
// Roles:
//   - admin: todo, incluido el onboarding.
//   - contador: generar y enviar.
//   - auditor: solo lectura.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	zatca := api.Group("/zatca", AuthMiddleware(deps.JWTSecret))

	writers := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleAuditor)

	h := NewZatcaHandler(deps.Generate, deps.Submit, deps.Chain, deps.Artifacts)
	invoices := zatca.Group("/invoices")
	invoices.Get("", readers, h.List)
	invoices.Post("/:id/generate", writers, h.Generate)
	invoices.Post("/:id/submit/:kind", writers, h.Submit)
	invoices.Get("/:id", readers, h.Status)
	invoices.Get("/:id/xml", readers, h.SignedXML)
	invoices.Get("/:id/hash-xml", readers, h.HashXML)
	invoices.Get("/:id/cleared-xml", readers, h.ClearedXML)
	invoices.Get("/:id/bundle", readers, h.Bundle)
	invoices.Get("/:id/pdf", readers, h.PDF)
	invoices.Get("/:id/report", readers, h.Report)

	zatca.Get("/chain/verify", readers, h.VerifyChain)

	onboarding := zatca.Group("/onboarding", RequireRole(jwt.RoleAdmin))
	oh := NewOnboardingHandler(deps.Onboarding)
	onboarding.Post("/compliance", oh.Compliance)
	onboarding.Post("/production", oh.Production)
	onboarding.Post("/renew", oh.Renew)
}
