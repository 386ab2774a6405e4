package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/application/einvoice"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// OnboardingHandler emisión y renovación del CSID de la empresa del token.
type OnboardingHandler struct {
	uc *einvoice.OnboardingUseCase
}

// NewOnboardingHandler construye el handler.
func NewOnboardingHandler(uc *einvoice.OnboardingUseCase) *OnboardingHandler {
	return &OnboardingHandler{uc: uc}
}

func (h *OnboardingHandler) respond(c *fiber.Ctx, cfg *entity.ZatcaConfiguration, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewZatcaConfigurationResponse(cfg))
}

func (h *OnboardingHandler) parse(c *fiber.Ctx) (einvoice.CSIDRequest, bool) {
	var in dto.CSIDRequest
	if err := c.BodyParser(&in); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return einvoice.CSIDRequest{}, false
	}
	return einvoice.CSIDRequest{CSR: in.CSR, OTP: in.OTP, PrivateKey: in.PrivateKey}, true
}

// Compliance godoc
// @Summary      Solicitar CSID de compliance
// @Tags         onboarding
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CSIDRequest  true  "csr (base64), otp y private_key opcional"
// @Success      200   {object}  dto.ZatcaConfigurationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/zatca/onboarding/compliance [post]
func (h *OnboardingHandler) Compliance(c *fiber.Ctx) error {
	req, ok := h.parse(c)
	if !ok {
		return nil
	}
	cfg, err := h.uc.RequestComplianceCSID(c.Context(), GetCompanyID(c), req)
	return h.respond(c, cfg, err)
}

// Production godoc
// @Summary      Solicitar CSID de producción con el requestID de compliance
// @Tags         onboarding
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ZatcaConfigurationResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/zatca/onboarding/production [post]
func (h *OnboardingHandler) Production(c *fiber.Ctx) error {
	cfg, err := h.uc.RequestProductionCSID(c.Context(), GetCompanyID(c))
	return h.respond(c, cfg, err)
}

// Renew godoc
// @Summary      Renovar el CSID de producción
// @Tags         onboarding
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CSIDRequest  true  "csr (base64) nuevo y otp"
// @Success      200   {object}  dto.ZatcaConfigurationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/zatca/onboarding/renew [post]
func (h *OnboardingHandler) Renew(c *fiber.Ctx) error {
	req, ok := h.parse(c)
	if !ok {
		return nil
	}
	cfg, err := h.uc.RenewProductionCSID(c.Context(), GetCompanyID(c), req)
	return h.respond(c, cfg, err)
}
