package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/domain"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
)

// errorStatus estado HTTP y código para un error de los casos de uso.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domzatca.ErrInvalidInvoice):
		return fiber.StatusUnprocessableEntity, "INVALID_INVOICE"
	case errors.Is(err, domzatca.ErrBrokenChain):
		return fiber.StatusConflict, "BROKEN_CHAIN"
	case errors.Is(err, domain.ErrNotConfigured):
		return fiber.StatusConflict, "NOT_CONFIGURED"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, infrazatca.ErrZatcaUnauthorized):
		return fiber.StatusBadGateway, "ZATCA_UNAUTHORIZED"
	case errors.Is(err, infrazatca.ErrZatcaServer),
		errors.Is(err, infrazatca.ErrZatcaBadRequest),
		errors.Is(err, infrazatca.ErrZatcaAccessDenied):
		return fiber.StatusBadGateway, "ZATCA_ERROR"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con dto.ErrorResponse según el error.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}
