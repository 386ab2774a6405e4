package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

// RequestLogger registra método, ruta, estado y duración de cada petición.
// Las respuestas 5xx van en nivel error.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.WithComponent("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler de Fiber escriba la respuesta antes de leer el estado.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("company_id", GetCompanyID(c)).
			Msg("petición HTTP")
		return nil
	}
}
