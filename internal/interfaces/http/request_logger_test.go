package http_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/zatca-einvoice/internal/interfaces/http"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

func TestRequestLogger_RegistraEstado(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Output: &buf})

	app := fiber.New()
	app.Use(apphttp.RequestLogger(log))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/falla", func(c *fiber.Ctx) error { return errors.New("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/falla", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ok, fail map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &fail))
	assert.Equal(t, "info", ok["level"])
	assert.Equal(t, "/ok", ok["path"])
	assert.Equal(t, float64(200), ok["status"])
	assert.Equal(t, "http", ok["component"])
	assert.Equal(t, "error", fail["level"])
	assert.Equal(t, float64(500), fail["status"])
	assert.Equal(t, "boom", fail["error"])
}
