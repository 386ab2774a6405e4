package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zatca-einvoice/internal/application/dto"
	"github.com/jhoicas/zatca-einvoice/internal/application/einvoice"
	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
)

// ZatcaHandler ciclo ZATCA de una factura: generar, enviar, consultar y descargar.
type ZatcaHandler struct {
	generate  *einvoice.GenerateUseCase
	submit    *einvoice.SubmitUseCase
	chain     *einvoice.ChainUseCase
	artifacts *einvoice.ArtifactsUseCase
}

// NewZatcaHandler construye el handler.
func NewZatcaHandler(
	generate *einvoice.GenerateUseCase,
	submit *einvoice.SubmitUseCase,
	chain *einvoice.ChainUseCase,
	artifacts *einvoice.ArtifactsUseCase,
) *ZatcaHandler {
	return &ZatcaHandler{generate: generate, submit: submit, chain: chain, artifacts: artifacts}
}

// invoiceParams company_id del token e :id de la ruta.
func invoiceParams(c *fiber.Ctx) (string, int64, error) {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return "", 0, fmt.Errorf("%w: token sin empresa", domain.ErrUnauthorized)
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: id de factura %q", domain.ErrInvalidInput, c.Params("id"))
	}
	return companyID, id, nil
}

// Generate godoc
// @Summary      Generar XML ZATCA (UBL 2.1, hash, firma y QR)
// @Tags         zatca
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID de la factura"
// @Success      200  {object}  einvoice.GenerateResult
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/generate [post]
func (h *ZatcaHandler) Generate(c *fiber.Ctx) error {
	companyID, id, err := invoiceParams(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.generate.Generate(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Submit godoc
// @Summary      Enviar a compliance, clearance o reporting
// @Tags         zatca
// @Security     Bearer
// @Produce      json
// @Param        id    path      int     true  "ID de la factura"
// @Param        kind  path      string  true  "compliance | clearance | reporting"
// @Success      200   {object}  einvoice.SubmitResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/submit/{kind} [post]
func (h *ZatcaHandler) Submit(c *fiber.Ctx) error {
	companyID, id, err := invoiceParams(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.submit.Submit(c.Context(), companyID, id, c.Params("kind"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// List godoc
// @Summary      Listar facturas publicadas con su estado ZATCA
// @Tags         zatca
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "Máximo de resultados (1-100, por defecto 20)"
// @Param        offset  query     int  false  "Desplazamiento"
// @Success      200     {object}  dto.InvoiceListResponse
// @Router       /api/zatca/invoices [get]
func (h *ZatcaHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return writeError(c, fmt.Errorf("%w: token sin empresa", domain.ErrUnauthorized))
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return writeError(c, fmt.Errorf("%w: paginación inválida", domain.ErrInvalidInput))
	}
	page.DefaultPage()

	invoices, total, err := h.artifacts.List(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.InvoiceZatcaResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, dto.NewInvoiceZatcaResponse(inv))
	}
	return c.JSON(dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// Status godoc
// @Summary      Estado ZATCA de la factura
// @Tags         zatca
// @Security     Bearer
// @Produce      json
// @Param        id   path      int  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceZatcaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id} [get]
func (h *ZatcaHandler) Status(c *fiber.Ctx) error {
	companyID, id, err := invoiceParams(c)
	if err != nil {
		return writeError(c, err)
	}
	inv, err := h.artifacts.Status(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewInvoiceZatcaResponse(inv))
}

// download devuelve el adjunto como archivo.
func (h *ZatcaHandler) download(field string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID, id, err := invoiceParams(c)
		if err != nil {
			return writeError(c, err)
		}
		att, err := h.artifacts.Download(c.Context(), companyID, id, field)
		if err != nil {
			return writeError(c, err)
		}
		c.Set(fiber.HeaderContentType, att.MimeType)
		c.Attachment(att.Name)
		return c.Send(att.Data)
	}
}

// SignedXML godoc
// @Summary      Descargar el XML firmado
// @Tags         zatca
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/xml [get]
func (h *ZatcaHandler) SignedXML(c *fiber.Ctx) error {
	return h.download(entity.AttachmentSignedXML)(c)
}

// HashXML godoc
// @Summary      Descargar el XML usado para el hash
// @Tags         zatca
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/hash-xml [get]
func (h *ZatcaHandler) HashXML(c *fiber.Ctx) error {
	return h.download(entity.AttachmentHashXML)(c)
}

// ClearedXML godoc
// @Summary      Descargar el XML devuelto por clearance
// @Tags         zatca
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/cleared-xml [get]
func (h *ZatcaHandler) ClearedXML(c *fiber.Ctx) error {
	return h.download(entity.AttachmentClearedXML)(c)
}

// Bundle godoc
// @Summary      ZIP con todos los XML de la factura
// @Tags         zatca
// @Security     Bearer
// @Produce      application/zip
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/bundle [get]
func (h *ZatcaHandler) Bundle(c *fiber.Ctx) error {
	companyID, id, err := invoiceParams(c)
	if err != nil {
		return writeError(c, err)
	}
	data, name, err := h.artifacts.Bundle(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Attachment(name)
	return c.Send(data)
}

// PDF godoc
// @Summary      Representación impresa con QR
// @Tags         zatca
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/pdf [get]
func (h *ZatcaHandler) PDF(c *fiber.Ctx) error {
	companyID, id, err := invoiceParams(c)
	if err != nil {
		return writeError(c, err)
	}
	data, name, err := h.artifacts.PDF(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(name)
	return c.Send(data)
}

// Report godoc
// @Summary      Reporte HTML del último envío
// @Tags         zatca
// @Security     Bearer
// @Produce      html
// @Param        id   path  int  true  "ID de la factura"
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/zatca/invoices/{id}/report [get]
func (h *ZatcaHandler) Report(c *fiber.Ctx) error {
	companyID, id, err := invoiceParams(c)
	if err != nil {
		return writeError(c, err)
	}
	report, err := h.artifacts.Report(c.Context(), companyID, id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(report)
}

// VerifyChain godoc
// @Summary      Verificar la cadena PIH de la empresa
// @Tags         zatca
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  einvoice.ChainReport
// @Router       /api/zatca/chain/verify [get]
func (h *ZatcaHandler) VerifyChain(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	report, err := h.chain.Verify(c.Context(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}
