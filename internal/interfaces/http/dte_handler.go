package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/domain/entity"
)

// DTEHandler maneja la emisión y las consultas sobre DTEs.
type DTEHandler struct {
	emisor    *emision.Emisor
	consultas *emision.Consultas
	pdf       *emision.PDFUseCase
}

// NewDTEHandler construye el handler de DTEs.
func NewDTEHandler(emisor *emision.Emisor, consultas *emision.Consultas, pdf *emision.PDFUseCase) *DTEHandler {
	return &DTEHandler{emisor: emisor, consultas: consultas, pdf: pdf}
}

// Emitir godoc
// @Summary      Emitir un DTE (firmar, enviar a Hacienda y persistir el desenlace)
// @Tags         dte
// @Accept       json
// @Produce      json
// @Param        body  body  map[string]interface{}  true  "documento DTE completo sin firma"
// @Success      200   {object}  dto.EmisionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/v1/dte [post]
func (h *DTEHandler) Emitir(c *fiber.Ctx) error {
	var doc dte.Documento
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "el cuerpo debe ser el JSON del DTE"})
	}

	resp, err := h.emisor.Emitir(c.UserContext(), doc)
	if err != nil {
		return emisionError(c, err)
	}
	if resp.Estado == entity.EstadoRechazado {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.JSON(resp)
}

// Listar godoc
// @Summary      Listar DTEs emitidos
// @Tags         dte
// @Produce      json
// @Param        estado  query  string  false  "PROCESADO, RECHAZADO, CONTINGENCIA o ANULADO"
// @Param        desde   query  string  false  "YYYY-MM-DD"
// @Param        hasta   query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  dto.DTEListResponse
// @Router       /api/v1/dtes [get]
func (h *DTEHandler) Listar(c *fiber.Ctx) error {
	var in dto.ListDTERequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.consultas.ListarDTEs(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// Obtener godoc
// @Summary      Detalle de un DTE (documento incluido)
// @Tags         dte
// @Produce      json
// @Param        codGeneracion  path  string  true  "código de generación"
// @Success      200  {object}  dto.DTEDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/dtes/{codGeneracion} [get]
func (h *DTEHandler) Obtener(c *fiber.Ctx) error {
	out, err := h.consultas.ObtenerDTE(c.UserContext(), c.Params("codGeneracion"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "DTE no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ConsultarMH godoc
// @Summary      Último estado del DTE del lado de Hacienda
// @Tags         dte
// @Produce      json
// @Param        codGeneracion  path  string  true  "código de generación"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/v1/dtes/{codGeneracion}/mh [get]
func (h *DTEHandler) ConsultarMH(c *fiber.Ctx) error {
	out, err := h.consultas.ConsultarMH(c.UserContext(), c.Params("codGeneracion"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "DTE no encontrado"})
		case errors.Is(err, domain.ErrAutenticacionMH), errors.Is(err, domain.ErrHaciendaNoDisponible):
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "MH_UNAVAILABLE", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Reimprimir la Representación Gráfica de un DTE
// @Tags         dte
// @Produce      application/pdf
// @Param        codGeneracion  path  string  true  "código de generación"
// @Success      200  {file}  binary
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/dtes/{codGeneracion}/pdf [get]
func (h *DTEHandler) PDF(c *fiber.Ctx) error {
	codGeneracion := c.Params("codGeneracion")
	pdfBytes, err := h.pdf.Reimprimir(c.UserContext(), codGeneracion)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "DTE no encontrado o emisor sin registrar"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+codGeneracion+`.pdf"`)
	return c.Send(pdfBytes)
}

// emisionError mapea los modos de fallo de la emisión a códigos HTTP.
func emisionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrDocumentoInvalido):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DTE", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "NO_SEQUENCE", Message: err.Error()})
	case errors.Is(err, domain.ErrFirmaFallida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "SIGN_FAILED", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "ya existe un DTE con ese código de generación"})
	case errors.Is(err, domain.ErrAutenticacionMH):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "MH_AUTH", Message: err.Error()})
	case errors.Is(err, domain.ErrRespuestaInvalida):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "MH_BAD_RESPONSE", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
