package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/domain"
)

// AdminHandler maneja secuencias y datos del emisor.
type AdminHandler struct {
	consultas *emision.Consultas
}

// NewAdminHandler construye el handler administrativo.
func NewAdminHandler(consultas *emision.Consultas) *AdminHandler {
	return &AdminHandler{consultas: consultas}
}

// ListarSecuencias godoc
// @Summary      Listar los correlativos por tipo de DTE
// @Tags         admin
// @Produce      json
// @Success      200  {array}  dto.SecuenciaResponse
// @Router       /api/v1/secuencias [get]
func (h *AdminHandler) ListarSecuencias(c *fiber.Ctx) error {
	out, err := h.consultas.ListarSecuencias(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ActualizarSecuencia godoc
// @Summary      Ajustar manualmente un correlativo (solo superusuarios)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "id de la secuencia"
// @Param        body  body  dto.SecuenciaUpdateRequest  true  "tipo_dte, secuencia"
// @Success      200   {object}  dto.SecuenciaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/v1/secuencias/{id} [put]
func (h *AdminHandler) ActualizarSecuencia(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	var in dto.SecuenciaUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.consultas.ActualizarSecuencia(c.UserContext(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "secuencia no encontrada"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		case errors.Is(err, domain.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "ya existe una secuencia para ese tipo"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// ObtenerEmpresa godoc
// @Summary      Datos del emisor registrados
// @Tags         admin
// @Produce      json
// @Success      200  {object}  dto.EmpresaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/empresa [get]
func (h *AdminHandler) ObtenerEmpresa(c *fiber.Ctx) error {
	out, err := h.consultas.ObtenerEmpresa(c.UserContext())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "emisor sin registrar"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// GuardarEmpresa godoc
// @Summary      Registrar o actualizar los datos del emisor (solo superusuarios)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EmpresaRequest  true  "datos del emisor"
// @Success      200   {object}  dto.EmpresaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/empresa [put]
func (h *AdminHandler) GuardarEmpresa(c *fiber.Ctx) error {
	var in dto.EmpresaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.consultas.GuardarEmpresa(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}
