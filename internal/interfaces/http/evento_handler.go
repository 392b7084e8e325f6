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

// EventoHandler maneja contingencias, invalidaciones y su reconciliación.
type EventoHandler struct {
	eventos       *emision.Eventos
	consultas     *emision.Consultas
	reconciliador *emision.Reconciliador
}

// NewEventoHandler construye el handler de eventos.
func NewEventoHandler(eventos *emision.Eventos, consultas *emision.Consultas, rec *emision.Reconciliador) *EventoHandler {
	return &EventoHandler{eventos: eventos, consultas: consultas, reconciliador: rec}
}

// Contingencia godoc
// @Summary      Enviar un evento de contingencia y registrarlo
// @Tags         eventos
// @Accept       json
// @Produce      json
// @Param        body  body  map[string]interface{}  true  "evento de contingencia sin firma"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/contingencia/local [post]
func (h *EventoHandler) Contingencia(c *fiber.Ctx) error {
	var doc dte.Documento
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "el cuerpo debe ser el JSON del evento"})
	}
	resp, err := h.eventos.RegistrarContingencia(c.UserContext(), doc)
	if err != nil {
		return eventoError(c, err)
	}
	return c.JSON(resp)
}

// Anulacion godoc
// @Summary      Enviar un evento de invalidación y registrarlo
// @Tags         eventos
// @Accept       json
// @Produce      json
// @Param        body  body  map[string]interface{}  true  "evento de invalidación sin firma"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/anulacion [post]
func (h *EventoHandler) Anulacion(c *fiber.Ctx) error {
	var doc dte.Documento
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "el cuerpo debe ser el JSON del evento"})
	}
	resp, err := h.eventos.RegistrarAnulacion(c.UserContext(), doc)
	if err != nil {
		return eventoError(c, err)
	}
	return c.JSON(resp)
}

// Reconciliar godoc
// @Summary      Barrido de invalidaciones confirmadas: marca DTEs como ANULADO
// @Tags         eventos
// @Produce      json
// @Success      200  {object}  dto.ReconciliacionResponse
// @Router       /api/v1/eventos/reconciliar [post]
func (h *EventoHandler) Reconciliar(c *fiber.Ctx) error {
	resultado, err := h.reconciliador.Reconciliar(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resultado)
}

// Listar godoc
// @Summary      Listar eventos registrados
// @Tags         eventos
// @Produce      json
// @Param        desde   query  string  false  "fecha inicial YYYY-MM-DD"
// @Param        hasta   query  string  false  "fecha final YYYY-MM-DD (inclusiva)"
// @Param        limit   query  int     false  "tamaño de página"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  dto.EventoListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/v1/eventos [get]
func (h *EventoHandler) Listar(c *fiber.Ctx) error {
	return h.listarPorTipo(c, "")
}

// ListarContingencias devuelve solo los eventos de contingencia.
func (h *EventoHandler) ListarContingencias(c *fiber.Ctx) error {
	return h.listarPorTipo(c, entity.EventoContingencia)
}

// ListarInvalidaciones devuelve solo los eventos de invalidación.
func (h *EventoHandler) ListarInvalidaciones(c *fiber.Ctx) error {
	return h.listarPorTipo(c, entity.EventoInvalidacion)
}

func (h *EventoHandler) listarPorTipo(c *fiber.Ctx, tipoEvento string) error {
	var in dto.ListEventoRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.consultas.ListarEventos(c.UserContext(), tipoEvento, in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

// eventoError mapea los fallos de los eventos a códigos HTTP. Los fallos de
// Hacienda (transporte, autenticación, respuesta ininteligible) no llegan
// acá: el caso de uso los degrada a registro local.
func eventoError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrDocumentoInvalido):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_EVENT", Message: err.Error()})
	case errors.Is(err, domain.ErrFirmaFallida):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "SIGN_FAILED", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
