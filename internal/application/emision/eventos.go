package emision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
	"github.com/insorpa/dte-api/internal/infrastructure/firmador"
	"github.com/insorpa/dte-api/internal/infrastructure/hacienda"
	"github.com/insorpa/dte-api/pkg/logger"
)

// Eventos registra los eventos de contingencia e invalidación contra
// Hacienda. El registro es append-only y sobrevive a cualquier desenlace del
// envío: aunque Hacienda esté caída, el evento queda en la base con el
// descriptor del fallo como respuesta.
type Eventos struct {
	eventoRepo repository.EventoRepository
	dteRepo    repository.DTERepository
	tokens     hacienda.TokenProvider
	cliente    hacienda.ClienteMH
	firmador   firmador.Firmador
	cfg        Config
	log        *logger.Logger
}

// NewEventos construye el registrador de eventos.
func NewEventos(
	eventoRepo repository.EventoRepository,
	dteRepo repository.DTERepository,
	tokens hacienda.TokenProvider,
	cliente hacienda.ClienteMH,
	firm firmador.Firmador,
	cfg Config,
	log *logger.Logger,
) *Eventos {
	return &Eventos{
		eventoRepo: eventoRepo,
		dteRepo:    dteRepo,
		tokens:     tokens,
		cliente:    cliente,
		firmador:   firm,
		cfg:        cfg,
		log:        log.Componente("eventos"),
	}
}

// RegistrarContingencia firma y envía un evento de contingencia, y deja
// registro del intento pase lo que pase. Los fallos de Hacienda (transporte,
// autenticación o respuesta ininteligible) no se propagan: la respuesta
// indica el desenlace.
func (e *Eventos) RegistrarContingencia(ctx context.Context, doc dte.Documento) (*dto.MessageResponse, error) {
	evento, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializar evento: %w", err)
	}

	respuesta, errEnvio := e.enviarContingencia(ctx, doc)
	if err := e.registrar(ctx, entity.EventoContingencia, string(evento), respuesta, errEnvio); err != nil {
		return nil, err
	}

	if errEnvio != nil {
		if msg := mensajeDegradado(errEnvio, "contingencia"); msg != "" {
			return &dto.MessageResponse{Message: msg}, nil
		}
		return nil, errEnvio
	}
	return &dto.MessageResponse{Message: "Evento de contingencia enviado a Hacienda"}, nil
}

// RegistrarAnulacion firma y envía un evento de invalidación. Si Hacienda lo
// confirma como PROCESADO, el DTE referido transiciona a ANULADO en línea; si
// no, el barrido de reconciliación lo recogerá después.
func (e *Eventos) RegistrarAnulacion(ctx context.Context, doc dte.Documento) (*dto.MessageResponse, error) {
	evento, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializar evento: %w", err)
	}

	respuesta, errEnvio := e.enviarAnulacion(ctx, doc)
	if err := e.registrar(ctx, entity.EventoInvalidacion, string(evento), respuesta, errEnvio); err != nil {
		return nil, err
	}

	if errEnvio != nil {
		if msg := mensajeDegradado(errEnvio, "invalidación"); msg != "" {
			return &dto.MessageResponse{Message: msg}, nil
		}
		return nil, errEnvio
	}

	if estadoRespuesta(respuesta) == entity.EstadoProcesado {
		codAnulado := doc.CodGeneracionAnulado()
		if codAnulado != "" {
			filas, err := e.dteRepo.MarcarAnulado(ctx, codAnulado)
			if err != nil {
				e.log.Error().Err(err).Str("cod_generacion", codAnulado).Msg("no se pudo marcar el DTE como anulado")
			} else if filas > 0 {
				e.log.Info().Str("cod_generacion", codAnulado).Msg("DTE anulado")
			}
		}
	}
	return &dto.MessageResponse{Message: "Evento de invalidación enviado a Hacienda"}, nil
}

// enviarContingencia: firma → token → canal de contingencia.
func (e *Eventos) enviarContingencia(ctx context.Context, doc dte.Documento) (map[string]any, error) {
	jws, err := e.firmador.Firmar(ctx, doc)
	if err != nil {
		return nil, err
	}
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return e.cliente.Contingencia(ctx, token, e.cfg.NIT, jws)
}

// enviarAnulacion: firma → token → endpoint de invalidación.
func (e *Eventos) enviarAnulacion(ctx context.Context, doc dte.Documento) (map[string]any, error) {
	ident, ok := doc["identificacion"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: falta identificacion", domain.ErrDocumentoInvalido)
	}
	ambiente, _ := ident["ambiente"].(string)
	version := 2
	if v, ok := ident["version"].(float64); ok {
		version = int(v)
	}

	jws, err := e.firmador.Firmar(ctx, doc)
	if err != nil {
		return nil, err
	}
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return e.cliente.Anulacion(ctx, token, hacienda.AnulacionRequest{
		Ambiente:  ambiente,
		IDEnvio:   1,
		Version:   version,
		Documento: jws,
	})
}

// registrar persiste el evento con la respuesta de Hacienda, o con el
// descriptor del error de envío cuando no hubo respuesta.
func (e *Eventos) registrar(ctx context.Context, tipoEvento, evento string, respuesta map[string]any, errEnvio error) error {
	respuestaMH := ""
	if respuesta != nil {
		if raw, err := json.Marshal(respuesta); err == nil {
			respuestaMH = string(raw)
		}
	} else if errEnvio != nil {
		respuestaMH = fmt.Sprintf(`{"error": %q}`, errEnvio.Error())
	}

	ev := &entity.Evento{
		TipoEvento:  tipoEvento,
		Evento:      evento,
		RespuestaMH: respuestaMH,
	}
	if err := e.eventoRepo.Create(ctx, ev); err != nil {
		return fmt.Errorf("registrar evento %s: %w", tipoEvento, err)
	}
	return nil
}

// mensajeDegradado traduce los fallos de Hacienda a un mensaje para el
// caller: el evento ya quedó registrado, así que ninguno de estos se propaga
// como error. Devuelve vacío para los fallos previos al envío (firma,
// documento inválido), que sí se propagan.
func mensajeDegradado(errEnvio error, operacion string) string {
	switch {
	case errors.Is(errEnvio, domain.ErrHaciendaNoDisponible), errors.Is(errEnvio, domain.ErrAutenticacionMH):
		return "Hacienda no disponible; " + operacion + " registrada localmente"
	case errors.Is(errEnvio, domain.ErrRespuestaInvalida):
		return "Respuesta ininteligible de Hacienda; " + operacion + " registrada localmente"
	}
	return ""
}

// estadoRespuesta extrae el campo estado de una respuesta cruda de Hacienda.
func estadoRespuesta(respuesta map[string]any) string {
	if respuesta == nil {
		return ""
	}
	estado, _ := respuesta["estado"].(string)
	return estado
}
