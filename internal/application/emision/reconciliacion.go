package emision

import (
	"context"
	"encoding/json"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
	"github.com/insorpa/dte-api/pkg/logger"
)

// Reconciliador recorre los eventos de invalidación confirmados por Hacienda
// y marca como ANULADO todo DTE que siga en PROCESADO. El barrido es
// idempotente: la transición filtra por estado actual, así que repetirlo no
// cambia nada ni cuenta de más.
type Reconciliador struct {
	eventoRepo repository.EventoRepository
	dteRepo    repository.DTERepository
	log        *logger.Logger
}

// NewReconciliador construye el barrido de reconciliación.
func NewReconciliador(eventoRepo repository.EventoRepository, dteRepo repository.DTERepository, log *logger.Logger) *Reconciliador {
	return &Reconciliador{eventoRepo: eventoRepo, dteRepo: dteRepo, log: log.Componente("reconciliacion")}
}

// Reconciliar ejecuta el barrido y devuelve cuántos eventos se revisaron y
// cuántos DTEs cambiaron de estado en esta pasada.
func (r *Reconciliador) Reconciliar(ctx context.Context) (*dto.ReconciliacionResponse, error) {
	eventos, err := r.eventoRepo.ListByTipo(ctx, entity.EventoInvalidacion)
	if err != nil {
		return nil, err
	}

	resultado := &dto.ReconciliacionResponse{Revisados: len(eventos)}
	for _, ev := range eventos {
		codAnulado, ok := invalidacionConfirmada(ev)
		if !ok {
			continue
		}
		filas, err := r.dteRepo.MarcarAnulado(ctx, codAnulado)
		if err != nil {
			return nil, err
		}
		if filas > 0 {
			resultado.Anulados++
			r.log.Info().Str("cod_generacion", codAnulado).Msg("DTE anulado por reconciliación")
		}
	}
	return resultado, nil
}

// invalidacionConfirmada decide si un evento representa una invalidación que
// Hacienda confirmó como PROCESADO, y extrae el código del DTE anulado.
// Eventos con respuesta ilegible, no confirmada o sin código se omiten.
func invalidacionConfirmada(ev *entity.Evento) (codAnulado string, ok bool) {
	var respuesta map[string]any
	if err := json.Unmarshal([]byte(ev.RespuestaMH), &respuesta); err != nil {
		return "", false
	}
	if estadoRespuesta(respuesta) != entity.EstadoProcesado {
		return "", false
	}

	var doc dte.Documento
	if err := json.Unmarshal([]byte(ev.Evento), &doc); err != nil {
		return "", false
	}
	codAnulado = doc.CodGeneracionAnulado()
	return codAnulado, codAnulado != ""
}
