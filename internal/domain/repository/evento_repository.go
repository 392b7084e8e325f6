package repository

import (
	"context"
	"time"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// EventoFilter filtros de listado de eventos.
type EventoFilter struct {
	TipoEvento string // vacío = todos
	Desde      *time.Time
	Hasta      *time.Time
	Offset     int
	Limit      int
}

// EventoRepository es el almacén append-only de eventos de contingencia e
// invalidación.
type EventoRepository interface {
	Create(ctx context.Context, ev *entity.Evento) error
	List(ctx context.Context, f EventoFilter) ([]*entity.Evento, int64, error)
	// ListByTipo devuelve todos los eventos de un tipo sin paginar
	// (lo usa el barrido de reconciliación).
	ListByTipo(ctx context.Context, tipoEvento string) ([]*entity.Evento, error)
}
