package repository

import (
	"context"
	"time"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// DTEFilter filtros de listado de DTEs (paginado, rango de fechas de procesamiento).
type DTEFilter struct {
	Desde  *time.Time
	Hasta  *time.Time
	Estado string // opcional
	Offset int
	Limit  int
}

// DTERepository persiste los documentos emitidos. Solo el orquestador de
// emisión escribe filas nuevas; la anulación únicamente cambia el estado.
type DTERepository interface {
	Create(ctx context.Context, dte *entity.DTE) error
	GetByCodGeneracion(ctx context.Context, codGeneracion string) (*entity.DTE, error)
	List(ctx context.Context, f DTEFilter) ([]*entity.DTE, int64, error)
	// MarcarAnulado transiciona PROCESADO → ANULADO para el código de
	// generación dado. Devuelve cuántas filas cambiaron (0 o 1): el filtro
	// por estado actual es lo que hace idempotente la reconciliación.
	MarcarAnulado(ctx context.Context, codGeneracion string) (int64, error)
}
