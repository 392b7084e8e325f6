package repository

import (
	"context"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// SecuenciaRepository administra los correlativos por tipo de DTE.
type SecuenciaRepository interface {
	// Asignar reserva y devuelve el siguiente correlativo para el tipo,
	// como fetch-and-increment atómico: dos llamadas concurrentes sobre el
	// mismo tipo nunca reciben el mismo valor. Devuelve domain.ErrNotFound
	// si no existe fila para el tipo (fatal para la emisión; no hay default).
	Asignar(ctx context.Context, tipoDte string) (int64, error)
	List(ctx context.Context) ([]*entity.Secuencia, error)
	GetByID(ctx context.Context, id int64) (*entity.Secuencia, error)
	Update(ctx context.Context, sec *entity.Secuencia) error
}
