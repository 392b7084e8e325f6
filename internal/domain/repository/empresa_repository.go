package repository

import (
	"context"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// EmpresaRepository persiste los datos del emisor (fila única).
type EmpresaRepository interface {
	Get(ctx context.Context) (*entity.Empresa, error)
	Save(ctx context.Context, emp *entity.Empresa) error
}
