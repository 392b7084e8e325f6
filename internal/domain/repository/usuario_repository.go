package repository

import (
	"context"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// UsuarioRepository persiste los usuarios de la API.
type UsuarioRepository interface {
	Create(ctx context.Context, u *entity.Usuario) error
	GetByUsername(ctx context.Context, username string) (*entity.Usuario, error)
	Count(ctx context.Context) (int64, error)
}
