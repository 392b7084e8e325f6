package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
)

var _ repository.UsuarioRepository = (*UsuarioRepo)(nil)

// UsuarioRepo persiste los usuarios de la API sobre PostgreSQL.
type UsuarioRepo struct {
	q Querier
}

// NewUsuarioRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUsuarioRepository(q Querier) *UsuarioRepo {
	return &UsuarioRepo{q: q}
}

// Create persiste un nuevo usuario. ErrEmailAlreadyExists si el username o
// email ya están registrados.
func (r *UsuarioRepo) Create(ctx context.Context, u *entity.Usuario) error {
	const query = `
		INSERT INTO usuarios (id, username, email, password_hash, superuser)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := r.q.QueryRow(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.Superuser).
		Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert usuario: %w", err)
	}
	return nil
}

// GetByUsername obtiene un usuario por su username.
func (r *UsuarioRepo) GetByUsername(ctx context.Context, username string) (*entity.Usuario, error) {
	const query = `
		SELECT id, username, email, password_hash, superuser, created_at, updated_at
		FROM usuarios WHERE username = $1`
	var u entity.Usuario
	err := r.q.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Superuser, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get usuario: %w", err)
	}
	return &u, nil
}

// Count devuelve la cantidad de usuarios registrados (usado para permitir el
// registro bootstrap del primer superusuario).
func (r *UsuarioRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM usuarios`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count usuarios: %w", err)
	}
	return total, nil
}
