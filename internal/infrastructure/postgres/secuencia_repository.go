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

var _ repository.SecuenciaRepository = (*SecuenciaRepo)(nil)

// SecuenciaRepo administra los correlativos por tipo de DTE sobre PostgreSQL.
type SecuenciaRepo struct {
	q Querier
}

// NewSecuenciaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSecuenciaRepository(q Querier) *SecuenciaRepo {
	return &SecuenciaRepo{q: q}
}

// Asignar reserva el siguiente correlativo para el tipo. El UPDATE con
// RETURNING es el punto de serialización: el row lock de PostgreSQL garantiza
// que dos emisiones concurrentes del mismo tipo reciben valores distintos.
func (r *SecuenciaRepo) Asignar(ctx context.Context, tipoDte string) (int64, error) {
	const query = `
		UPDATE secuencias SET secuencia = secuencia + 1, updated_at = now()
		WHERE tipo_dte = $1
		RETURNING secuencia`
	var correlativo int64
	err := r.q.QueryRow(ctx, query, tipoDte).Scan(&correlativo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("asignar secuencia: %w", err)
	}
	return correlativo, nil
}

// List devuelve todas las secuencias ordenadas por tipo.
func (r *SecuenciaRepo) List(ctx context.Context) ([]*entity.Secuencia, error) {
	const query = `SELECT id, tipo_dte, secuencia, created_at, updated_at FROM secuencias ORDER BY tipo_dte`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list secuencias: %w", err)
	}
	defer rows.Close()

	var out []*entity.Secuencia
	for rows.Next() {
		var s entity.Secuencia
		if err := rows.Scan(&s.ID, &s.TipoDte, &s.Secuencia, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan secuencia: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar secuencias: %w", err)
	}
	return out, nil
}

// GetByID obtiene una secuencia por su ID.
func (r *SecuenciaRepo) GetByID(ctx context.Context, id int64) (*entity.Secuencia, error) {
	const query = `SELECT id, tipo_dte, secuencia, created_at, updated_at FROM secuencias WHERE id = $1`
	var s entity.Secuencia
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.TipoDte, &s.Secuencia, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get secuencia: %w", err)
	}
	return &s, nil
}

// Update ajusta manualmente el correlativo de una secuencia (operación
// administrativa; el flujo de emisión usa Asignar).
func (r *SecuenciaRepo) Update(ctx context.Context, sec *entity.Secuencia) error {
	const query = `
		UPDATE secuencias SET tipo_dte = $2, secuencia = $3, updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, sec.ID, sec.TipoDte, sec.Secuencia)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update secuencia: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
