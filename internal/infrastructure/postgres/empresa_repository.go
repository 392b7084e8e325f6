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

var _ repository.EmpresaRepository = (*EmpresaRepo)(nil)

const empresaColumns = `id, nombre, nit, nrc, cod_actividad, desc_actividad, nombre_comercial,
		tipo_establecimiento, departamento, municipio, complemento, telefono, correo,
		cod_estable_mh, cod_estable, cod_punto_venta_mh, cod_punto_venta, created_at, updated_at`

// EmpresaRepo persiste los datos del emisor (fila única) sobre PostgreSQL.
type EmpresaRepo struct {
	q Querier
}

// NewEmpresaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEmpresaRepository(q Querier) *EmpresaRepo {
	return &EmpresaRepo{q: q}
}

// Get obtiene los datos del emisor. ErrNotFound si aún no se registraron.
func (r *EmpresaRepo) Get(ctx context.Context) (*entity.Empresa, error) {
	query := `SELECT ` + empresaColumns + ` FROM datos_empresa ORDER BY id LIMIT 1`
	var e entity.Empresa
	err := r.q.QueryRow(ctx, query).Scan(
		&e.ID, &e.Nombre, &e.NIT, &e.NRC, &e.CodActividad, &e.DescActividad, &e.NombreComercial,
		&e.TipoEstablecimiento, &e.Departamento, &e.Municipio, &e.Complemento, &e.Telefono, &e.Correo,
		&e.CodEstableMH, &e.CodEstable, &e.CodPuntoVentaMH, &e.CodPuntoVenta, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get empresa: %w", err)
	}
	return &e, nil
}

// Save inserta o actualiza la fila única del emisor.
func (r *EmpresaRepo) Save(ctx context.Context, emp *entity.Empresa) error {
	existente, err := r.Get(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if existente == nil {
		const query = `
			INSERT INTO datos_empresa (nombre, nit, nrc, cod_actividad, desc_actividad, nombre_comercial,
				tipo_establecimiento, departamento, municipio, complemento, telefono, correo,
				cod_estable_mh, cod_estable, cod_punto_venta_mh, cod_punto_venta)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id, created_at`
		err := r.q.QueryRow(ctx, query,
			emp.Nombre, emp.NIT, emp.NRC, emp.CodActividad, emp.DescActividad, emp.NombreComercial,
			emp.TipoEstablecimiento, emp.Departamento, emp.Municipio, emp.Complemento, emp.Telefono, emp.Correo,
			emp.CodEstableMH, emp.CodEstable, emp.CodPuntoVentaMH, emp.CodPuntoVenta,
		).Scan(&emp.ID, &emp.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert empresa: %w", err)
		}
		return nil
	}

	const query = `
		UPDATE datos_empresa SET nombre = $2, nit = $3, nrc = $4, cod_actividad = $5, desc_actividad = $6,
			nombre_comercial = $7, tipo_establecimiento = $8, departamento = $9, municipio = $10,
			complemento = $11, telefono = $12, correo = $13, cod_estable_mh = $14, cod_estable = $15,
			cod_punto_venta_mh = $16, cod_punto_venta = $17, updated_at = now()
		WHERE id = $1`
	_, err = r.q.Exec(ctx, query,
		existente.ID, emp.Nombre, emp.NIT, emp.NRC, emp.CodActividad, emp.DescActividad, emp.NombreComercial,
		emp.TipoEstablecimiento, emp.Departamento, emp.Municipio, emp.Complemento, emp.Telefono, emp.Correo,
		emp.CodEstableMH, emp.CodEstable, emp.CodPuntoVentaMH, emp.CodPuntoVenta,
	)
	if err != nil {
		return fmt.Errorf("update empresa: %w", err)
	}
	emp.ID = existente.ID
	return nil
}
