package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
)

var _ repository.DTERepository = (*DTERepo)(nil)

const dteColumns = `id, cod_generacion, numero_control, sello_recibido, estado, documento,
		fh_procesamiento, observaciones, tipo_dte, monto_total, enlace_pdf, enlace_json, enlace_ticket,
		created_at, updated_at`

// DTERepo implementación del puerto DTERepository sobre PostgreSQL.
type DTERepo struct {
	q Querier
}

// NewDTERepository construye el adaptador de persistencia de DTEs. Pasar pool o tx (Querier).
func NewDTERepository(q Querier) *DTERepo {
	return &DTERepo{q: q}
}

// Create persiste el registro de un DTE emitido, cualquiera sea su estado.
func (r *DTERepo) Create(ctx context.Context, dte *entity.DTE) error {
	const query = `
		INSERT INTO dte_generados (cod_generacion, numero_control, sello_recibido, estado, documento,
			fh_procesamiento, observaciones, tipo_dte, monto_total, enlace_pdf, enlace_json, enlace_ticket)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query,
		dte.CodGeneracion, dte.NumeroControl, dte.SelloRecibido, dte.Estado, dte.Documento,
		dte.FhProcesamiento, dte.Observaciones, dte.TipoDte, dte.MontoTotal,
		dte.EnlacePDF, dte.EnlaceJSON, dte.EnlaceTicket,
	).Scan(&dte.ID, &dte.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert dte: %w", err)
	}
	return nil
}

// GetByCodGeneracion obtiene un DTE por su código de generación.
func (r *DTERepo) GetByCodGeneracion(ctx context.Context, codGeneracion string) (*entity.DTE, error) {
	query := `SELECT ` + dteColumns + ` FROM dte_generados WHERE cod_generacion = $1`
	var d entity.DTE
	err := r.q.QueryRow(ctx, query, codGeneracion).Scan(
		&d.ID, &d.CodGeneracion, &d.NumeroControl, &d.SelloRecibido, &d.Estado, &d.Documento,
		&d.FhProcesamiento, &d.Observaciones, &d.TipoDte, &d.MontoTotal,
		&d.EnlacePDF, &d.EnlaceJSON, &d.EnlaceTicket, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get dte: %w", err)
	}
	return &d, nil
}

// List lista DTEs con filtros opcionales de estado y rango de fh_procesamiento,
// paginado y ordenado del más reciente al más antiguo. Devuelve además el total sin paginar.
func (r *DTERepo) List(ctx context.Context, f repository.DTEFilter) ([]*entity.DTE, int64, error) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if f.Estado != "" {
		args = append(args, f.Estado)
		conds = append(conds, fmt.Sprintf("estado = $%d", len(args)))
	}
	if f.Desde != nil {
		args = append(args, *f.Desde)
		conds = append(conds, fmt.Sprintf("fh_procesamiento >= $%d", len(args)))
	}
	if f.Hasta != nil {
		args = append(args, *f.Hasta)
		conds = append(conds, fmt.Sprintf("fh_procesamiento <= $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.q.QueryRow(ctx, "SELECT count(*) FROM dte_generados"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count dtes: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + dteColumns + ` FROM dte_generados` + where +
		fmt.Sprintf(" ORDER BY fh_procesamiento DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list dtes: %w", err)
	}
	defer rows.Close()

	var out []*entity.DTE
	for rows.Next() {
		var d entity.DTE
		if err := rows.Scan(
			&d.ID, &d.CodGeneracion, &d.NumeroControl, &d.SelloRecibido, &d.Estado, &d.Documento,
			&d.FhProcesamiento, &d.Observaciones, &d.TipoDte, &d.MontoTotal,
			&d.EnlacePDF, &d.EnlaceJSON, &d.EnlaceTicket, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan dte: %w", err)
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterar dtes: %w", err)
	}
	return out, total, nil
}

// MarcarAnulado transiciona PROCESADO → ANULADO. El filtro por estado hace la
// operación idempotente: un DTE ya anulado (o inexistente) devuelve 0 filas.
func (r *DTERepo) MarcarAnulado(ctx context.Context, codGeneracion string) (int64, error) {
	const query = `
		UPDATE dte_generados SET estado = 'ANULADO', updated_at = now()
		WHERE cod_generacion = $1 AND estado = 'PROCESADO'`
	cmd, err := r.q.Exec(ctx, query, codGeneracion)
	if err != nil {
		return 0, fmt.Errorf("marcar anulado: %w", err)
	}
	return cmd.RowsAffected(), nil
}
