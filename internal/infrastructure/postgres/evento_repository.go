package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
)

var _ repository.EventoRepository = (*EventoRepo)(nil)

// EventoRepo almacén append-only de eventos sobre PostgreSQL. No hay Update ni
// Delete: cada interacción de contingencia/invalidación deja su propia fila.
type EventoRepo struct {
	q Querier
}

// NewEventoRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEventoRepository(q Querier) *EventoRepo {
	return &EventoRepo{q: q}
}

// Create registra un evento con su payload saliente y la respuesta de Hacienda.
func (r *EventoRepo) Create(ctx context.Context, ev *entity.Evento) error {
	const query = `
		INSERT INTO eventos (tipo_evento, evento, respuesta_mh)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query, ev.TipoEvento, ev.Evento, ev.RespuestaMH).
		Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert evento: %w", err)
	}
	return nil
}

// List lista eventos con filtros opcionales de tipo y rango de fechas, paginado.
func (r *EventoRepo) List(ctx context.Context, f repository.EventoFilter) ([]*entity.Evento, int64, error) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 5)
	if f.TipoEvento != "" {
		args = append(args, f.TipoEvento)
		conds = append(conds, fmt.Sprintf("tipo_evento = $%d", len(args)))
	}
	if f.Desde != nil {
		args = append(args, *f.Desde)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.Hasta != nil {
		args = append(args, *f.Hasta)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.q.QueryRow(ctx, "SELECT count(*) FROM eventos"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count eventos: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := `SELECT id, tipo_evento, evento, respuesta_mh, created_at FROM eventos` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list eventos: %w", err)
	}
	defer rows.Close()

	var out []*entity.Evento
	for rows.Next() {
		var ev entity.Evento
		if err := rows.Scan(&ev.ID, &ev.TipoEvento, &ev.Evento, &ev.RespuestaMH, &ev.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan evento: %w", err)
		}
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterar eventos: %w", err)
	}
	return out, total, nil
}

// ListByTipo devuelve todos los eventos de un tipo, del más antiguo al más
// reciente, sin paginar. Lo usa el barrido de reconciliación.
func (r *EventoRepo) ListByTipo(ctx context.Context, tipoEvento string) ([]*entity.Evento, error) {
	const query = `
		SELECT id, tipo_evento, evento, respuesta_mh, created_at
		FROM eventos WHERE tipo_evento = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, tipoEvento)
	if err != nil {
		return nil, fmt.Errorf("list eventos por tipo: %w", err)
	}
	defer rows.Close()

	var out []*entity.Evento
	for rows.Next() {
		var ev entity.Evento
		if err := rows.Scan(&ev.ID, &ev.TipoEvento, &ev.Evento, &ev.RespuestaMH, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evento: %w", err)
		}
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar eventos: %w", err)
	}
	return out, nil
}
