package emision

import (
	"context"
	"fmt"
	"time"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/repository"
	"github.com/insorpa/dte-api/internal/infrastructure/hacienda"
)

// Consultas expone las operaciones de lectura y administración sobre lo ya
// emitido: listados, detalle, consulta del lado de Hacienda, eventos,
// secuencias y datos del emisor.
type Consultas struct {
	dteRepo       repository.DTERepository
	eventoRepo    repository.EventoRepository
	secuenciaRepo repository.SecuenciaRepository
	empresaRepo   repository.EmpresaRepository
	tokens        hacienda.TokenProvider
	cliente       hacienda.ClienteMH
	cfg           Config
}

// NewConsultas construye el caso de uso de consultas.
func NewConsultas(
	dteRepo repository.DTERepository,
	eventoRepo repository.EventoRepository,
	secuenciaRepo repository.SecuenciaRepository,
	empresaRepo repository.EmpresaRepository,
	tokens hacienda.TokenProvider,
	cliente hacienda.ClienteMH,
	cfg Config,
) *Consultas {
	return &Consultas{
		dteRepo:       dteRepo,
		eventoRepo:    eventoRepo,
		secuenciaRepo: secuenciaRepo,
		empresaRepo:   empresaRepo,
		tokens:        tokens,
		cliente:       cliente,
		cfg:           cfg,
	}
}

// ListarDTEs lista los DTEs emitidos con filtros de estado y fechas.
func (c *Consultas) ListarDTEs(ctx context.Context, in dto.ListDTERequest) (*dto.DTEListResponse, error) {
	in.DefaultPage()
	filtro := repository.DTEFilter{
		Estado: in.Estado,
		Offset: in.Offset,
		Limit:  in.Limit,
	}
	var err error
	if filtro.Desde, filtro.Hasta, err = rangoFechas(in.Desde, in.Hasta); err != nil {
		return nil, err
	}

	items, total, err := c.dteRepo.List(ctx, filtro)
	if err != nil {
		return nil, err
	}
	out := &dto.DTEListResponse{
		Items: make([]dto.DTEResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}
	for _, d := range items {
		out.Items = append(out.Items, dto.ToDTEResponse(d))
	}
	return out, nil
}

// rangoFechas interpreta los filtros desde/hasta en formato YYYY-MM-DD. El
// límite superior es inclusivo hasta el final del día.
func rangoFechas(desde, hasta string) (*time.Time, *time.Time, error) {
	var d, h *time.Time
	if desde != "" {
		t, err := time.Parse("2006-01-02", desde)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: desde debe ser YYYY-MM-DD", domain.ErrInvalidInput)
		}
		d = &t
	}
	if hasta != "" {
		t, err := time.Parse("2006-01-02", hasta)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: hasta debe ser YYYY-MM-DD", domain.ErrInvalidInput)
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		h = &t
	}
	return d, h, nil
}

// ObtenerDTE devuelve el registro completo de un DTE, documento incluido.
func (c *Consultas) ObtenerDTE(ctx context.Context, codGeneracion string) (*dto.DTEDetailResponse, error) {
	d, err := c.dteRepo.GetByCodGeneracion(ctx, codGeneracion)
	if err != nil {
		return nil, err
	}
	return &dto.DTEDetailResponse{
		DTEResponse: dto.ToDTEResponse(d),
		Documento:   d.Documento,
	}, nil
}

// ConsultarMH devuelve el último estado conocido de un DTE del lado de
// Hacienda (passthrough de la respuesta cruda).
func (c *Consultas) ConsultarMH(ctx context.Context, codGeneracion string) (map[string]any, error) {
	d, err := c.dteRepo.GetByCodGeneracion(ctx, codGeneracion)
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.cliente.Consulta(ctx, token, c.cfg.NIT, d.TipoDte, codGeneracion)
}

// ListarEventos lista los eventos registrados, opcionalmente por tipo y
// rango de fechas.
func (c *Consultas) ListarEventos(ctx context.Context, tipoEvento string, in dto.ListEventoRequest) (*dto.EventoListResponse, error) {
	in.DefaultPage()
	filtro := repository.EventoFilter{
		TipoEvento: tipoEvento,
		Offset:     in.Offset,
		Limit:      in.Limit,
	}
	var err error
	if filtro.Desde, filtro.Hasta, err = rangoFechas(in.Desde, in.Hasta); err != nil {
		return nil, err
	}

	items, total, err := c.eventoRepo.List(ctx, filtro)
	if err != nil {
		return nil, err
	}
	out := &dto.EventoListResponse{
		Items: make([]dto.EventoResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}
	for _, ev := range items {
		out.Items = append(out.Items, dto.ToEventoResponse(ev))
	}
	return out, nil
}

// ListarSecuencias devuelve los correlativos de todos los tipos de DTE.
func (c *Consultas) ListarSecuencias(ctx context.Context) ([]dto.SecuenciaResponse, error) {
	secuencias, err := c.secuenciaRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SecuenciaResponse, 0, len(secuencias))
	for _, s := range secuencias {
		out = append(out, dto.ToSecuenciaResponse(s))
	}
	return out, nil
}

// ActualizarSecuencia ajusta manualmente un correlativo (operación
// administrativa, reservada a superusuarios en el router).
func (c *Consultas) ActualizarSecuencia(ctx context.Context, id int64, in dto.SecuenciaUpdateRequest) (*dto.SecuenciaResponse, error) {
	sec, err := c.secuenciaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.TipoDte != "" {
		sec.TipoDte = in.TipoDte
	}
	if in.Secuencia < 0 {
		return nil, fmt.Errorf("%w: la secuencia no puede ser negativa", domain.ErrInvalidInput)
	}
	sec.Secuencia = in.Secuencia
	if err := c.secuenciaRepo.Update(ctx, sec); err != nil {
		return nil, err
	}
	resp := dto.ToSecuenciaResponse(sec)
	return &resp, nil
}

// ObtenerEmpresa devuelve los datos del emisor.
func (c *Consultas) ObtenerEmpresa(ctx context.Context) (*dto.EmpresaResponse, error) {
	emp, err := c.empresaRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToEmpresaResponse(emp), nil
}

// GuardarEmpresa registra o actualiza los datos del emisor.
func (c *Consultas) GuardarEmpresa(ctx context.Context, in dto.EmpresaRequest) (*dto.EmpresaResponse, error) {
	if in.Nombre == "" || in.NIT == "" {
		return nil, fmt.Errorf("%w: nombre y nit son obligatorios", domain.ErrInvalidInput)
	}
	emp := in.ToEntity()
	if err := c.empresaRepo.Save(ctx, emp); err != nil {
		return nil, err
	}
	return dto.ToEmpresaResponse(emp), nil
}
