package emision_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
	"github.com/insorpa/dte-api/pkg/logger"
)

type eventoRepoFake struct {
	mu           sync.Mutex
	eventos      []*entity.Evento
	ultimoFiltro repository.EventoFilter
}

func (f *eventoRepoFake) Create(_ context.Context, ev *entity.Evento) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = int64(len(f.eventos) + 1)
	ev.CreatedAt = time.Now()
	f.eventos = append(f.eventos, ev)
	return nil
}

func (f *eventoRepoFake) List(_ context.Context, filtro repository.EventoFilter) ([]*entity.Evento, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ultimoFiltro = filtro
	return f.eventos, int64(len(f.eventos)), nil
}

func (f *eventoRepoFake) ListByTipo(_ context.Context, tipoEvento string) ([]*entity.Evento, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Evento
	for _, ev := range f.eventos {
		if ev.TipoEvento == tipoEvento {
			out = append(out, ev)
		}
	}
	return out, nil
}

// eventoAnulacion arma un payload de invalidación que referencia codAnulado.
func eventoAnulacion(t *testing.T, codAnulado string) dte.Documento {
	t.Helper()
	raw := fmt.Sprintf(`{
		"identificacion": {"ambiente": "00", "version": 2, "codigoGeneracion": "9E1C0D72-55AA-4E7B-9B1F-000000000001"},
		"documento": {"codigoGeneracion": %q, "tipoDte": "01"},
		"motivo": {"tipoAnulacion": 2, "motivoAnulacion": "Error en datos del receptor"}
	}`, codAnulado)
	var doc dte.Documento
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func newEventos(cliente *clienteFake, dtes *dteRepoFake, eventos *eventoRepoFake) *emision.Eventos {
	return emision.NewEventos(
		eventos, dtes, &tokenFake{}, cliente, &firmadorFake{},
		emision.Config{NIT: "06140803211031"}, logger.Nop(),
	)
}

func TestRegistrarContingencia_HaciendaCaida_RegistraIgual(t *testing.T) {
	cliente := &clienteFake{err: fmt.Errorf("post contingencia: %w", domain.ErrHaciendaNoDisponible)}
	eventos := &eventoRepoFake{}
	uc := newEventos(cliente, newDTERepoFake(), eventos)

	doc := documentoValido(t, dte.TipoFactura, codGeneracionPrueba)
	resp, err := uc.RegistrarContingencia(context.Background(), doc)
	require.NoError(t, err, "el fallo de transporte no se propaga: el evento queda registrado")
	assert.Contains(t, resp.Message, "registrada localmente")

	require.Len(t, eventos.eventos, 1)
	ev := eventos.eventos[0]
	assert.Equal(t, entity.EventoContingencia, ev.TipoEvento)
	assert.Contains(t, ev.RespuestaMH, "Hacienda no disponible",
		"sin respuesta de Hacienda se guarda el descriptor del error")
}

func TestRegistrarContingencia_RespuestaInvalida_NoPropaga(t *testing.T) {
	cliente := &clienteFake{err: fmt.Errorf("decodificar respuesta: %w", domain.ErrRespuestaInvalida)}
	eventos := &eventoRepoFake{}
	uc := newEventos(cliente, newDTERepoFake(), eventos)

	resp, err := uc.RegistrarContingencia(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.NoError(t, err, "una respuesta ininteligible tampoco se propaga: el evento ya quedó registrado")
	assert.Contains(t, resp.Message, "registrada localmente")

	require.Len(t, eventos.eventos, 1)
	assert.Contains(t, eventos.eventos[0].RespuestaMH, "decodificar respuesta")
}

func TestRegistrarContingencia_Exitosa(t *testing.T) {
	cliente := &clienteFake{contingencia: map[string]any{"estado": "RECIBIDO", "selloRecibido": "S-1"}}
	eventos := &eventoRepoFake{}
	uc := newEventos(cliente, newDTERepoFake(), eventos)

	resp, err := uc.RegistrarContingencia(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "enviado a Hacienda")

	require.Len(t, eventos.eventos, 1)
	assert.Contains(t, eventos.eventos[0].RespuestaMH, "RECIBIDO")
}

func TestRegistrarAnulacion_Confirmada_AnulaEnLinea(t *testing.T) {
	dtes := newDTERepoFake()
	require.NoError(t, dtes.Create(context.Background(), &entity.DTE{
		CodGeneracion: codGeneracionPrueba,
		Estado:        entity.EstadoProcesado,
	}))

	cliente := &clienteFake{anulacion: map[string]any{
		"estado":          "PROCESADO",
		"fhProcesamiento": "15/03/2024 10:22:00",
	}}
	eventos := &eventoRepoFake{}
	uc := newEventos(cliente, dtes, eventos)

	_, err := uc.RegistrarAnulacion(context.Background(), eventoAnulacion(t, codGeneracionPrueba))
	require.NoError(t, err)

	registro, err := dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoAnulado, registro.Estado,
		"la invalidación confirmada anula el DTE sin esperar reconciliación")

	require.Len(t, eventos.eventos, 1)
	assert.Equal(t, entity.EventoInvalidacion, eventos.eventos[0].TipoEvento)
}

func TestRegistrarAnulacion_HaciendaCaida_NoAnula(t *testing.T) {
	dtes := newDTERepoFake()
	require.NoError(t, dtes.Create(context.Background(), &entity.DTE{
		CodGeneracion: codGeneracionPrueba,
		Estado:        entity.EstadoProcesado,
	}))

	cliente := &clienteFake{anulacionErr: fmt.Errorf("post anulacion: %w", domain.ErrHaciendaNoDisponible)}
	eventos := &eventoRepoFake{}
	uc := newEventos(cliente, dtes, eventos)

	resp, err := uc.RegistrarAnulacion(context.Background(), eventoAnulacion(t, codGeneracionPrueba))
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "registrada localmente")

	registro, err := dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoProcesado, registro.Estado,
		"sin confirmación de Hacienda el DTE sigue en PROCESADO")
	require.Len(t, eventos.eventos, 1, "el intento queda registrado de todas formas")
}

func TestRegistrarAnulacion_RespuestaInvalida_NoAnulaNiPropaga(t *testing.T) {
	dtes := newDTERepoFake()
	require.NoError(t, dtes.Create(context.Background(), &entity.DTE{
		CodGeneracion: codGeneracionPrueba,
		Estado:        entity.EstadoProcesado,
	}))

	cliente := &clienteFake{anulacionErr: fmt.Errorf("decodificar respuesta: %w", domain.ErrRespuestaInvalida)}
	eventos := &eventoRepoFake{}
	uc := newEventos(cliente, dtes, eventos)

	resp, err := uc.RegistrarAnulacion(context.Background(), eventoAnulacion(t, codGeneracionPrueba))
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "registrada localmente")

	registro, err := dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoProcesado, registro.Estado,
		"sin confirmación legible de Hacienda el DTE sigue en PROCESADO")
	require.Len(t, eventos.eventos, 1)
}

func TestRegistrarAnulacion_Rechazada_NoAnula(t *testing.T) {
	dtes := newDTERepoFake()
	require.NoError(t, dtes.Create(context.Background(), &entity.DTE{
		CodGeneracion: codGeneracionPrueba,
		Estado:        entity.EstadoProcesado,
	}))

	cliente := &clienteFake{anulacion: map[string]any{"estado": "RECHAZADO", "descripcionMsg": "sello no corresponde"}}
	eventos := &eventoRepoFake{}
	uc := newEventos(cliente, dtes, eventos)

	_, err := uc.RegistrarAnulacion(context.Background(), eventoAnulacion(t, codGeneracionPrueba))
	require.NoError(t, err)

	registro, err := dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoProcesado, registro.Estado)
}
