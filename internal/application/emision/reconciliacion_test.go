package emision_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/pkg/logger"
)

// evento arma una fila de evento ya persistida con el payload y la respuesta dados.
func evento(t *testing.T, tipo, codAnulado string, respuesta map[string]any) *entity.Evento {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"documento": map[string]any{"codigoGeneracion": codAnulado},
	})
	require.NoError(t, err)
	respuestaMH, err := json.Marshal(respuesta)
	require.NoError(t, err)
	return &entity.Evento{TipoEvento: tipo, Evento: string(payload), RespuestaMH: string(respuestaMH)}
}

func TestReconciliar_AnulaConfirmadosYEsIdempotente(t *testing.T) {
	ctx := context.Background()
	dtes := newDTERepoFake()
	require.NoError(t, dtes.Create(ctx, &entity.DTE{
		CodGeneracion: codGeneracionPrueba,
		Estado:        entity.EstadoProcesado,
	}))

	eventos := &eventoRepoFake{}
	require.NoError(t, eventos.Create(ctx, evento(t, entity.EventoInvalidacion, codGeneracionPrueba,
		map[string]any{"estado": "PROCESADO"})))

	rec := emision.NewReconciliador(eventos, dtes, logger.Nop())

	resultado, err := rec.Reconciliar(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resultado.Revisados)
	assert.Equal(t, 1, resultado.Anulados)

	registro, err := dtes.GetByCodGeneracion(ctx, codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoAnulado, registro.Estado)

	// segunda pasada: mismo conjunto de eventos, cero transiciones nuevas
	resultado, err = rec.Reconciliar(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resultado.Revisados)
	assert.Equal(t, 0, resultado.Anulados, "repetir el barrido no debe contar de nuevo")
}

func TestReconciliar_IgnoraNoConfirmadosYContingencias(t *testing.T) {
	ctx := context.Background()
	dtes := newDTERepoFake()
	require.NoError(t, dtes.Create(ctx, &entity.DTE{
		CodGeneracion: codGeneracionPrueba,
		Estado:        entity.EstadoProcesado,
	}))

	eventos := &eventoRepoFake{}
	// invalidación rechazada por Hacienda
	require.NoError(t, eventos.Create(ctx, evento(t, entity.EventoInvalidacion, codGeneracionPrueba,
		map[string]any{"estado": "RECHAZADO"})))
	// evento con respuesta ilegible (Hacienda estaba caída)
	require.NoError(t, eventos.Create(ctx, &entity.Evento{
		TipoEvento:  entity.EventoInvalidacion,
		Evento:      `{"documento": {"codigoGeneracion": "` + codGeneracionPrueba + `"}}`,
		RespuestaMH: `{"error": "Hacienda no disponible"}`,
	}))
	// contingencia confirmada: otro tipo de evento, el barrido no la mira
	require.NoError(t, eventos.Create(ctx, evento(t, entity.EventoContingencia, codGeneracionPrueba,
		map[string]any{"estado": "PROCESADO"})))

	rec := emision.NewReconciliador(eventos, dtes, logger.Nop())
	resultado, err := rec.Reconciliar(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resultado.Revisados, "solo se revisan eventos de invalidación")
	assert.Equal(t, 0, resultado.Anulados)

	registro, err := dtes.GetByCodGeneracion(ctx, codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoProcesado, registro.Estado)
}

func TestReconciliar_EventoSinDTEPersistido(t *testing.T) {
	ctx := context.Background()
	dtes := newDTERepoFake()
	eventos := &eventoRepoFake{}
	require.NoError(t, eventos.Create(ctx, evento(t, entity.EventoInvalidacion, "0000-NO-EXISTE",
		map[string]any{"estado": "PROCESADO"})))

	rec := emision.NewReconciliador(eventos, dtes, logger.Nop())
	resultado, err := rec.Reconciliar(ctx)
	require.NoError(t, err, "un evento cuyo DTE nunca llegó a persistirse no rompe el barrido")
	assert.Equal(t, 1, resultado.Revisados)
	assert.Equal(t, 0, resultado.Anulados)
}
