package emision_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/entity"
)

func newConsultas(eventos *eventoRepoFake) *emision.Consultas {
	return emision.NewConsultas(
		newDTERepoFake(), eventos, newSecuenciaRepoFake(), &empresaRepoFake{},
		&tokenFake{}, &clienteFake{}, emision.Config{NIT: "06140803211031"},
	)
}

func TestListarEventos_FiltraPorTipoYFechas(t *testing.T) {
	eventos := &eventoRepoFake{}
	uc := newConsultas(eventos)

	_, err := uc.ListarEventos(context.Background(), entity.EventoInvalidacion, dto.ListEventoRequest{
		Desde: "2024-03-01",
		Hasta: "2024-03-15",
	})
	require.NoError(t, err)

	filtro := eventos.ultimoFiltro
	assert.Equal(t, entity.EventoInvalidacion, filtro.TipoEvento)
	require.NotNil(t, filtro.Desde)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *filtro.Desde)
	require.NotNil(t, filtro.Hasta)
	assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 999999999, time.UTC), *filtro.Hasta,
		"el límite superior es inclusivo hasta el final del día")
}

func TestListarEventos_SinFechas_NoFiltra(t *testing.T) {
	eventos := &eventoRepoFake{}
	uc := newConsultas(eventos)

	_, err := uc.ListarEventos(context.Background(), "", dto.ListEventoRequest{})
	require.NoError(t, err)

	assert.Nil(t, eventos.ultimoFiltro.Desde)
	assert.Nil(t, eventos.ultimoFiltro.Hasta)
	assert.Equal(t, 20, eventos.ultimoFiltro.Limit, "sin parámetros aplica la página por defecto")
}

func TestListarEventos_FechaInvalida(t *testing.T) {
	uc := newConsultas(&eventoRepoFake{})

	_, err := uc.ListarEventos(context.Background(), "", dto.ListEventoRequest{Desde: "01/03/2024"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
