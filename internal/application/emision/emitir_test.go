package emision_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
	"github.com/insorpa/dte-api/internal/infrastructure/enlaces"
	"github.com/insorpa/dte-api/internal/infrastructure/hacienda"
	"github.com/insorpa/dte-api/internal/infrastructure/mail"
	"github.com/insorpa/dte-api/pkg/logger"
)

// ── Fakes en memoria ──────────────────────────────────────────────────────────

type dteRepoFake struct {
	mu        sync.Mutex
	registros map[string]*entity.DTE
}

func newDTERepoFake() *dteRepoFake {
	return &dteRepoFake{registros: make(map[string]*entity.DTE)}
}

func (f *dteRepoFake) Create(_ context.Context, d *entity.DTE) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.registros[d.CodGeneracion]; ok {
		return domain.ErrDuplicate
	}
	d.ID = int64(len(f.registros) + 1)
	f.registros[d.CodGeneracion] = d
	return nil
}

func (f *dteRepoFake) GetByCodGeneracion(_ context.Context, cod string) (*entity.DTE, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.registros[cod]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (f *dteRepoFake) List(_ context.Context, _ repository.DTEFilter) ([]*entity.DTE, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.DTE, 0, len(f.registros))
	for _, d := range f.registros {
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (f *dteRepoFake) MarcarAnulado(_ context.Context, cod string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.registros[cod]
	if !ok || d.Estado != entity.EstadoProcesado {
		return 0, nil
	}
	d.Estado = entity.EstadoAnulado
	return 1, nil
}

type secuenciaRepoFake struct {
	mu        sync.Mutex
	siguiente map[string]int64
}

func newSecuenciaRepoFake(tipos ...string) *secuenciaRepoFake {
	f := &secuenciaRepoFake{siguiente: make(map[string]int64)}
	for _, tipo := range tipos {
		f.siguiente[tipo] = 1
	}
	return f
}

func (f *secuenciaRepoFake) Asignar(_ context.Context, tipoDte string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.siguiente[tipoDte]
	if !ok {
		return 0, domain.ErrNotFound
	}
	f.siguiente[tipoDte] = v + 1
	return v, nil
}

func (f *secuenciaRepoFake) List(_ context.Context) ([]*entity.Secuencia, error) { return nil, nil }
func (f *secuenciaRepoFake) GetByID(_ context.Context, _ int64) (*entity.Secuencia, error) {
	return nil, domain.ErrNotFound
}
func (f *secuenciaRepoFake) Update(_ context.Context, _ *entity.Secuencia) error { return nil }

type empresaRepoFake struct {
	empresa *entity.Empresa
}

func (f *empresaRepoFake) Get(_ context.Context) (*entity.Empresa, error) {
	if f.empresa == nil {
		return nil, domain.ErrNotFound
	}
	return f.empresa, nil
}
func (f *empresaRepoFake) Save(_ context.Context, e *entity.Empresa) error {
	f.empresa = e
	return nil
}

type tokenFake struct {
	err error
}

func (f *tokenFake) Token(_ context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-de-prueba", nil
}

type clienteFake struct {
	mu sync.Mutex

	respuesta    *hacienda.RespuestaRecepcion
	err          error
	recepciones  []hacienda.RecepcionRequest
	anulacion    map[string]any
	anulacionErr error
	contingencia map[string]any
	consulta     map[string]any
}

func (f *clienteFake) Recepcion(_ context.Context, _ string, req hacienda.RecepcionRequest) (*hacienda.RespuestaRecepcion, error) {
	f.mu.Lock()
	f.recepciones = append(f.recepciones, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.respuesta, nil
}

func (f *clienteFake) Contingencia(_ context.Context, _, _, _ string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contingencia, nil
}

func (f *clienteFake) Anulacion(_ context.Context, _ string, _ hacienda.AnulacionRequest) (map[string]any, error) {
	if f.anulacionErr != nil {
		return nil, f.anulacionErr
	}
	return f.anulacion, nil
}

func (f *clienteFake) Consulta(_ context.Context, _, _, _, _ string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.consulta, nil
}

type firmadorFake struct {
	err error
}

func (f *firmadorFake) Firmar(_ context.Context, _ map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "eyJhbGciOiJSUzUxMiJ9.firmado.sig", nil
}

type enlacesFake struct {
	mu     sync.Mutex
	sellos []string // un elemento por llamada, con el sello recibido
}

func (f *enlacesFake) Generar(_ context.Context, _, sello, _ string) enlaces.Enlaces {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sellos = append(f.sellos, sello)
	return enlaces.Enlaces{
		PDF:  "https://docs.example.com/dte.pdf",
		JSON: "https://docs.example.com/dte.json",
	}
}

type mailFake struct {
	mu       sync.Mutex
	enviados []mail.Mensaje
}

func (f *mailFake) Enviar(_ context.Context, msg mail.Mensaje) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enviados = append(f.enviados, msg)
	return nil
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

const codGeneracionPrueba = "4AFF1720-3B48-4D61-8C23-923DF9F0D412"

// documentoValido arma un DTE mínimo pasando por JSON, que es como llega del
// POS (números como float64, objetos como map[string]any).
func documentoValido(t *testing.T, tipoDte, codGeneracion string) dte.Documento {
	t.Helper()
	raw := fmt.Sprintf(`{
		"identificacion": {"ambiente": "00", "version": 1, "tipoDte": %q, "codigoGeneracion": %q},
		"receptor": {"nombre": "Comercial La Ceiba", "correo": "compras@laceiba.com.sv"},
		"resumen": {"totalPagar": 113.00}
	}`, tipoDte, codGeneracion)
	var doc dte.Documento
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

type fixture struct {
	dtes       *dteRepoFake
	secuencias *secuenciaRepoFake
	empresa    *empresaRepoFake
	cliente    *clienteFake
	firmador   *firmadorFake
	enlaces    *enlacesFake
	correo     *mailFake
	emisor     *emision.Emisor
}

func newFixture(cliente *clienteFake, firm *firmadorFake) *fixture {
	f := &fixture{
		dtes:       newDTERepoFake(),
		secuencias: newSecuenciaRepoFake(dte.Tipos...),
		empresa:    &empresaRepoFake{},
		cliente:    cliente,
		firmador:   firm,
		enlaces:    &enlacesFake{},
		correo:     &mailFake{},
	}
	f.emisor = emision.NewEmisor(
		f.dtes, f.secuencias, f.empresa,
		&tokenFake{}, cliente, firm, f.enlaces, f.correo,
		emision.Config{NIT: "06140803211031", CorreoFallback: "facturas@insorpa.com"},
		logger.Nop(),
	)
	return f
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestEmitir_Aceptado_PersisteProcesado(t *testing.T) {
	cliente := &clienteFake{respuesta: &hacienda.RespuestaRecepcion{
		Aceptado:      true,
		Estado:        "PROCESADO",
		SelloRecibido: "20240000ABC123",
	}}
	f := newFixture(cliente, &firmadorFake{})

	resp, err := f.emisor.Emitir(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.NoError(t, err)

	assert.Equal(t, entity.EstadoProcesado, resp.Estado)
	assert.Equal(t, "20240000ABC123", resp.SelloRecibido)
	assert.Equal(t, "DTE-01-T001P001-000000000000001", resp.NumeroControl,
		"el primer correlativo asignado debe ser 1 con sucursal/punto de venta por defecto")

	registro, err := f.dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoProcesado, registro.Estado)
	assert.Equal(t, "20240000ABC123", registro.SelloRecibido)
	assert.Contains(t, registro.Documento, "20240000ABC123",
		"el sello debe quedar dentro del documento almacenado")
	assert.Contains(t, registro.Documento, resp.NumeroControl,
		"el número de control debe quedar dentro del documento almacenado")
	assert.Equal(t, "113", registro.MontoTotal.String())

	require.Len(t, f.correo.enviados, 1, "el receptor debe recibir el correo del DTE procesado")
	assert.Equal(t, []string{"compras@laceiba.com.sv"}, f.correo.enviados[0].Para)
	assert.Len(t, f.correo.enviados[0].Adjuntos, 2)
}

func TestEmitir_Rechazado_PersisteSinSelloNiCorreo(t *testing.T) {
	cliente := &clienteFake{respuesta: &hacienda.RespuestaRecepcion{
		Aceptado:       false,
		Estado:         "RECHAZADO",
		DescripcionMsg: "Invalid NIT",
		Observaciones:  []string{"el NIT del emisor no coincide"},
	}}
	f := newFixture(cliente, &firmadorFake{})

	resp, err := f.emisor.Emitir(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.NoError(t, err, "un rechazo de Hacienda es un desenlace de negocio, no un error")

	assert.Equal(t, entity.EstadoRechazado, resp.Estado)
	assert.Empty(t, resp.SelloRecibido)

	registro, err := f.dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoRechazado, registro.Estado)
	assert.Empty(t, registro.SelloRecibido)
	assert.Contains(t, registro.Observaciones, "Invalid NIT")
	assert.Empty(t, registro.EnlacePDF, "un DTE rechazado no genera enlaces")
	assert.Empty(t, f.correo.enviados, "un DTE rechazado no dispara correo")
}

func TestEmitir_HaciendaCaida_PersisteContingencia(t *testing.T) {
	cliente := &clienteFake{err: fmt.Errorf("post recepcion: %w", domain.ErrHaciendaNoDisponible)}
	f := newFixture(cliente, &firmadorFake{})

	resp, err := f.emisor.Emitir(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.NoError(t, err, "Hacienda inalcanzable degrada a contingencia, no falla")

	assert.Equal(t, entity.EstadoContingencia, resp.Estado)
	assert.NotEmpty(t, resp.NumeroControl, "el DTE en contingencia ya tiene número de control asignado")

	registro, err := f.dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	require.NoError(t, err)
	assert.Equal(t, entity.EstadoContingencia, registro.Estado)
	assert.Empty(t, f.correo.enviados)

	require.Len(t, f.enlaces.sellos, 1,
		"el DTE en contingencia también genera sus enlaces de descarga")
	assert.Empty(t, f.enlaces.sellos[0], "sin respuesta de Hacienda no hay sello que incluir")
	assert.Equal(t, "https://docs.example.com/dte.pdf", registro.EnlacePDF)
	assert.Equal(t, registro.EnlacePDF, resp.EnlacePDF)
}

func TestEmitir_RespuestaInvalida_NoPersisteNada(t *testing.T) {
	cliente := &clienteFake{err: fmt.Errorf("respuesta 200: %w", domain.ErrRespuestaInvalida)}
	f := newFixture(cliente, &firmadorFake{})

	_, err := f.emisor.Emitir(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.ErrorIs(t, err, domain.ErrRespuestaInvalida)

	_, err = f.dtes.GetByCodGeneracion(context.Background(), codGeneracionPrueba)
	assert.ErrorIs(t, err, domain.ErrNotFound,
		"una respuesta ininteligible no debe dejar rastro en la base")
}

func TestEmitir_SecuenciaInexistente_Fatal(t *testing.T) {
	cliente := &clienteFake{respuesta: &hacienda.RespuestaRecepcion{Aceptado: true}}
	f := newFixture(cliente, &firmadorFake{})
	f.secuencias.siguiente = map[string]int64{} // sin filas

	_, err := f.emisor.Emitir(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, f.cliente.recepciones, "sin correlativo no se debe llegar a Hacienda")
	assert.Empty(t, f.dtes.registros)
}

func TestEmitir_FirmaFallida_NoPersisteNada(t *testing.T) {
	cliente := &clienteFake{respuesta: &hacienda.RespuestaRecepcion{Aceptado: true}}
	f := newFixture(cliente, &firmadorFake{err: fmt.Errorf("status ERROR: %w", domain.ErrFirmaFallida)})

	_, err := f.emisor.Emitir(context.Background(), documentoValido(t, dte.TipoFactura, codGeneracionPrueba))
	require.ErrorIs(t, err, domain.ErrFirmaFallida)

	assert.Empty(t, f.cliente.recepciones)
	assert.Empty(t, f.dtes.registros)
	assert.Equal(t, int64(2), f.secuencias.siguiente[dte.TipoFactura],
		"el correlativo ya reservado queda como hueco, nunca se reusa")
}

func TestEmitir_DocumentoInvalido_NoConsumeSecuencia(t *testing.T) {
	cliente := &clienteFake{respuesta: &hacienda.RespuestaRecepcion{Aceptado: true}}
	f := newFixture(cliente, &firmadorFake{})

	doc := documentoValido(t, dte.TipoFactura, codGeneracionPrueba)
	doc["identificacion"].(map[string]any)["codigoGeneracion"] = "no-es-un-uuid"

	_, err := f.emisor.Emitir(context.Background(), doc)
	require.ErrorIs(t, err, domain.ErrDocumentoInvalido)
	assert.Equal(t, int64(1), f.secuencias.siguiente[dte.TipoFactura],
		"la validación va antes de tocar la secuencia")
}

func TestEmitir_ApendiceTiendaTerminal(t *testing.T) {
	cliente := &clienteFake{respuesta: &hacienda.RespuestaRecepcion{
		Aceptado: true, SelloRecibido: "SELLO",
	}}
	f := newFixture(cliente, &firmadorFake{})

	doc := documentoValido(t, dte.TipoComprobanteCredito, codGeneracionPrueba)
	doc["apendice"] = []any{
		map[string]any{"campo": "Tienda", "valor": "12"},
		map[string]any{"campo": "Terminal", "valor": "7"},
	}

	resp, err := f.emisor.Emitir(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "DTE-03-T012P007-000000000000001", resp.NumeroControl,
		"tienda/terminal del apéndice deben ir normalizados a tres dígitos")
}

func TestEmitir_Concurrente_NumerosControlDistintos(t *testing.T) {
	cliente := &clienteFake{respuesta: &hacienda.RespuestaRecepcion{
		Aceptado: true, SelloRecibido: "SELLO",
	}}
	f := newFixture(cliente, &firmadorFake{})

	const n = 50
	var wg sync.WaitGroup
	numeros := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cod := fmt.Sprintf("4AFF1720-3B48-4D61-8C23-%012d", i)
			resp, err := f.emisor.Emitir(context.Background(), documentoValido(t, dte.TipoFactura, cod))
			if err == nil {
				numeros[i] = resp.NumeroControl
			}
		}(i)
	}
	wg.Wait()

	vistos := make(map[string]bool, n)
	for i, num := range numeros {
		require.NotEmpty(t, num, "emisión %d debió completar", i)
		assert.False(t, vistos[num], "número de control repetido: %s", num)
		vistos[num] = true
	}
}
