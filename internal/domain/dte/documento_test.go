package dte_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/dte"
)

const testCodGeneracion = "A3A3E8D4-BB5B-4E0B-AB27-9B97D02CBF3B"

// documentoBase arma un DTE mínimo como lo enviaría el POS (pasando por JSON
// para reproducir los tipos que entrega el BodyParser: float64, map, slice).
func documentoBase(t *testing.T) dte.Documento {
	t.Helper()
	raw := `{
		"identificacion": {
			"ambiente": "00",
			"version": 1,
			"tipoDte": "01",
			"codigoGeneracion": "` + testCodGeneracion + `"
		},
		"apendice": [
			{"campo": "Tienda", "valor": "S002"},
			{"campo": "Terminal", "valor": "P003"}
		],
		"receptor": {"correo": "cliente@example.com", "nombre": "Juana Pérez"},
		"resumen": {"totalPagar": 113.00}
	}`
	var doc dte.Documento
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestIdentificacion_CamposCompletos(t *testing.T) {
	doc := documentoBase(t)
	id, err := doc.Identificacion()
	require.NoError(t, err)
	assert.Equal(t, "00", id.Ambiente)
	assert.Equal(t, 1, id.Version)
	assert.Equal(t, "01", id.TipoDte)
	assert.Equal(t, testCodGeneracion, id.CodGeneracion)
}

func TestIdentificacion_SinIdentificacion_EsDocumentoInvalido(t *testing.T) {
	doc := dte.Documento{"resumen": map[string]any{}}
	_, err := doc.Identificacion()
	assert.ErrorIs(t, err, domain.ErrDocumentoInvalido)
}

func TestIdentificacion_CodGeneracionNoUUID_EsDocumentoInvalido(t *testing.T) {
	doc := documentoBase(t)
	doc["identificacion"].(map[string]any)["codigoGeneracion"] = "no-es-uuid"
	_, err := doc.Identificacion()
	assert.ErrorIs(t, err, domain.ErrDocumentoInvalido)
}

func TestSetNumeroControl_EscribeEnIdentificacion(t *testing.T) {
	doc := documentoBase(t)
	doc.SetNumeroControl("DTE-01-T001P001-000000000000001")
	assert.Equal(t, "DTE-01-T001P001-000000000000001", doc.NumeroControl())
}

func TestSucursalPuntoVenta_DesdeApendice(t *testing.T) {
	doc := documentoBase(t)
	suc, pv := doc.SucursalPuntoVenta("001", "001")
	assert.Equal(t, "S002", suc)
	assert.Equal(t, "P003", pv)
}

func TestSucursalPuntoVenta_SinApendice_UsaDefaults(t *testing.T) {
	doc := documentoBase(t)
	delete(doc, "apendice")
	suc, pv := doc.SucursalPuntoVenta("001", "002")
	assert.Equal(t, "001", suc)
	assert.Equal(t, "002", pv)
}

func TestReceptor_TipoNormal(t *testing.T) {
	doc := documentoBase(t)
	correo, nombre := doc.Receptor("01")
	assert.Equal(t, "cliente@example.com", correo)
	assert.Equal(t, "Juana Pérez", nombre)
}

func TestReceptor_SujetoExcluido_LeeOtraRama(t *testing.T) {
	doc := documentoBase(t)
	doc["sujetoExcluido"] = map[string]any{"correo": "se@example.com", "nombre": "Proveedor SE"}
	correo, nombre := doc.Receptor(dte.TipoSujetoExcluido)
	assert.Equal(t, "se@example.com", correo)
	assert.Equal(t, "Proveedor SE", nombre)
}

func TestReceptor_SinCorreo_DevuelveVacioYClienteGenerico(t *testing.T) {
	doc := documentoBase(t)
	delete(doc, "receptor")
	correo, nombre := doc.Receptor("01")
	assert.Empty(t, correo)
	assert.Equal(t, "Cliente", nombre)
}

func TestCodGeneracionAnulado_RamaDocumento(t *testing.T) {
	var doc dte.Documento
	raw := `{"documento": {"codigoGeneracion": "` + testCodGeneracion + `"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, testCodGeneracion, doc.CodGeneracionAnulado())
}

func TestTotalPagar_NumeroYString(t *testing.T) {
	doc := documentoBase(t)
	assert.Equal(t, "113", doc.TotalPagar().String())

	doc["resumen"].(map[string]any)["totalPagar"] = "250.75"
	assert.Equal(t, "250.75", doc.TotalPagar().String())

	delete(doc, "resumen")
	assert.True(t, doc.TotalPagar().IsZero())
}
