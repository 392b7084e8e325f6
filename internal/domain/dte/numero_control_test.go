package dte_test

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insorpa/dte-api/internal/domain/dte"
)

// ──────────────────────────────────────────────────────────────────────────────
// GenerarNumeroControl es el "canario" del pipeline de emisión: Hacienda
// rechaza cualquier documento cuyo número de control no calce exactamente con
// el patrón DTE-{tipo}-T{suc:3}P{pv:3}-{correlativo:15}.
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerarNumeroControl_VectorExacto(t *testing.T) {
	nc := dte.GenerarNumeroControl(42, "01", "1", "1")
	assert.Equal(t, "DTE-01-T001P001-000000000000042", nc,
		"el número de control debe coincidir exactamente con el formato de Hacienda")
}

func TestGenerarNumeroControl_Padding(t *testing.T) {
	casos := []struct {
		correlativo int64
		tipo        string
		sucursal    string
		puntoVenta  string
		esperado    string
	}{
		{1, "01", "001", "001", "DTE-01-T001P001-000000000000001"},
		{999999999999999, "03", "001", "001", "DTE-03-T001P001-999999999999999"},
		{7, "14", "12", "3", "DTE-14-T012P003-000000000000007"},
		{100, "05", "S002", "P010", "DTE-05-T002P010-000000000000100"},
	}
	for _, c := range casos {
		t.Run(c.esperado, func(t *testing.T) {
			assert.Equal(t, c.esperado,
				dte.GenerarNumeroControl(c.correlativo, c.tipo, c.sucursal, c.puntoVenta))
		})
	}
}

func TestGenerarNumeroControl_PatronGeneral(t *testing.T) {
	patron := regexp.MustCompile(`^DTE-\d{2}-T\d{3}P\d{3}-\d{15}$`)
	for _, tipo := range dte.Tipos {
		for _, correlativo := range []int64{1, 42, 123456} {
			nc := dte.GenerarNumeroControl(correlativo, tipo, "001", "001")
			assert.True(t, patron.MatchString(nc),
				fmt.Sprintf("número de control fuera de patrón: %s", nc))
		}
	}
}

func TestNormalizarCodigo_ValoresSinDigitos_UsanDefault(t *testing.T) {
	assert.Equal(t, "001", dte.NormalizarCodigo("", "001"))
	assert.Equal(t, "001", dte.NormalizarCodigo("Tienda", "001"))
	assert.Equal(t, "005", dte.NormalizarCodigo("", "5"))
}

func TestNormalizarCodigo_RecortaPrefijos(t *testing.T) {
	assert.Equal(t, "001", dte.NormalizarCodigo("S001", "001"))
	assert.Equal(t, "012", dte.NormalizarCodigo("P12", "001"))
}
