// Package dte contiene la lógica de dominio sobre los documentos tributarios
// electrónicos: formato del número de control, accesores sobre el payload
// opaco y el catálogo de tipos.
package dte

import (
	"fmt"
	"strconv"
	"strings"
)

// Valores por defecto de sucursal y punto de venta cuando el documento no
// trae apéndice (o trae valores que no se pueden normalizar).
const (
	SucursalDefault   = "001"
	PuntoVentaDefault = "001"
)

// GenerarNumeroControl arma el número de control exigido por Hacienda:
//
//	DTE-{tipo}-T{sucursal:3}P{puntoVenta:3}-{correlativo:15}
//
// sucursal y puntoVenta se normalizan a tres dígitos con ceros a la
// izquierda ("1" → "001", "S002" → "002"); si no contienen dígitos se usa
// el valor por defecto 001.
func GenerarNumeroControl(correlativo int64, tipoDte, sucursal, puntoVenta string) string {
	return fmt.Sprintf("DTE-%s-T%sP%s-%015d",
		tipoDte,
		NormalizarCodigo(sucursal, SucursalDefault),
		NormalizarCodigo(puntoVenta, PuntoVentaDefault),
		correlativo,
	)
}

// NormalizarCodigo reduce un código de tienda/terminal a tres dígitos.
// Acepta valores como "1", "001", "S001" o "P12"; cualquier cosa sin
// dígitos cae al valor por defecto.
func NormalizarCodigo(valor, def string) string {
	digitos := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, valor)
	if digitos == "" {
		digitos = def
	}
	n, err := strconv.Atoi(digitos)
	if err != nil {
		return def
	}
	return fmt.Sprintf("%03d", n)
}
