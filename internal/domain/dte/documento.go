package dte

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/insorpa/dte-api/internal/domain"
)

// Documento es el payload JSON del DTE tal como lo envía el POS/ERP. El
// pipeline lo trata como opaco salvo un puñado de rutas que lee
// (identificación, apéndice, receptor, resumen) y dos que escribe
// (numeroControl, selloRecibido).
type Documento map[string]any

// Identificacion son los campos mínimos que el pipeline necesita leer.
type Identificacion struct {
	Ambiente      string
	Version       int
	TipoDte       string
	CodGeneracion string
}

// Identificacion valida y extrae identificacion.{ambiente, version, tipoDte,
// codigoGeneracion}. El código de generación debe ser un UUID.
func (d Documento) Identificacion() (Identificacion, error) {
	ident, ok := d["identificacion"].(map[string]any)
	if !ok {
		return Identificacion{}, fmt.Errorf("%w: falta identificacion", domain.ErrDocumentoInvalido)
	}

	var id Identificacion
	id.Ambiente, _ = ident["ambiente"].(string)
	id.TipoDte, _ = ident["tipoDte"].(string)
	id.CodGeneracion, _ = ident["codigoGeneracion"].(string)

	switch v := ident["version"].(type) {
	case float64:
		id.Version = int(v)
	case int:
		id.Version = v
	}

	if id.TipoDte == "" || id.Ambiente == "" || id.Version == 0 {
		return Identificacion{}, fmt.Errorf("%w: identificacion incompleta", domain.ErrDocumentoInvalido)
	}
	if _, err := uuid.Parse(id.CodGeneracion); err != nil {
		return Identificacion{}, fmt.Errorf("%w: codigoGeneracion no es un UUID", domain.ErrDocumentoInvalido)
	}
	return id, nil
}

// SetNumeroControl escribe identificacion.numeroControl. Hacienda exige que
// el número ya esté presente en el payload que se firma.
func (d Documento) SetNumeroControl(numeroControl string) {
	if ident, ok := d["identificacion"].(map[string]any); ok {
		ident["numeroControl"] = numeroControl
	}
}

// NumeroControl lee identificacion.numeroControl.
func (d Documento) NumeroControl() string {
	if ident, ok := d["identificacion"].(map[string]any); ok {
		nc, _ := ident["numeroControl"].(string)
		return nc
	}
	return ""
}

// SetSelloRecibido escribe el sello de recepción en el documento almacenado.
func (d Documento) SetSelloRecibido(sello string) {
	d["selloRecibido"] = sello
}

// SucursalPuntoVenta recorre el apéndice buscando los campos Tienda y
// Terminal. Ausentes (o sin apéndice) se devuelven los defaults dados.
func (d Documento) SucursalPuntoVenta(defSucursal, defPuntoVenta string) (sucursal, puntoVenta string) {
	sucursal, puntoVenta = defSucursal, defPuntoVenta
	apendices, ok := d["apendice"].([]any)
	if !ok {
		return sucursal, puntoVenta
	}
	for _, raw := range apendices {
		ap, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		campo, _ := ap["campo"].(string)
		valor, _ := ap["valor"].(string)
		switch campo {
		case "Tienda":
			if valor != "" {
				sucursal = valor
			}
		case "Terminal":
			if valor != "" {
				puntoVenta = valor
			}
		}
	}
	return sucursal, puntoVenta
}

// Receptor devuelve correo y nombre del destinatario del documento. Para el
// tipo 14 (sujeto excluido) el receptor vive bajo sujetoExcluido.
func (d Documento) Receptor(tipoDte string) (correo, nombre string) {
	clave := "receptor"
	if tipoDte == TipoSujetoExcluido {
		clave = "sujetoExcluido"
	}
	nombre = "Cliente"
	rec, ok := d[clave].(map[string]any)
	if !ok {
		return "", nombre
	}
	correo, _ = rec["correo"].(string)
	if n, _ := rec["nombre"].(string); n != "" {
		nombre = n
	}
	return correo, nombre
}

// CodGeneracionAnulado extrae documento.codigoGeneracion de un payload de
// invalidación: el código del DTE que se está anulando.
func (d Documento) CodGeneracionAnulado() string {
	doc, ok := d["documento"].(map[string]any)
	if !ok {
		return ""
	}
	cod, _ := doc["codigoGeneracion"].(string)
	return cod
}

// TotalPagar lee resumen.totalPagar (o cero si no existe), para el listado.
func (d Documento) TotalPagar() decimal.Decimal {
	resumen, ok := d["resumen"].(map[string]any)
	if !ok {
		return decimal.Zero
	}
	switch v := resumen["totalPagar"].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		if dec, err := decimal.NewFromString(v); err == nil {
			return dec
		}
	}
	return decimal.Zero
}
