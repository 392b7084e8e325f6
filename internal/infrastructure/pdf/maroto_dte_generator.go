// Package pdf implementa la reimpresión de la Representación Gráfica de un
// DTE ya emitido, a partir del documento verbatim guardado en la base.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + NIT  │  Tipo DTE + N° Control + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Dirección / Tel / Correo                           │
//	│  RECEPTOR: Nombre + documento                               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Venta                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: TOTAL A PAGAR                                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER MH: Cód. Generación + Sello + QR consulta pública   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"encoding/json"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/domain/entity"
)

var _ emision.GeneradorPDF = (*MarotoDTEGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 61, Blue: 107}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// nombres legibles por tipo de DTE para el encabezado.
var nombresTipo = map[string]string{
	dte.TipoFactura:              "FACTURA",
	dte.TipoComprobanteCredito:   "COMPROBANTE DE CRÉDITO FISCAL",
	dte.TipoNotaRemision:         "NOTA DE REMISIÓN",
	dte.TipoNotaCredito:          "NOTA DE CRÉDITO",
	dte.TipoNotaDebito:           "NOTA DE DÉBITO",
	dte.TipoComprobanteRetencion: "COMPROBANTE DE RETENCIÓN",
	dte.TipoFacturaExportacion:   "FACTURA DE EXPORTACIÓN",
	dte.TipoSujetoExcluido:       "FACTURA DE SUJETO EXCLUIDO",
}

// detalle es una línea del cuerpoDocumento ya normalizada para la tabla.
type detalle struct {
	Cantidad    decimal.Decimal
	Descripcion string
	PrecioUni   decimal.Decimal
	Venta       decimal.Decimal
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoDTEGenerator genera la Representación Gráfica de un DTE usando Maroto v2.
type MarotoDTEGenerator struct {
	consultaURL string // portal público de consulta; vacío deshabilita el QR
}

// NewMarotoDTEGenerator construye el generador.
func NewMarotoDTEGenerator(consultaURL string) *MarotoDTEGenerator {
	return &MarotoDTEGenerator{consultaURL: consultaURL}
}

// Generar genera el PDF del DTE y devuelve sus bytes. El documento guardado es
// el JSON sin firma; de ahí salen receptor, cuerpo y resumen.
func (g *MarotoDTEGenerator) Generar(_ context.Context, registro *entity.DTE, empresa *entity.Empresa) ([]byte, error) {
	var doc dte.Documento
	if err := json.Unmarshal([]byte(registro.Documento), &doc); err != nil {
		return nil, fmt.Errorf("pdf: documento guardado ilegible: %w", err)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("DTE "+registro.NumeroControl, true).
		WithAuthor(empresa.Nombre, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(registro, empresa))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(empresa))
	m.AddRows(receptorRow(doc, registro.TipoDte))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(cuerpoDocumento(doc)) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(registro))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range g.selloFooterRows(registro) {
		m.AddRows(r)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor + NIT (izq) y tipo de DTE + número de control + fecha (der).
func headerRow(registro *entity.DTE, empresa *entity.Empresa) core.Row {
	nombreTipo := nombresTipo[registro.TipoDte]
	if nombreTipo == "" {
		nombreTipo = "DOCUMENTO TRIBUTARIO ELECTRÓNICO"
	}
	fecha := registro.FhProcesamiento.Format("02/01/2006 15:04")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(empresa.Nombre, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIT: "+empresa.NIT+"   NRC: "+empresa.NRC, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(nombreTipo, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(registro.NumeroControl, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 7,
			}),
			text.New("Procesado: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// emisorRow: datos del emisor registrados ante Hacienda.
func emisorRow(empresa *entity.Empresa) core.Row {
	direccion := empresa.Complemento
	if empresa.Municipio != "" {
		if direccion != "" {
			direccion += ", "
		}
		direccion += empresa.Municipio
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Correo: %s",
				nonEmpty(direccion, "—"),
				nonEmpty(empresa.Telefono, "—"),
				nonEmpty(empresa.Correo, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// receptorRow: receptor (o sujetoExcluido según el tipo) tomado del documento.
func receptorRow(doc dte.Documento, tipoDte string) core.Row {
	correo, nombre := doc.Receptor(tipoDte)
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nombre, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("Documento: %s   |   Correo: %s",
				nonEmpty(numDocumentoReceptor(doc, tipoDte), "—"),
				nonEmpty(correo, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// numDocumentoReceptor lee el número de documento del receptor/sujetoExcluido.
func numDocumentoReceptor(doc dte.Documento, tipoDte string) string {
	clave := "receptor"
	if tipoDte == dte.TipoSujetoExcluido {
		clave = "sujetoExcluido"
	}
	rec, ok := doc[clave].(map[string]any)
	if !ok {
		return ""
	}
	num := texto(rec["numDocumento"])
	if num == "" {
		num = texto(rec["nit"])
	}
	return num
}

// tableHeaderRow: cabecera de la tabla de detalles.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 6, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Venta", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea del cuerpoDocumento.
func tableDetailRows(detalles []detalle) []core.Row {
	result := make([]core.Row, 0, len(detalles))
	for _, d := range detalles {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				d.Cantidad.StringFixed(2),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(6).Add(text.New(
				d.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+d.PrecioUni.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$"+d.Venta.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: TOTAL A PAGAR alineado a la derecha.
func totalsRow(registro *entity.DTE) core.Row {
	return row.New(12).Add(
		col.New(6),
		col.New(3).Add(text.New("TOTAL A PAGAR:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New("$"+registro.MontoTotal.StringFixed(2), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

// selloFooterRows: código de generación + sello de recepción + QR de consulta pública.
func (g *MarotoDTEGenerator) selloFooterRows(registro *entity.DTE) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN MINISTERIO DE HACIENDA", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("Código de Generación: "+registro.CodGeneracion, props.Text{
				Size: 7.5, Color: colorGray, Top: 1, Left: 2,
			}),
		)),
	}

	if registro.SelloRecibido != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Sello de Recepción: "+registro.SelloRecibido, props.Text{
				Size: 7.5, Color: colorGray, Top: 1, Left: 2,
			}),
		)))
	}

	if registro.Estado == entity.EstadoAnulado {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("DOCUMENTO ANULADO", props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Center, Top: 2,
			}),
		)))
	}

	if g.consultaURL != "" {
		qr := fmt.Sprintf("%s?ambiente=00&codGen=%s&fechaEmi=%s",
			g.consultaURL, registro.CodGeneracion, registro.FhProcesamiento.Format("2006-01-02"))
		rows = append(rows, row.New(40).Add(
			col.New(4).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New("Escanee el código QR para verificar este\ndocumento en el portal del Ministerio de Hacienda.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
			),
		))
	}

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// cuerpoDocumento extrae las líneas del documento; entradas malformadas se omiten.
func cuerpoDocumento(doc dte.Documento) []detalle {
	cuerpo, ok := doc["cuerpoDocumento"].([]any)
	if !ok {
		return nil
	}
	out := make([]detalle, 0, len(cuerpo))
	for _, item := range cuerpo {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		d := detalle{
			Cantidad:    numero(m["cantidad"]),
			Descripcion: texto(m["descripcion"]),
			PrecioUni:   numero(m["precioUni"]),
			Venta:       numero(m["ventaGravada"]),
		}
		if d.Venta.IsZero() {
			d.Venta = numero(m["compra"]) // sujeto excluido usa "compra"
		}
		out = append(out, d)
	}
	return out
}

// numero convierte valores JSON (float64 o string) a decimal; cero si no aplica.
func numero(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		if d, err := decimal.NewFromString(n); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func texto(v any) string {
	s, _ := v.(string)
	return s
}
