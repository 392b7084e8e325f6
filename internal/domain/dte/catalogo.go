package dte

// Tipos de DTE del catálogo CAT-002 de Hacienda que emite este sistema.
const (
	TipoFactura              = "01"
	TipoComprobanteCredito   = "03"
	TipoNotaRemision         = "04"
	TipoNotaCredito          = "05"
	TipoNotaDebito           = "06"
	TipoComprobanteRetencion = "07"
	TipoFacturaExportacion   = "11"
	TipoSujetoExcluido       = "14"
)

// Tipos enumera los tipos emitibles; cada uno necesita su fila de secuencia.
var Tipos = []string{
	TipoFactura,
	TipoComprobanteCredito,
	TipoNotaRemision,
	TipoNotaCredito,
	TipoNotaDebito,
	TipoComprobanteRetencion,
	TipoFacturaExportacion,
	TipoSujetoExcluido,
}
