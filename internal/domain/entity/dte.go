package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados terminales y recuperables de un DTE.
// CONTINGENCIA puede pasar a PROCESADO/RECHAZADO por reenvío manual;
// PROCESADO pasa a ANULADO cuando Hacienda confirma una invalidación.
const (
	EstadoProcesado    = "PROCESADO"
	EstadoRechazado    = "RECHAZADO"
	EstadoContingencia = "CONTINGENCIA"
	EstadoAnulado      = "ANULADO"
)

// DTE es el registro persistido de cada documento tributario electrónico
// enviado a Hacienda, cualquiera sea el desenlace.
type DTE struct {
	ID              int64
	CodGeneracion   string // identificador global asignado por el caller (UUID)
	NumeroControl   string // correlativo con formato DTE-{tipo}-T{suc}P{pv}-{seq}
	SelloRecibido   string // sello de recepción de Hacienda; vacío salvo PROCESADO
	Estado          string
	Documento       string // payload completo sin firma, verbatim (auditoría y reimpresión)
	FhProcesamiento time.Time
	Observaciones   string // mensajes de Hacienda o error local
	TipoDte         string
	MontoTotal      decimal.Decimal // totalPagar del resumen, para listados
	EnlacePDF       string
	EnlaceJSON      string
	EnlaceTicket    string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
