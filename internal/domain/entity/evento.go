package entity

import "time"

// Tipos de evento registrados por el Event Recorder.
const (
	EventoContingencia = "CONTINGENCIA"
	EventoInvalidacion = "INVALIDACION"
)

// Evento es el registro append-only de cada interacción de contingencia o
// invalidación con Hacienda. Su ciclo de vida es independiente del DTE:
// se crea aunque el registro del DTE nunca llegue a existir.
type Evento struct {
	ID          int64
	TipoEvento  string
	Evento      string // payload saliente sin firma, JSON verbatim
	RespuestaMH string // respuesta cruda de Hacienda (o descriptor del error local)
	CreatedAt   time.Time
}
