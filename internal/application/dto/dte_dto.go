package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// EmisionResponse es la respuesta de la emisión de un DTE. Refleja el
// desenlace del envío a Hacienda tal como quedó persistido.
type EmisionResponse struct {
	Estado        string   `json:"estado"`
	CodGeneracion string   `json:"codigoGeneracion"`
	NumeroControl string   `json:"numeroControl"`
	SelloRecibido string   `json:"selloRecibido,omitempty"`
	FhProcesado   string   `json:"fhProcesamiento"`
	Observaciones []string `json:"observaciones,omitempty"`
	EnlacePDF     string   `json:"enlacePdf,omitempty"`
	EnlaceJSON    string   `json:"enlaceJson,omitempty"`
	EnlaceTicket  string   `json:"enlaceTicket,omitempty"`
}

// DTEResponse registro persistido de un DTE para consultas.
type DTEResponse struct {
	ID              int64           `json:"id"`
	CodGeneracion   string          `json:"codigoGeneracion"`
	NumeroControl   string          `json:"numeroControl"`
	SelloRecibido   string          `json:"selloRecibido,omitempty"`
	Estado          string          `json:"estado"`
	TipoDte         string          `json:"tipoDte"`
	MontoTotal      decimal.Decimal `json:"montoTotal"`
	FhProcesamiento time.Time       `json:"fhProcesamiento"`
	Observaciones   string          `json:"observaciones,omitempty"`
	EnlacePDF       string          `json:"enlacePdf,omitempty"`
	EnlaceJSON      string          `json:"enlaceJson,omitempty"`
	EnlaceTicket    string          `json:"enlaceTicket,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DTEDetailResponse agrega el documento completo (auditoría / reimpresión).
type DTEDetailResponse struct {
	DTEResponse
	Documento string `json:"documento"`
}

// DTEListResponse página de DTEs.
type DTEListResponse struct {
	Items []DTEResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}

// ListDTERequest filtros del listado.
type ListDTERequest struct {
	PageRequest
	Estado string `query:"estado"`
	Desde  string `query:"desde"` // YYYY-MM-DD
	Hasta  string `query:"hasta"`
}

// EventoResponse registro de un evento de contingencia/invalidación.
type EventoResponse struct {
	ID          int64     `json:"id"`
	TipoEvento  string    `json:"tipo_evento"`
	Evento      string    `json:"evento"`
	RespuestaMH string    `json:"respuesta_mh"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventoListResponse página de eventos.
type EventoListResponse struct {
	Items []EventoResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// ListEventoRequest filtros del listado de eventos.
type ListEventoRequest struct {
	PageRequest
	Desde string `query:"desde"` // YYYY-MM-DD
	Hasta string `query:"hasta"`
}

// ReconciliacionResponse resultado del barrido de invalidaciones.
type ReconciliacionResponse struct {
	Revisados int `json:"eventos_revisados"`
	Anulados  int `json:"dtes_anulados"`
}

// SecuenciaResponse correlativo de un tipo de DTE.
type SecuenciaResponse struct {
	ID        int64  `json:"id"`
	TipoDte   string `json:"tipo_dte"`
	Secuencia int64  `json:"secuencia"`
}

// SecuenciaUpdateRequest ajuste administrativo de un correlativo.
type SecuenciaUpdateRequest struct {
	TipoDte   string `json:"tipo_dte"`
	Secuencia int64  `json:"secuencia"`
}

// ToDTEResponse mapea la entidad al DTO de salida.
func ToDTEResponse(d *entity.DTE) DTEResponse {
	return DTEResponse{
		ID:              d.ID,
		CodGeneracion:   d.CodGeneracion,
		NumeroControl:   d.NumeroControl,
		SelloRecibido:   d.SelloRecibido,
		Estado:          d.Estado,
		TipoDte:         d.TipoDte,
		MontoTotal:      d.MontoTotal,
		FhProcesamiento: d.FhProcesamiento,
		Observaciones:   d.Observaciones,
		EnlacePDF:       d.EnlacePDF,
		EnlaceJSON:      d.EnlaceJSON,
		EnlaceTicket:    d.EnlaceTicket,
		CreatedAt:       d.CreatedAt,
	}
}

// ToEventoResponse mapea la entidad al DTO de salida.
func ToEventoResponse(ev *entity.Evento) EventoResponse {
	return EventoResponse{
		ID:          ev.ID,
		TipoEvento:  ev.TipoEvento,
		Evento:      ev.Evento,
		RespuestaMH: ev.RespuestaMH,
		CreatedAt:   ev.CreatedAt,
	}
}

// ToSecuenciaResponse mapea la entidad al DTO de salida.
func ToSecuenciaResponse(s *entity.Secuencia) SecuenciaResponse {
	return SecuenciaResponse{ID: s.ID, TipoDte: s.TipoDte, Secuencia: s.Secuencia}
}
