// Package hacienda implementa el cliente REST del Ministerio de Hacienda:
// autenticación, recepción de DTEs, contingencia, anulación y consulta.
//
// Clasificación de fallos (cada uno dispara una transición distinta aguas
// arriba):
//   - error de transporte o timeout        → domain.ErrHaciendaNoDisponible
//   - cuerpo de respuesta no interpretable → domain.ErrRespuestaInvalida
//   - no-200 con cuerpo parseable          → resultado Aceptado=false (no es error)
package hacienda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/insorpa/dte-api/internal/domain"
)

const (
	userAgent = "DTE-APP"

	// Hacienda puede tardar varios segundos en responder.
	defaultTimeout = 30 * time.Second

	maxBodySize = 1 << 20 // max 1 MB
)

// ── Puerto (interfaz) ─────────────────────────────────────────────────────────

// RecepcionRequest es el sobre de la operación de recepción.
type RecepcionRequest struct {
	Ambiente  string `json:"ambiente"`
	IDEnvio   int    `json:"idEnvio"`
	Version   int    `json:"version"`
	TipoDte   string `json:"tipoDte"`
	Documento string `json:"documento"` // DTE firmado (JWS)
}

// AnulacionRequest es el sobre de la operación de invalidación.
type AnulacionRequest struct {
	Ambiente  string `json:"ambiente"`
	IDEnvio   int    `json:"idEnvio"`
	Version   int    `json:"version"`
	Documento string `json:"documento"`
}

// RespuestaRecepcion es el desenlace de negocio de la recepción.
// Aceptado=false con DescripcionMsg poblado es un rechazo de Hacienda, no un
// error: el orquestador lo persiste como RECHAZADO.
type RespuestaRecepcion struct {
	Aceptado       bool
	Estado         string
	SelloRecibido  string
	DescripcionMsg string
	Observaciones  []string
}

// ClienteMH define el puerto de salida hacia la API de Hacienda.
// La implementación concreta usa REST/JSON; para tests se inyecta un fake.
type ClienteMH interface {
	Recepcion(ctx context.Context, token string, req RecepcionRequest) (*RespuestaRecepcion, error)
	// Contingencia envía el documento por el canal degradado y devuelve la
	// respuesta cruda de Hacienda (passthrough).
	Contingencia(ctx context.Context, token, nit, documentoFirmado string) (map[string]any, error)
	// Anulacion envía el evento de invalidación y devuelve la respuesta cruda
	// (estado, fhProcesamiento "dd/mm/yyyy HH:MM:SS", ...).
	Anulacion(ctx context.Context, token string, req AnulacionRequest) (map[string]any, error)
	// Consulta devuelve el último registro conocido de un DTE del lado de Hacienda.
	Consulta(ctx context.Context, token, nitEmisor, tdte, codGeneracion string) (map[string]any, error)
}

// ── Implementación HTTP ───────────────────────────────────────────────────────

// Config URLs de los endpoints de Hacienda.
type Config struct {
	RecepcionURL    string
	ContingenciaURL string
	AnulacionURL    string
	ConsultasURL    string
}

var _ ClienteMH = (*Client)(nil)

// Client implementa ClienteMH sobre la API REST de Hacienda.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient construye el cliente con el timeout de red por defecto.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// cuerpos de respuesta de la recepción según código de estado
type recepcionOK struct {
	SelloRecibido string   `json:"selloRecibido"`
	Estado        string   `json:"estado"`
	Observaciones []string `json:"observaciones"`
}

type recepcionError struct {
	DescripcionMsg string   `json:"descripcionMsg"`
	Observaciones  []string `json:"observaciones"`
}

// Recepcion envía el DTE firmado al endpoint de recepción.
func (c *Client) Recepcion(ctx context.Context, token string, req RecepcionRequest) (*RespuestaRecepcion, error) {
	status, raw, err := c.post(ctx, c.cfg.RecepcionURL, token, req)
	if err != nil {
		return nil, err
	}

	if status == http.StatusOK {
		var ok recepcionOK
		if err := json.Unmarshal(raw, &ok); err != nil {
			return nil, fmt.Errorf("%w: recepción HTTP 200 con cuerpo ilegible: %s",
				domain.ErrRespuestaInvalida, truncar(raw))
		}
		return &RespuestaRecepcion{
			Aceptado:      true,
			Estado:        ok.Estado,
			SelloRecibido: ok.SelloRecibido,
			Observaciones: ok.Observaciones,
		}, nil
	}

	var rech recepcionError
	if err := json.Unmarshal(raw, &rech); err != nil {
		return nil, fmt.Errorf("%w: recepción HTTP %d con cuerpo ilegible: %s",
			domain.ErrRespuestaInvalida, status, truncar(raw))
	}
	return &RespuestaRecepcion{
		Aceptado:       false,
		Estado:         "RECHAZADO",
		DescripcionMsg: rech.DescripcionMsg,
		Observaciones:  rech.Observaciones,
	}, nil
}

// Contingencia envía el DTE firmado por el canal de contingencia.
func (c *Client) Contingencia(ctx context.Context, token, nit, documentoFirmado string) (map[string]any, error) {
	body := map[string]any{"nit": nit, "documento": documentoFirmado}
	_, raw, err := c.post(ctx, c.cfg.ContingenciaURL, token, body)
	if err != nil {
		return nil, err
	}
	return decodificar(raw)
}

// Anulacion envía el evento de invalidación.
func (c *Client) Anulacion(ctx context.Context, token string, req AnulacionRequest) (map[string]any, error) {
	_, raw, err := c.post(ctx, c.cfg.AnulacionURL, token, req)
	if err != nil {
		return nil, err
	}
	return decodificar(raw)
}

// Consulta consulta el último estado de un DTE en Hacienda.
func (c *Client) Consulta(ctx context.Context, token, nitEmisor, tdte, codGeneracion string) (map[string]any, error) {
	body := map[string]any{
		"nitEmisor":        nitEmisor,
		"tdte":             tdte,
		"codigoGeneracion": codGeneracion,
	}
	_, raw, err := c.post(ctx, c.cfg.ConsultasURL, token, body)
	if err != nil {
		return nil, err
	}
	return decodificar(raw)
}

// post serializa el payload, ejecuta el POST con bearer token y devuelve
// status + cuerpo crudo. Todo fallo de red (incluido timeout) se traduce a
// ErrHaciendaNoDisponible.
func (c *Client) post(ctx context.Context, url, token string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("hacienda: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("hacienda: crear request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/JSON")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrHaciendaNoDisponible, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: leer respuesta: %v", domain.ErrHaciendaNoDisponible, err)
	}
	return resp.StatusCode, raw, nil
}

func decodificar(raw []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRespuestaInvalida, truncar(raw))
	}
	return out, nil
}

func truncar(raw []byte) string {
	const max = 512
	if len(raw) > max {
		return string(raw[:max]) + "…"
	}
	return string(raw)
}
