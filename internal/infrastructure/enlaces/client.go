// Package enlaces implementa el cliente del servicio generador de
// representaciones del DTE (PDF, JSON y ticket). Es un colaborador de mejor
// esfuerzo: ante cualquier fallo devuelve enlaces vacíos sin propagar error,
// porque la persistencia del DTE nunca debe bloquearse por la representación.
package enlaces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/insorpa/dte-api/pkg/logger"
)

// Enlaces son las URLs de los artefactos generados. Vacías cuando la
// generación se omitió o falló.
type Enlaces struct {
	PDF    string
	JSON   string
	Ticket string
}

// Generador define el puerto consumido por el orquestador de emisión.
type Generador interface {
	// Generar nunca falla: degrade a Enlaces{} ante cualquier problema.
	Generar(ctx context.Context, documento, selloRecibido, tipoDte string) Enlaces
}

var _ Generador = (*Client)(nil)

// Client implementa Generador contra el servicio HTTP de representaciones.
type Client struct {
	url        string // vacío = generación deshabilitada
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient construye el cliente. Con url vacía toda generación se omite.
func NewClient(url string, log *logger.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        log.Componente("enlaces"),
	}
}

type enlacesRequest struct {
	Documento     string `json:"documento"`
	SelloRecibido string `json:"selloRecibido"`
}

type enlacesResponse struct {
	PDFURL  string `json:"pdfUrl"`
	JSONURL string `json:"jsonUrl"`
	RTFURL  string `json:"rtfUrl"`
}

// Generar solicita los artefactos del documento. Todo fallo se loggea y
// devuelve Enlaces{} (el DTE queda sin enlaces, nunca sin persistir).
func (c *Client) Generar(ctx context.Context, documento, selloRecibido, tipoDte string) Enlaces {
	if c.url == "" {
		return Enlaces{}
	}

	body, err := json.Marshal(enlacesRequest{Documento: documento, SelloRecibido: selloRecibido})
	if err != nil {
		c.log.Warn().Err(err).Msg("serializar request de representación")
		return Enlaces{}
	}

	url := fmt.Sprintf("%s?documento=%s", c.url, tipoDte)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.log.Warn().Err(err).Msg("crear request de representación")
		return Enlaces{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("servicio de representaciones inaccesible")
		return Enlaces{}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("representación no generada")
		return Enlaces{}
	}

	var out enlacesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn().Err(err).Msg("respuesta ilegible del servicio de representaciones")
		return Enlaces{}
	}
	return Enlaces{PDF: out.PDFURL, JSON: out.JSONURL, Ticket: out.RTFURL}
}
