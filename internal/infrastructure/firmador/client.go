// Package firmador implementa el cliente del servicio externo de firma
// digital. La criptografía vive fuera de este proceso: aquí solo se envía el
// JSON del DTE y se recibe el JWS firmado.
package firmador

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

// Firmador define el puerto de firma que consume el orquestador.
type Firmador interface {
	// Firmar envía el documento al servicio de firma y devuelve el JWS.
	// Falla con domain.ErrFirmaFallida si el servicio no responde OK.
	Firmar(ctx context.Context, documento map[string]any) (string, error)
}

var _ Firmador = (*Client)(nil)

// Client implementa Firmador contra el firmador HTTP del emisor.
type Client struct {
	url        string
	nit        string
	password   string // passwordPri de la llave privada
	httpClient *http.Client
}

// NewClient construye el cliente de firma.
func NewClient(url, nit, password string) *Client {
	return &Client{
		url:        url,
		nit:        nit,
		password:   password,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type firmaRequest struct {
	ContentType string         `json:"contentType"`
	NIT         string         `json:"nit"`
	Activo      bool           `json:"activo"`
	PasswordPri string         `json:"passwordPri"`
	DTEJson     map[string]any `json:"dteJson"`
}

type firmaResponse struct {
	Status string          `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// Firmar envía el documento y extrae el JWS del cuerpo de la respuesta.
func (c *Client) Firmar(ctx context.Context, documento map[string]any) (string, error) {
	payload := firmaRequest{
		ContentType: "application/JSON",
		NIT:         c.nit,
		Activo:      true,
		PasswordPri: c.password,
		DTEJson:     documento,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("firmador: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("firmador: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFirmaFallida, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: leer respuesta: %v", domain.ErrFirmaFallida, err)
	}

	var out firmaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: respuesta ilegible del firmador", domain.ErrFirmaFallida)
	}
	if out.Status != "OK" {
		return "", fmt.Errorf("%w: status %q: %s", domain.ErrFirmaFallida, out.Status, string(out.Body))
	}

	// body es normalmente el JWS como string JSON.
	var jws string
	if err := json.Unmarshal(out.Body, &jws); err != nil || jws == "" {
		return "", fmt.Errorf("%w: el firmador no devolvió el documento firmado", domain.ErrFirmaFallida)
	}
	return jws, nil
}
