package hacienda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/insorpa/dte-api/internal/domain"
)

// Vigencia del token que emite Hacienda.
const tokenTTL = 24 * time.Hour

// TokenProvider es el puerto que consumen los use cases.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

var _ TokenProvider = (*TokenCache)(nil)

// TokenCache es la caché de un solo slot del token de Hacienda.
// El mutex se mantiene durante el refresh completo: si varios callers llegan
// con el token vencido, uno solo dispara la petición de autenticación y el
// resto espera el resultado (single-flight).
type TokenCache struct {
	authURL    string
	user       string // NIT del emisor
	pwd        string
	httpClient *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time // inyectable en tests
}

// NewTokenCache construye la caché. user es el NIT del emisor.
func NewTokenCache(authURL, user, pwd string) *TokenCache {
	return &TokenCache{
		authURL:    authURL,
		user:       user,
		pwd:        pwd,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
}

type authResponse struct {
	Body struct {
		Token string `json:"token"`
	} `json:"body"`
}

// Token devuelve el token vigente, refrescándolo si expiró o no existe.
// Falla con domain.ErrAutenticacionMH si el endpoint devuelve no-200 o no
// está accesible.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("user", c.user)
	form.Set("pwd", c.pwd)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: crear request: %v", domain.ErrAutenticacionMH, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAutenticacionMH, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: leer respuesta: %v", domain.ErrAutenticacionMH, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d: %s", domain.ErrAutenticacionMH, resp.StatusCode, truncar(raw))
	}

	var auth authResponse
	if err := json.Unmarshal(raw, &auth); err != nil || auth.Body.Token == "" {
		return "", fmt.Errorf("%w: respuesta de auth ilegible: %s", domain.ErrAutenticacionMH, truncar(raw))
	}

	c.token = auth.Body.Token
	c.expiresAt = c.now().Add(tokenTTL)
	return c.token, nil
}
