package enlaces_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/insorpa/dte-api/internal/infrastructure/enlaces"
	"github.com/insorpa/dte-api/pkg/logger"
)

func TestGenerar_RespuestaOK_DevuelveEnlaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "01", r.URL.Query().Get("documento"))
		_, _ = w.Write([]byte(`{"pdfUrl":"https://cdn/p.pdf","jsonUrl":"https://cdn/d.json","rtfUrl":"https://cdn/t.rtf"}`))
	}))
	defer server.Close()

	c := enlaces.NewClient(server.URL, logger.Nop())
	e := c.Generar(context.Background(), `{"doc":true}`, "SELLO", "01")
	assert.Equal(t, "https://cdn/p.pdf", e.PDF)
	assert.Equal(t, "https://cdn/d.json", e.JSON)
	assert.Equal(t, "https://cdn/t.rtf", e.Ticket)
}

func TestGenerar_ServicioCaido_DegradaAEnlacesVacios(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := enlaces.NewClient(server.URL, logger.Nop())
	e := c.Generar(context.Background(), "{}", "", "01")
	assert.Equal(t, enlaces.Enlaces{}, e, "ante fallo de red los enlaces quedan vacíos, nunca hay error")
}

func TestGenerar_RespuestaNo200_DegradaAEnlacesVacios(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := enlaces.NewClient(server.URL, logger.Nop())
	assert.Equal(t, enlaces.Enlaces{}, c.Generar(context.Background(), "{}", "", "01"))
}

func TestGenerar_URLVacia_OmiteGeneracion(t *testing.T) {
	c := enlaces.NewClient("", logger.Nop())
	assert.Equal(t, enlaces.Enlaces{}, c.Generar(context.Background(), "{}", "S", "01"))
}
