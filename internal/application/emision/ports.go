package emision

import (
	"context"

	"github.com/insorpa/dte-api/internal/domain/entity"
)

// GeneradorPDF genera la Representación Gráfica de un DTE persistido.
// La implementación concreta usa Maroto; para tests se inyecta un fake.
type GeneradorPDF interface {
	Generar(ctx context.Context, registro *entity.DTE, empresa *entity.Empresa) ([]byte, error)
}

// Config parámetros del emisor que necesita el flujo de emisión.
type Config struct {
	NIT            string // NIT del emisor autenticado ante Hacienda
	CorreoFallback string // destinatario cuando el receptor no trae correo
	DisableEmail   bool
}
