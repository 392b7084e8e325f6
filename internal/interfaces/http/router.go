package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/insorpa/dte-api/internal/application/auth"
	"github.com/insorpa/dte-api/internal/application/emision"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.UseCase
	Emisor        *emision.Emisor
	Eventos       *emision.Eventos
	Consultas     *emision.Consultas
	Reconciliador *emision.Reconciliador
	PDF           *emision.PDFUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	// Auth: login público; register con token opcional (bootstrap del primer usuario)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/register", OptionalAuthMiddleware(deps.JWTSecret), authHandler.Register)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Emisión y consultas de DTEs
	dteHandler := NewDTEHandler(deps.Emisor, deps.Consultas, deps.PDF)
	protected.Post("/dte", dteHandler.Emitir)
	dtes := protected.Group("/dtes")
	dtes.Get("/", dteHandler.Listar)
	dtes.Get("/:codGeneracion", dteHandler.Obtener)
	dtes.Get("/:codGeneracion/mh", dteHandler.ConsultarMH)
	dtes.Get("/:codGeneracion/pdf", dteHandler.PDF)

	// Eventos de contingencia e invalidación
	eventoHandler := NewEventoHandler(deps.Eventos, deps.Consultas, deps.Reconciliador)
	protected.Post("/contingencia/local", eventoHandler.Contingencia)
	protected.Post("/anulacion", eventoHandler.Anulacion)
	eventos := protected.Group("/eventos")
	eventos.Get("/", eventoHandler.Listar)
	eventos.Get("/contingencia", eventoHandler.ListarContingencias)
	eventos.Get("/invalidacion", eventoHandler.ListarInvalidaciones)
	eventos.Post("/reconciliar", eventoHandler.Reconciliar)

	// Administración: secuencias y datos del emisor
	adminHandler := NewAdminHandler(deps.Consultas)
	protected.Get("/secuencias", adminHandler.ListarSecuencias)
	protected.Put("/secuencias/:id", RequireSuperuser(), adminHandler.ActualizarSecuencia)
	protected.Get("/empresa", adminHandler.ObtenerEmpresa)
	protected.Put("/empresa", RequireSuperuser(), adminHandler.GuardarEmpresa)
}
