package domain

import "errors"

// Errores de dominio (sin dependencias externas). Cada modo de fallo del
// flujo de emisión tiene su propio centinela para que el orquestador y los
// handlers los distingan con errors.Is en lugar de un catch-all.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrEmailAlreadyExists = errors.New("el usuario ya está registrado")

	// ErrDocumentoInvalido indica que el DTE recibido no trae los campos
	// mínimos de identificación (tipoDte, ambiente, versión, código de generación).
	ErrDocumentoInvalido = errors.New("documento DTE inválido")

	// ErrFirmaFallida indica que el servicio de firma rechazó el documento.
	ErrFirmaFallida = errors.New("error al firmar documento")

	// ErrAutenticacionMH indica que no se pudo obtener un token de Hacienda.
	ErrAutenticacionMH = errors.New("no se pudo autenticar con Hacienda")

	// ErrHaciendaNoDisponible indica fallo de red o timeout contra Hacienda.
	// Es el único fallo recuperable: el DTE se persiste en CONTINGENCIA.
	ErrHaciendaNoDisponible = errors.New("Hacienda no disponible")

	// ErrRespuestaInvalida indica una respuesta de Hacienda que no se pudo
	// interpretar. Es fatal: no se persiste nada y el caller debe reintentar.
	ErrRespuestaInvalida = errors.New("respuesta de Hacienda inesperada")
)
