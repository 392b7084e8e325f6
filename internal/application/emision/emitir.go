// Package emision implementa el ciclo de vida completo de un DTE:
//
//	asignar correlativo → firmar → enviar a Hacienda → persistir desenlace
//
// más los eventos de contingencia/invalidación, su reconciliación y las
// consultas sobre lo ya emitido.
package emision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/insorpa/dte-api/internal/application/dto"
	"github.com/insorpa/dte-api/internal/domain"
	"github.com/insorpa/dte-api/internal/domain/dte"
	"github.com/insorpa/dte-api/internal/domain/entity"
	"github.com/insorpa/dte-api/internal/domain/repository"
	"github.com/insorpa/dte-api/internal/infrastructure/enlaces"
	"github.com/insorpa/dte-api/internal/infrastructure/firmador"
	"github.com/insorpa/dte-api/internal/infrastructure/hacienda"
	"github.com/insorpa/dte-api/internal/infrastructure/mail"
	"github.com/insorpa/dte-api/pkg/logger"
)

// Emisor orquesta la emisión de DTEs. Cada fallo del flujo tiene un desenlace
// definido:
//
//   - documento inválido, firma fallida, secuencia inexistente, autenticación
//     MH: fatal, no se persiste nada (el correlativo ya reservado queda como
//     hueco, nunca se reusa).
//   - Hacienda inalcanzable: se persiste en CONTINGENCIA para reenvío manual.
//   - respuesta ininteligible de Hacienda: fatal, no se persiste nada; el
//     caller decide reintentar.
//   - rechazo de negocio de Hacienda: se persiste en RECHAZADO con las
//     observaciones.
type Emisor struct {
	dteRepo       repository.DTERepository
	secuenciaRepo repository.SecuenciaRepository
	empresaRepo   repository.EmpresaRepository
	tokens        hacienda.TokenProvider
	cliente       hacienda.ClienteMH
	firmador      firmador.Firmador
	enlaces       enlaces.Generador
	notificador   mail.Notificador
	cfg           Config
	log           *logger.Logger
	now           func() time.Time
}

// NewEmisor construye el orquestador con todas sus dependencias.
func NewEmisor(
	dteRepo repository.DTERepository,
	secuenciaRepo repository.SecuenciaRepository,
	empresaRepo repository.EmpresaRepository,
	tokens hacienda.TokenProvider,
	cliente hacienda.ClienteMH,
	firm firmador.Firmador,
	gen enlaces.Generador,
	notificador mail.Notificador,
	cfg Config,
	log *logger.Logger,
) *Emisor {
	return &Emisor{
		dteRepo:       dteRepo,
		secuenciaRepo: secuenciaRepo,
		empresaRepo:   empresaRepo,
		tokens:        tokens,
		cliente:       cliente,
		firmador:      firm,
		enlaces:       gen,
		notificador:   notificador,
		cfg:           cfg,
		log:           log.Componente("emision"),
		now:           time.Now,
	}
}

// Emitir procesa un DTE de punta a punta y devuelve el desenlace persistido.
func (e *Emisor) Emitir(ctx context.Context, doc dte.Documento) (*dto.EmisionResponse, error) {
	ident, err := doc.Identificacion()
	if err != nil {
		return nil, err
	}

	// Defaults de sucursal/punto de venta desde los datos del emisor.
	defSucursal, defPuntoVenta := "001", "001"
	if empresa, err := e.empresaRepo.Get(ctx); err == nil {
		defSucursal = dte.NormalizarCodigo(empresa.CodEstable, defSucursal)
		defPuntoVenta = dte.NormalizarCodigo(empresa.CodPuntoVenta, defPuntoVenta)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	correlativo, err := e.secuenciaRepo.Asignar(ctx, ident.TipoDte)
	if err != nil {
		return nil, fmt.Errorf("secuencia para tipo %s: %w", ident.TipoDte, err)
	}

	sucursal, puntoVenta := doc.SucursalPuntoVenta(defSucursal, defPuntoVenta)
	numeroControl := dte.GenerarNumeroControl(correlativo, ident.TipoDte, sucursal, puntoVenta)
	doc.SetNumeroControl(numeroControl)

	jws, err := e.firmador.Firmar(ctx, doc)
	if err != nil {
		return nil, err
	}

	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	fhProcesamiento := e.now()
	resp, err := e.cliente.Recepcion(ctx, token, hacienda.RecepcionRequest{
		Ambiente:  ident.Ambiente,
		IDEnvio:   1,
		Version:   ident.Version,
		TipoDte:   ident.TipoDte,
		Documento: jws,
	})
	if err != nil {
		if errors.Is(err, domain.ErrHaciendaNoDisponible) {
			return e.persistirContingencia(ctx, doc, ident, numeroControl, fhProcesamiento, err)
		}
		// respuesta ininteligible u otro fallo: no se persiste nada
		return nil, err
	}

	if !resp.Aceptado {
		return e.persistirRechazo(ctx, doc, ident, numeroControl, fhProcesamiento, resp)
	}
	return e.persistirProcesado(ctx, doc, ident, numeroControl, fhProcesamiento, resp)
}

// persistirProcesado guarda el DTE aceptado, genera los enlaces de descarga y
// notifica al receptor por correo.
func (e *Emisor) persistirProcesado(
	ctx context.Context,
	doc dte.Documento,
	ident dte.Identificacion,
	numeroControl string,
	fhProcesamiento time.Time,
	resp *hacienda.RespuestaRecepcion,
) (*dto.EmisionResponse, error) {
	doc.SetSelloRecibido(resp.SelloRecibido)
	documento, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializar documento: %w", err)
	}

	links := e.enlaces.Generar(ctx, string(documento), resp.SelloRecibido, ident.TipoDte)

	registro := &entity.DTE{
		CodGeneracion:   ident.CodGeneracion,
		NumeroControl:   numeroControl,
		SelloRecibido:   resp.SelloRecibido,
		Estado:          entity.EstadoProcesado,
		Documento:       string(documento),
		FhProcesamiento: fhProcesamiento,
		TipoDte:         ident.TipoDte,
		MontoTotal:      doc.TotalPagar(),
		EnlacePDF:       links.PDF,
		EnlaceJSON:      links.JSON,
		EnlaceTicket:    links.Ticket,
	}
	if err := e.dteRepo.Create(ctx, registro); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("cod_generacion", ident.CodGeneracion).
		Str("numero_control", numeroControl).
		Str("sello", resp.SelloRecibido).
		Msg("DTE procesado por Hacienda")

	e.notificarReceptor(ctx, doc, ident, numeroControl, links)

	return &dto.EmisionResponse{
		Estado:        entity.EstadoProcesado,
		CodGeneracion: ident.CodGeneracion,
		NumeroControl: numeroControl,
		SelloRecibido: resp.SelloRecibido,
		FhProcesado:   fhProcesamiento.Format(time.RFC3339),
		EnlacePDF:     links.PDF,
		EnlaceJSON:    links.JSON,
		EnlaceTicket:  links.Ticket,
	}, nil
}

// persistirRechazo guarda el DTE rechazado con las observaciones de Hacienda.
// Sin sello, sin enlaces, sin correo.
func (e *Emisor) persistirRechazo(
	ctx context.Context,
	doc dte.Documento,
	ident dte.Identificacion,
	numeroControl string,
	fhProcesamiento time.Time,
	resp *hacienda.RespuestaRecepcion,
) (*dto.EmisionResponse, error) {
	documento, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializar documento: %w", err)
	}

	observaciones := resp.DescripcionMsg
	if len(resp.Observaciones) > 0 {
		observaciones += ": " + strings.Join(resp.Observaciones, "; ")
	}

	registro := &entity.DTE{
		CodGeneracion:   ident.CodGeneracion,
		NumeroControl:   numeroControl,
		Estado:          entity.EstadoRechazado,
		Documento:       string(documento),
		FhProcesamiento: fhProcesamiento,
		Observaciones:   observaciones,
		TipoDte:         ident.TipoDte,
		MontoTotal:      doc.TotalPagar(),
	}
	if err := e.dteRepo.Create(ctx, registro); err != nil {
		return nil, err
	}

	e.log.Warn().
		Str("cod_generacion", ident.CodGeneracion).
		Str("numero_control", numeroControl).
		Str("motivo", resp.DescripcionMsg).
		Msg("DTE rechazado por Hacienda")

	return &dto.EmisionResponse{
		Estado:        entity.EstadoRechazado,
		CodGeneracion: ident.CodGeneracion,
		NumeroControl: numeroControl,
		FhProcesado:   fhProcesamiento.Format(time.RFC3339),
		Observaciones: resp.Observaciones,
	}, nil
}

// persistirContingencia guarda el DTE cuando Hacienda está inalcanzable. El
// documento queda completo (con número de control) listo para reenvío por el
// canal de contingencia. Los enlaces se generan sin sello; si la generación
// falla quedan vacíos. Sin correo.
func (e *Emisor) persistirContingencia(
	ctx context.Context,
	doc dte.Documento,
	ident dte.Identificacion,
	numeroControl string,
	fhProcesamiento time.Time,
	causa error,
) (*dto.EmisionResponse, error) {
	documento, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serializar documento: %w", err)
	}

	links := e.enlaces.Generar(ctx, string(documento), "", ident.TipoDte)

	registro := &entity.DTE{
		CodGeneracion:   ident.CodGeneracion,
		NumeroControl:   numeroControl,
		Estado:          entity.EstadoContingencia,
		Documento:       string(documento),
		FhProcesamiento: fhProcesamiento,
		Observaciones:   causa.Error(),
		TipoDte:         ident.TipoDte,
		MontoTotal:      doc.TotalPagar(),
		EnlacePDF:       links.PDF,
		EnlaceJSON:      links.JSON,
		EnlaceTicket:    links.Ticket,
	}
	if err := e.dteRepo.Create(ctx, registro); err != nil {
		return nil, err
	}

	e.log.Warn().
		Str("cod_generacion", ident.CodGeneracion).
		Str("numero_control", numeroControl).
		Err(causa).
		Msg("Hacienda inalcanzable; DTE en contingencia")

	return &dto.EmisionResponse{
		Estado:        entity.EstadoContingencia,
		CodGeneracion: ident.CodGeneracion,
		NumeroControl: numeroControl,
		FhProcesado:   fhProcesamiento.Format(time.RFC3339),
		Observaciones: []string{causa.Error()},
		EnlacePDF:     links.PDF,
		EnlaceJSON:    links.JSON,
		EnlaceTicket:  links.Ticket,
	}, nil
}

// notificarReceptor envía el DTE procesado por correo con sus artefactos
// adjuntos. Los fallos solo se loguean: el DTE ya quedó persistido.
func (e *Emisor) notificarReceptor(ctx context.Context, doc dte.Documento, ident dte.Identificacion, numeroControl string, links enlaces.Enlaces) {
	if e.cfg.DisableEmail {
		return
	}
	correo, nombre := doc.Receptor(ident.TipoDte)
	if correo == "" {
		correo = e.cfg.CorreoFallback
	}
	if correo == "" {
		return
	}

	var adjuntos []mail.Adjunto
	if links.PDF != "" {
		adjuntos = append(adjuntos, mail.Adjunto{Tipo: "PDF", Enlace: links.PDF})
	}
	if links.JSON != "" {
		adjuntos = append(adjuntos, mail.Adjunto{Tipo: "JSON", Enlace: links.JSON})
	}

	msg := mail.Mensaje{
		Para:   []string{correo},
		Asunto: "Documento Tributario Electrónico " + numeroControl,
		Cuerpo: fmt.Sprintf("Estimado(a) %s:\n\nSu documento %s fue procesado por el Ministerio de Hacienda.\nCódigo de generación: %s\n",
			nombre, numeroControl, ident.CodGeneracion),
		Adjuntos: adjuntos,
	}
	if err := e.notificador.Enviar(ctx, msg); err != nil {
		e.log.Warn().Err(err).Str("correo", correo).Msg("no se pudo enviar el correo al receptor")
	}
}
