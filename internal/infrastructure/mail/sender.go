// Package mail implementa el envío del DTE por correo al receptor.
// Es estrictamente de mejor esfuerzo: un fallo de SMTP o de descarga de
// adjuntos se loggea y jamás afecta el desenlace de la emisión.
package mail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/insorpa/dte-api/pkg/config"
	"github.com/insorpa/dte-api/pkg/logger"
)

// Adjunto es un archivo referenciado por URL (los artefactos del DTE).
type Adjunto struct {
	Tipo   string // "PDF", "JSON"
	Enlace string
}

// Mensaje es el correo a enviar.
type Mensaje struct {
	Para     []string
	Asunto   string
	Cuerpo   string
	Adjuntos []Adjunto
}

// Notificador define el puerto de notificación del orquestador.
type Notificador interface {
	Enviar(ctx context.Context, msg Mensaje) error
}

var _ Notificador = (*Sender)(nil)

// Sender implementa Notificador sobre SMTP con gomail.
type Sender struct {
	cfg        config.SMTPConfig
	httpClient *http.Client // para descargar los adjuntos por URL
	log        *logger.Logger
}

// NewSender construye el notificador.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) *Sender {
	return &Sender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        log.Componente("correo"),
	}
}

// Enviar arma y despacha el correo. Los adjuntos que no se puedan descargar
// se insertan como enlaces al final del cuerpo, para que el receptor siempre
// tenga acceso al documento.
func (s *Sender) Enviar(ctx context.Context, msg Mensaje) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("correo: SMTP_HOST no configurado")
	}

	cuerpo := msg.Cuerpo

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", msg.Para...)
	m.SetHeader("Subject", msg.Asunto)

	for _, adj := range msg.Adjuntos {
		if adj.Enlace == "" {
			continue
		}
		datos, err := s.descargar(ctx, adj.Enlace)
		if err != nil {
			s.log.Warn().Err(err).Str("enlace", adj.Enlace).Msg("no se pudo descargar adjunto")
			cuerpo += fmt.Sprintf("\n%s: %s.", adj.Tipo, adj.Enlace)
			continue
		}
		m.Attach(nombreAdjunto(adj), gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(datos)
			return err
		}))
	}

	m.SetBody("text/plain", cuerpo)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("correo: enviar: %w", err)
	}
	return nil
}

// nombreAdjunto deriva el nombre del archivo desde la URL del artefacto,
// anteponiendo el tipo: el PDF y el JSON pueden compartir el mismo nombre
// base y no deben pisarse dentro del correo.
func nombreAdjunto(adj Adjunto) string {
	base := ""
	if u, err := url.Parse(adj.Enlace); err == nil {
		base = path.Base(u.Path)
	}
	if base == "" || base == "." || base == "/" {
		base = "documento." + strings.ToLower(adj.Tipo)
	}
	return strings.ToLower(adj.Tipo) + "_" + base
}

func (s *Sender) descargar(ctx context.Context, enlace string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, enlace, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}
