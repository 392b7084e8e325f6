package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/insorpa/dte-api/internal/application/auth"
	"github.com/insorpa/dte-api/internal/application/emision"
	"github.com/insorpa/dte-api/internal/infrastructure/enlaces"
	"github.com/insorpa/dte-api/internal/infrastructure/firmador"
	"github.com/insorpa/dte-api/internal/infrastructure/hacienda"
	"github.com/insorpa/dte-api/internal/infrastructure/mail"
	infrapdf "github.com/insorpa/dte-api/internal/infrastructure/pdf"
	"github.com/insorpa/dte-api/internal/infrastructure/postgres"
	httpRouter "github.com/insorpa/dte-api/internal/interfaces/http"
	"github.com/insorpa/dte-api/pkg/config"
	"github.com/insorpa/dte-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	dteRepo := postgres.NewDTERepository(pool)
	eventoRepo := postgres.NewEventoRepository(pool)
	secuenciaRepo := postgres.NewSecuenciaRepository(pool)
	empresaRepo := postgres.NewEmpresaRepository(pool)
	usuarioRepo := postgres.NewUsuarioRepository(pool)

	// Clientes externos: Hacienda (con token cacheado), firmador, enlaces, correo.
	tokens := hacienda.NewTokenCache(cfg.MH.AuthURL, cfg.MH.NIT, cfg.MH.Password)
	clienteMH := hacienda.NewClient(hacienda.Config{
		RecepcionURL:    cfg.MH.RecepcionURL,
		ContingenciaURL: cfg.MH.ContingenciaURL,
		AnulacionURL:    cfg.MH.AnulacionURL,
		ConsultasURL:    cfg.MH.ConsultasURL,
	})
	firmadorCli := firmador.NewClient(cfg.Firmador.URL, cfg.MH.NIT, cfg.Firmador.Password)
	enlacesCli := enlaces.NewClient(cfg.Enlaces.URL, log)
	notificador := mail.NewSender(cfg.SMTP, log)

	emisionCfg := emision.Config{
		NIT:            cfg.MH.NIT,
		CorreoFallback: cfg.SMTP.Fallback,
		DisableEmail:   cfg.SMTP.DisableEmail,
	}
	emisor := emision.NewEmisor(
		dteRepo, secuenciaRepo, empresaRepo,
		tokens, clienteMH, firmadorCli, enlacesCli, notificador,
		emisionCfg, log,
	)
	eventos := emision.NewEventos(eventoRepo, dteRepo, tokens, clienteMH, firmadorCli, emisionCfg, log)
	reconciliador := emision.NewReconciliador(eventoRepo, dteRepo, log)
	consultas := emision.NewConsultas(dteRepo, eventoRepo, secuenciaRepo, empresaRepo, tokens, clienteMH, emisionCfg)

	pdfGenerator := infrapdf.NewMarotoDTEGenerator(cfg.MH.ConsultaPublica)
	pdfUC := emision.NewPDFUseCase(dteRepo, empresaRepo, pdfGenerator)

	authUC := auth.NewUseCase(usuarioRepo, cfg.JWT)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // la emisión espera a Hacienda
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "DTE API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		Emisor:        emisor,
		Eventos:       eventos,
		Consultas:     consultas,
		Reconciliador: reconciliador,
		PDF:           pdfUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
