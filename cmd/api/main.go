// @title           ZATCA e-invoicing API
// @version         1.0
// @description     Generación, firma y envío de facturas electrónicas ZATCA (fase 2).
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in              header
// @name            Authorization
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

	_ "github.com/jhoicas/zatca-einvoice/docs"
	"github.com/jhoicas/zatca-einvoice/internal/application/einvoice"
	infrapdf "github.com/jhoicas/zatca-einvoice/internal/infrastructure/pdf"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/zatca-einvoice/internal/infrastructure/redis"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/storage"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca/signer"
	httpRouter "github.com/jhoicas/zatca-einvoice/internal/interfaces/http"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("counter_backend", cfg.ZATCA.CounterBackend).
		Str("storage_backend", cfg.Storage.Backend).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	for _, name := range applied {
		log.Info().Str("migration", name).Msg("migración aplicada")
	}

	// Backends alternativos: contador ICV en Redis y XML en S3.
	var txOpts []postgres.TxOption
	if cfg.ZATCA.CounterBackend == "redis" {
		rdb, err := infraredis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		txOpts = append(txOpts, postgres.WithCounter(infraredis.NewICVCounter(rdb, cfg.ZATCA.CounterKey)))
	}
	if cfg.Storage.Backend == "s3" {
		store, err := storage.NewS3AttachmentStore(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("cliente S3")
		}
		txOpts = append(txOpts, postgres.WithAttachmentStore(store))
	}
	txRunner := postgres.NewTxRunner(pool, cfg.ZATCA.CounterKey, txOpts...)
	repos := txRunner.Repos()

	materials, err := signer.NewMaterialLoader(cfg.ZATCA.CertPath, cfg.ZATCA.CertKeyPath, cfg.ZATCA.CertPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar certificado ZATCA")
	}

	canon := infrazatca.NewCanonicalizer()
	zatcaClient := infrazatca.NewHTTPClient(cfg.ZATCA.HTTPTimeout)

	// Ciclo ZATCA: Validar → PIH → ICV → XML → Hash → Firma → QR → Envío
	generateUC := einvoice.NewGenerateUseCase(
		txRunner, infrazatca.NewXMLBuilderService(), canon,
		signer.NewDigitalSignatureService(), materials,
		einvoice.GenerateConfig{StrictChain: cfg.ZATCA.StrictChain}, log,
	)
	submitUC := einvoice.NewSubmitUseCase(repos, zatcaClient, canon, log)
	onboardingUC := einvoice.NewOnboardingUseCase(repos.Configs, zatcaClient, cfg.ZATCA.BaseURL, log)
	chainUC := einvoice.NewChainUseCase(repos, canon)
	artifactsUC := einvoice.NewArtifactsUseCase(repos, infrapdf.NewMarotoPDFGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.ZATCA.HTTPTimeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ZATCA e-invoicing API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Generate:   generateUC,
		Submit:     submitUC,
		Chain:      chainUC,
		Artifacts:  artifactsUC,
		Onboarding: onboardingUC,
		JWTSecret:  cfg.JWT.Secret,
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
