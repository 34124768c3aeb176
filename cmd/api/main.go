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

	"github.com/jhoicas/Conteo-api/internal/application/counting"
	"github.com/jhoicas/Conteo-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Conteo-api/internal/interfaces/http"
	"github.com/jhoicas/Conteo-api/pkg/config"
	"github.com/jhoicas/Conteo-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
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

	countRepo := postgres.NewCountRepository(pool)
	itemRepo := postgres.NewCountItemRepository(pool)
	adjustmentRepo := postgres.NewAdjustmentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	ledger := postgres.NewStockLedgerClient(pool)
	catalog := postgres.NewItemCatalogRepository(pool)

	createCountUC := counting.NewCreateCountUseCase(txRunner, ledger, catalog)
	submitCountUC := counting.NewSubmitCountUseCase(txRunner)
	transitionUC := counting.NewTransitionUseCase(countRepo, itemRepo, ledger)
	approveUC := counting.NewApproveUseCase(countRepo, itemRepo, adjustmentRepo, ledger, log)
	countQueryUC := counting.NewCountQueryUseCase(countRepo, itemRepo)
	reportUC := counting.NewReportUseCase(itemRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Conteo API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CreateCount: createCountUC,
		SubmitCount: submitCountUC,
		Transition:  transitionUC,
		Approve:     approveUC,
		CountQuery:  countQueryUC,
		Report:      reportUC,
		JWTSecret:   cfg.JWT.Secret,
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
}
