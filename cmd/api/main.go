// @title                       Kit Quirúrgico API
// @version                     1.0
// @description                 Ciclo de vida de kits quirúrgicos, libro de inventario, limpieza y trazabilidad.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/kitquirurgico-api/docs"
	"github.com/jhoicas/kitquirurgico-api/internal/application/cleaning"
	"github.com/jhoicas/kitquirurgico-api/internal/application/inventory"
	"github.com/jhoicas/kitquirurgico-api/internal/application/kit"
	"github.com/jhoicas/kitquirurgico-api/internal/application/notification"
	"github.com/jhoicas/kitquirurgico-api/internal/application/ports"
	"github.com/jhoicas/kitquirurgico-api/internal/application/traceability"
	"github.com/jhoicas/kitquirurgico-api/internal/application/usecase"
	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/memory"
	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/metrics"
	"github.com/jhoicas/kitquirurgico-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/kitquirurgico-api/internal/interfaces/http"
	"github.com/jhoicas/kitquirurgico-api/pkg/config"
	"github.com/jhoicas/kitquirurgico-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Notificaciones: RabbitMQ si hay URL; si no, solo log. Se resuelve antes de abrir el pool.
	notifier, closeNotifier, err := newNotifier(cfg.Rabbit, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a RabbitMQ")
	}
	defer closeNotifier()

	var (
		repos    ports.Repos
		txRunner ports.TxRunner
	)
	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.NewStore()
		repos = store.Repos()
		txRunner = store
		log.Warn().Msg("backend en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(cfg.DB.ConnectionString(), log); err != nil {
				log.Fatal().Err(err).Msg("migraciones PostgreSQL")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		repos = postgres.NewRepos(pool)
		txRunner = postgres.NewTxRunner(pool)
	}

	recorder := metrics.NewRecorder()
	dispatcher := notification.NewDispatcher(repos.Outbox, notifier, recorder, notification.DispatcherConfig{
		PollInterval:   cfg.Outbox.PollInterval,
		BatchSize:      cfg.Outbox.BatchSize,
		MaxAttempts:    cfg.Outbox.MaxAttempts,
		LogisticsUsers: cfg.Outbox.LogisticsUsers,
	}, log)
	dispatcher.Start(ctx)

	ledger := inventory.NewLedger()
	kitUC := kit.NewUseCase(kit.Deps{
		TxRunner:     txRunner,
		Ledger:       ledger,
		KitRepo:      repos.Kits,
		LineRepo:     repos.KitLines,
		ProductRepo:  repos.Products,
		LocationRepo: repos.Locations,
		Committed:    dispatcher,
		Observer:     recorder,
		Log:          log,
	})
	cleaningUC := cleaning.NewUseCase(cleaning.Deps{
		TxRunner:    txRunner,
		Ledger:      ledger,
		ItemRepo:    repos.Cleaning,
		Committed:   dispatcher,
		KitObserver: recorder,
		Observer:    recorder,
		Log:         log,
	})
	inventoryUC := inventory.NewUseCase(txRunner, ledger, repos.Products, repos.Locations, repos.Stock, repos.Movements, dispatcher)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(recorder.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Kit Quirúrgico API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger.json no encontrado, /docs deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		KitUC:          kitUC,
		CleaningUC:     cleaningUC,
		InventoryUC:    inventoryUC,
		ProductUC:      usecase.NewProductUseCase(repos.Products),
		LocationUC:     usecase.NewLocationUseCase(repos.Locations),
		TraceabilityUC: traceability.NewUseCase(repos.Trace, repos.Kits),
		JWTSecret:      cfg.JWT.Secret,
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
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del despachador de notificaciones")
	}

	log.Info().Msg("aplicación detenida")
}
