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

	"github.com/jhoicas/Almacen-api/internal/application/analytics"
	"github.com/jhoicas/Almacen-api/internal/application/auth"
	appconsumables "github.com/jhoicas/Almacen-api/internal/application/consumables"
	"github.com/jhoicas/Almacen-api/internal/application/expiry"
	"github.com/jhoicas/Almacen-api/internal/application/forecast"
	"github.com/jhoicas/Almacen-api/internal/application/importer"
	appstock "github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	infrapdf "github.com/jhoicas/Almacen-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/supabase"
	httpRouter "github.com/jhoicas/Almacen-api/internal/interfaces/http"
	"github.com/jhoicas/Almacen-api/internal/notify"
	"github.com/jhoicas/Almacen-api/pkg/config"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// repos agrupa los puertos de persistencia ya resueltos contra un backend.
type repos struct {
	items     repository.ItemRepository
	lots      repository.LotRepository
	movs      repository.MovementRepository
	cons      repository.ConsumableRepository
	consMovs  repository.ConsumableMovementRepository
	users     repository.UserRepository
	analytics repository.AnalyticsRepository
}

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
		Str("backend", cfg.App.Backend).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Capa de datos: PostgreSQL directo o API de tablas de Supabase, según
	// configuración. El resto de la aplicación solo ve los puertos.
	var r repos
	switch cfg.App.Backend {
	case config.BackendSupabase:
		client := supabase.NewClient(cfg.Supabase)
		r = repos{
			items:     supabase.NewItemRepository(client),
			lots:      supabase.NewLotRepository(client),
			movs:      supabase.NewMovementRepository(client),
			cons:      supabase.NewConsumableRepository(client),
			consMovs:  supabase.NewConsumableMovementRepository(client),
			users:     supabase.NewUserRepository(client),
			analytics: supabase.NewAnalyticsRepository(client),
		}
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		r = repos{
			items:     postgres.NewItemRepository(pool),
			lots:      postgres.NewLotRepository(pool),
			movs:      postgres.NewMovementRepository(pool),
			cons:      postgres.NewConsumableRepository(pool),
			consMovs:  postgres.NewConsumableMovementRepository(pool),
			users:     postgres.NewUserRepository(pool),
			analytics: postgres.NewAnalyticsRepository(pool),
		}
	}

	hub := notify.NewHub()

	engine := appstock.NewEngine(r.items, r.lots, r.movs, hub)
	advisor := forecast.NewAdvisor(r.items, r.movs)
	consumableUC := appconsumables.NewUseCase(r.cons, r.consMovs, hub)
	expiryUC := expiry.NewUseCase(r.lots)
	dashboardUC := analytics.NewDashboardUseCase(r.analytics, r.lots, r.movs, r.cons, r.consMovs)
	authUC := auth.NewAuthUseCase(r.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	stockImp := importer.NewStockImporter(r.items, engine)
	consImp := importer.NewConsumableImporter(consumableUC)
	exporter := importer.NewStockExporter(r.items, r.lots)
	pdfGen := infrapdf.NewExpiryReportGenerator(r.items)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:       engine,
		Advisor:      advisor,
		ConsumableUC: consumableUC,
		ExpiryUC:     expiryUC,
		DashboardUC:  dashboardUC,
		AuthUC:       authUC,
		StockImp:     stockImp,
		ConsImp:      consImp,
		Exporter:     exporter,
		PDFGen:       pdfGen,
		Hub:          hub,
		JWTSecret:    cfg.JWT.Secret,
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
