package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-stock-engine/internal/bootstrap"
	"go-stock-engine/internal/config"
	"go-stock-engine/internal/handler"
	"go-stock-engine/internal/messaging"
	"go-stock-engine/internal/scheduler"
	"go-stock-engine/internal/service"
	"go-stock-engine/internal/ws"
	"go-stock-engine/pkg/jwt"
	"go-stock-engine/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development}))
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup store
	stores, err := bootstrap.OpenStores(cfg, logger.Named(log, "store"))
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer stores.Close()

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.App.Name)
	authService := service.NewAuthService(stores.Operators, tokens, logger.Named(log, "auth"))

	// 3. Seed default catalog and operator
	if cfg.App.SeedOnStart || cfg.Store.Driver == config.StoreDriverMemory {
		if err := bootstrap.Seed(ctx, stores, authService, logger.Named(log, "seed")); err != nil {
			log.Fatal("failed to seed", zap.Error(err))
		}
	}

	// 4. Event publishers
	wsHub := ws.NewHub(logger.Named(log, "ws"))
	go wsHub.Run(ctx)

	publishers := service.MultiPublisher{wsHub}
	if cfg.Kafka.Enabled() {
		kafkaPublisher := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
		log.Info("kafka event stream enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 5. Dependency Injection (Wiring Layers)
	ledger := service.NewStockLedger(stores.Stock, stores.Catalog, logger.Named(log, "ledger"))
	engine := service.NewTransactionService(stores.Stock, stores.Catalog, publishers, logger.Named(log, "engine"))
	alerts := service.NewAlertService(stores.Catalog, stores.Stock)
	summary := service.NewSummaryService(stores.Stock)

	sched, err := scheduler.NewScheduler(cfg.Alerts, alerts, publishers, logger.Named(log, "scheduler"))
	if err != nil {
		log.Fatal("failed to create scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// 7. Routes
	handler.SetupRoutes(app, handler.Routes{
		Auth:        handler.NewAuthHandler(authService),
		Stock:       handler.NewStockHandler(engine, ledger),
		Report:      handler.NewReportHandler(summary, alerts),
		Catalog:     handler.NewCatalogHandler(stores.Catalog),
		AuthService: authService,
		Hub:         wsHub,
	})

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("server started", zap.String("port", cfg.App.Port), zap.String("store", cfg.Store.Driver))

	<-ctx.Done()

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server exited")
}
