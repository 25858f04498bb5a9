package main

import (
	"context"
	"flag"

	"go-stock-engine/internal/bootstrap"
	"go-stock-engine/internal/config"
	"go-stock-engine/internal/service"
	"go-stock-engine/pkg/jwt"
	"go-stock-engine/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", "", "path to an env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}
	log := logger.Must(logger.New(logger.Config{Level: cfg.Log.Level, Development: true}))
	defer log.Sync()

	if cfg.Store.Driver != config.StoreDriverPostgres {
		log.Fatal("seeding needs STORE_DRIVER=postgres", zap.String("driver", cfg.Store.Driver))
	}

	stores, err := bootstrap.OpenStores(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer stores.Close()

	auth := service.NewAuthService(stores.Operators, jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.App.Name), log)
	if err := bootstrap.Seed(context.Background(), stores, auth, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("catalog and default operator are in place")
}
