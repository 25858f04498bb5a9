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
	username := flag.String("username", "admin", "operator to reset")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}
	log := logger.Must(logger.New(logger.Config{Level: cfg.Log.Level, Development: true}))
	defer log.Sync()

	if len(*password) < 6 {
		log.Fatal("-password must be at least 6 characters")
	}
	if cfg.Store.Driver != config.StoreDriverPostgres {
		log.Fatal("resetting needs STORE_DRIVER=postgres", zap.String("driver", cfg.Store.Driver))
	}

	stores, err := bootstrap.OpenStores(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer stores.Close()

	auth := service.NewAuthService(stores.Operators, jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.App.Name), log)
	if err := auth.ResetPassword(context.Background(), *username, *password); err != nil {
		log.Fatal("failed to reset password", zap.String("username", *username), zap.Error(err))
	}
	log.Info("password reset, existing sessions ended", zap.String("username", *username))
}
