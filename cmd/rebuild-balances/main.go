package main

import (
	"context"
	"flag"

	"go-stock-engine/internal/bootstrap"
	"go-stock-engine/internal/config"
	"go-stock-engine/internal/service"
	"go-stock-engine/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", "", "path to an env file")
	dryRun := flag.Bool("dry-run", false, "only report drift, do not rebuild")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}
	log := logger.Must(logger.New(logger.Config{Level: cfg.Log.Level, Development: true}))
	defer log.Sync()

	if cfg.Store.Driver != config.StoreDriverPostgres {
		log.Fatal("rebuilding needs STORE_DRIVER=postgres", zap.String("driver", cfg.Store.Driver))
	}

	stores, err := bootstrap.OpenStores(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer stores.Close()

	ctx := context.Background()
	ledger := service.NewStockLedger(stores.Stock, stores.Catalog, log)

	drifts, err := ledger.Verify(ctx)
	if err != nil {
		log.Fatal("verify failed", zap.Error(err))
	}
	for _, d := range drifts {
		log.Info("drift",
			zap.String("warehouse", d.WarehouseCode),
			zap.String("product", d.ProductCode),
			zap.String("cached", d.Cached.String()),
			zap.String("replayed", d.Replayed.String()),
		)
	}
	if len(drifts) == 0 {
		log.Info("balances match the ledger")
		return
	}
	if *dryRun {
		return
	}

	if err := ledger.Rebuild(ctx); err != nil {
		log.Fatal("rebuild failed", zap.Error(err))
	}
}
