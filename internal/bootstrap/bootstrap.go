// Package bootstrap opens the configured store and seeds its catalog.
package bootstrap

import (
	"context"
	"fmt"

	"go-stock-engine/internal/config"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"
	"go-stock-engine/internal/service"
	"go-stock-engine/pkg/database"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Stores holds the repositories for the selected STORE_DRIVER.
type Stores struct {
	Catalog   repository.CatalogRepository
	Stock     repository.StockRepository
	Operators repository.OperatorRepository
	close     func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects to PostgreSQL and migrates it, or builds the in-process
// stores when the memory driver is selected.
func OpenStores(cfg *config.Config, log *zap.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, stock is lost on restart")
		return &Stores{
			Catalog:   repository.NewMemoryCatalogRepo(model.Catalog{}),
			Stock:     repository.NewMemoryStockRepo(),
			Operators: repository.NewMemoryOperatorRepo(),
		}, nil

	case config.StoreDriverPostgres:
		level := gormlogger.Warn
		if cfg.Log.Level == "debug" {
			level = gormlogger.Info
		}
		db, err := database.ConnectDB(cfg.Database.DSN(), level)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("database connection established")
		return &Stores{
			Catalog:   repository.NewCatalogRepo(db),
			Stock:     repository.NewStockRepo(db),
			Operators: repository.NewOperatorRepo(db),
			close:     func() error { return database.Close(db) },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Seed inserts the default catalog and operator when they are missing.
// Rows that already exist are never updated.
func Seed(ctx context.Context, stores *Stores, auth service.AuthService, log *zap.Logger) error {
	if err := stores.Catalog.SeedDefaults(ctx, model.DefaultCatalog); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	def := model.DefaultOperator
	_, created, err := auth.EnsureOperator(ctx, def.Username, def.Password, def.FullName, def.Role)
	if err != nil {
		return fmt.Errorf("seed operator: %w", err)
	}
	if created {
		log.Warn("default operator created, change its password",
			zap.String("username", def.Username), zap.String("role", def.Role))
	}
	return nil
}
