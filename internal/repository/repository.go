package repository

import (
	"context"
	"errors"

	"go-stock-engine/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

// CatalogRepository reads the bootstrap-owned catalog. Only SeedDefaults writes.
type CatalogRepository interface {
	FindWarehouse(ctx context.Context, code string) (*model.Warehouse, error)
	FindProduct(ctx context.Context, code string) (*model.Product, error)
	FindAllProducts(ctx context.Context) ([]model.Product, error)
	FindFormulas(ctx context.Context, familyCode string) ([]model.Formula, error)
	FindAlertRules(ctx context.Context) ([]model.AlertRule, error)
	SeedDefaults(ctx context.Context, catalog model.Catalog) error
}

// StockRepository owns the ledger and its balance projection.
type StockRepository interface {
	// WithinTx runs fn inside an exclusive, all-or-nothing mutation window.
	// Nothing fn appends is visible to readers unless fn returns nil.
	WithinTx(ctx context.Context, fn func(tx StockTx) error) error

	Balance(ctx context.Context, key model.BalanceKey) (decimal.Decimal, error)
	Balances(ctx context.Context) ([]model.StockBalance, error)
	Entries(ctx context.Context, filter LedgerFilter) ([]model.StockLedgerEntry, error)

	// ReplayBalances sums the ledger per pair without touching the projection.
	ReplayBalances(ctx context.Context) ([]model.StockBalance, error)
	// RebuildBalances replaces the projection with the replayed ledger.
	RebuildBalances(ctx context.Context) error
}

// StockTx is the handle available inside WithinTx.
type StockTx interface {
	// LockBalances locks every pair in sorted order and returns the current quantities.
	// Pairs without a balance row report zero.
	LockBalances(ctx context.Context, keys []model.BalanceKey) (map[model.BalanceKey]decimal.Decimal, error)
	// Append writes the entry and adds its delta to the pair's balance.
	Append(ctx context.Context, entry *model.StockLedgerEntry) error
}

type LedgerFilter struct {
	WarehouseCode string
	ProductCode   string
	Kind          model.TransactionKind
	OperationID   uuid.UUID
	Limit         int
}

func (f LedgerFilter) matches(e model.StockLedgerEntry) bool {
	if f.WarehouseCode != "" && e.WarehouseCode != f.WarehouseCode {
		return false
	}
	if f.ProductCode != "" && e.ProductCode != f.ProductCode {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.OperationID != uuid.Nil && e.OperationID != f.OperationID {
		return false
	}
	return true
}

type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Operator, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Operator, error)
	Create(ctx context.Context, operator *model.Operator) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	UpdateTokenVersion(ctx context.Context, id uuid.UUID, version string) error
}
