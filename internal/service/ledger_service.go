package service

import (
	"context"
	"fmt"

	"go-stock-engine/internal/apperror"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockLedger is the low-level entry point to the ledger and its balance projection.
type StockLedger interface {
	Record(ctx context.Context, kind model.TransactionKind, warehouseCode, productCode string, delta decimal.Decimal, actorID string) (*model.StockLedgerEntry, error)
	CurrentQty(ctx context.Context, warehouseCode, productCode string) (decimal.Decimal, error)
	Entries(ctx context.Context, filter repository.LedgerFilter) ([]model.StockLedgerEntry, error)
	Verify(ctx context.Context) ([]Drift, error)
	Rebuild(ctx context.Context) error
}

// Drift is a pair whose cached balance disagrees with the sum of its ledger entries.
type Drift struct {
	WarehouseCode string          `json:"warehouse_code"`
	ProductCode   string          `json:"product_code"`
	Cached        decimal.Decimal `json:"cached"`
	Replayed      decimal.Decimal `json:"replayed"`
}

type stockLedger struct {
	stock   repository.StockRepository
	catalog catalogResolver
	log     *zap.Logger
}

func NewStockLedger(stock repository.StockRepository, catalog repository.CatalogRepository, log *zap.Logger) StockLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &stockLedger{
		stock:   stock,
		catalog: catalogResolver{repo: catalog},
		log:     log,
	}
}

func (l *stockLedger) Record(ctx context.Context, kind model.TransactionKind, warehouseCode, productCode string, delta decimal.Decimal, actorID string) (*model.StockLedgerEntry, error) {
	if !kind.Valid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown transaction kind %q", kind))
	}
	if actorID == "" {
		return nil, apperror.NewValidation("actor id is required")
	}
	if err := l.catalog.warehouses(ctx, warehouseCode); err != nil {
		return nil, err
	}
	if err := l.catalog.products(ctx, productCode); err != nil {
		return nil, err
	}

	batch := newEntryBatch(kind, actorID)
	batch.add(model.BalanceKey{WarehouseCode: warehouseCode, ProductCode: productCode}, delta)
	err := l.stock.WithinTx(ctx, func(tx repository.StockTx) error {
		return batch.appendTo(ctx, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("record ledger entry: %w", err)
	}
	return &batch.entries[0], nil
}

func (l *stockLedger) CurrentQty(ctx context.Context, warehouseCode, productCode string) (decimal.Decimal, error) {
	if err := l.catalog.warehouses(ctx, warehouseCode); err != nil {
		return decimal.Zero, err
	}
	if err := l.catalog.products(ctx, productCode); err != nil {
		return decimal.Zero, err
	}
	return l.stock.Balance(ctx, model.BalanceKey{WarehouseCode: warehouseCode, ProductCode: productCode})
}

func (l *stockLedger) Entries(ctx context.Context, filter repository.LedgerFilter) ([]model.StockLedgerEntry, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown transaction kind %q", filter.Kind))
	}
	if filter.Limit < 0 {
		return nil, apperror.NewValidation("limit must not be negative")
	}
	entries, err := l.stock.Entries(ctx, filter)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.StockLedgerEntry{}
	}
	return entries, nil
}

// Verify compares the projection with a full replay of the ledger. A pair
// present on only one side is compared against zero.
func (l *stockLedger) Verify(ctx context.Context) ([]Drift, error) {
	cached, err := l.stock.Balances(ctx)
	if err != nil {
		return nil, err
	}
	replayed, err := l.stock.ReplayBalances(ctx)
	if err != nil {
		return nil, err
	}

	type pair struct{ cached, replayed decimal.Decimal }
	pairs := make(map[model.BalanceKey]*pair)
	keys := make([]model.BalanceKey, 0, len(cached))
	get := func(k model.BalanceKey) *pair {
		p, ok := pairs[k]
		if !ok {
			p = &pair{cached: decimal.Zero, replayed: decimal.Zero}
			pairs[k] = p
			keys = append(keys, k)
		}
		return p
	}
	for _, b := range cached {
		get(b.Key()).cached = b.Qty
	}
	for _, b := range replayed {
		get(b.Key()).replayed = b.Qty
	}

	drifts := []Drift{}
	for _, k := range model.SortKeys(keys) {
		p := pairs[k]
		if p.cached.Equal(p.replayed) {
			continue
		}
		drifts = append(drifts, Drift{
			WarehouseCode: k.WarehouseCode,
			ProductCode:   k.ProductCode,
			Cached:        p.cached,
			Replayed:      p.replayed,
		})
	}
	if len(drifts) > 0 {
		l.log.Warn("balance projection drift detected", zap.Int("pairs", len(drifts)))
	}
	return drifts, nil
}

func (l *stockLedger) Rebuild(ctx context.Context) error {
	if err := l.stock.RebuildBalances(ctx); err != nil {
		return fmt.Errorf("rebuild balances: %w", err)
	}
	l.log.Info("balance projection rebuilt from ledger")
	return nil
}
