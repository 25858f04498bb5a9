package repository

import (
	"context"
	"sync"

	"go-stock-engine/internal/model"

	"github.com/shopspring/decimal"
)

// memoryStockRepo keeps the ledger in process. A single write lock is the
// mutation window; readers take the read lock and only see applied batches.
type memoryStockRepo struct {
	mu       sync.RWMutex
	entries  []model.StockLedgerEntry
	balances map[model.BalanceKey]model.StockBalance
}

func NewMemoryStockRepo() StockRepository {
	return &memoryStockRepo{balances: make(map[model.BalanceKey]model.StockBalance)}
}

func (r *memoryStockRepo) WithinTx(ctx context.Context, fn func(tx StockTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryStockTx{repo: r, pending: make(map[model.BalanceKey]decimal.Decimal)}
	if err := fn(tx); err != nil {
		return err
	}
	for _, e := range tx.staged {
		r.apply(e)
	}
	return nil
}

func (r *memoryStockRepo) apply(e model.StockLedgerEntry) {
	key := model.BalanceKey{WarehouseCode: e.WarehouseCode, ProductCode: e.ProductCode}
	b, ok := r.balances[key]
	if !ok {
		b = model.StockBalance{WarehouseCode: e.WarehouseCode, ProductCode: e.ProductCode, Qty: decimal.Zero}
	}
	b.Qty = b.Qty.Add(e.DeltaQty)
	b.UpdatedAt = e.CreatedAt
	r.balances[key] = b
	r.entries = append(r.entries, e)
}

func (r *memoryStockRepo) Balance(ctx context.Context, key model.BalanceKey) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.balances[key]; ok {
		return b.Qty, nil
	}
	return decimal.Zero, nil
}

func (r *memoryStockRepo) Balances(ctx context.Context) ([]model.StockBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.StockBalance, 0, len(r.balances))
	for _, b := range r.balances {
		out = append(out, b)
	}
	model.SortBalances(out)
	return out, nil
}

func (r *memoryStockRepo) Entries(ctx context.Context, filter LedgerFilter) ([]model.StockLedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.StockLedgerEntry
	for _, e := range r.entries {
		if !filter.matches(e) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *memoryStockRepo) ReplayBalances(ctx context.Context) ([]model.StockBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return replay(r.entries), nil
}

func (r *memoryStockRepo) RebuildBalances(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rebuilt := make(map[model.BalanceKey]model.StockBalance, len(r.balances))
	for _, b := range replay(r.entries) {
		rebuilt[b.Key()] = b
	}
	r.balances = rebuilt
	return nil
}

func replay(entries []model.StockLedgerEntry) []model.StockBalance {
	sums := make(map[model.BalanceKey]model.StockBalance)
	for _, e := range entries {
		key := model.BalanceKey{WarehouseCode: e.WarehouseCode, ProductCode: e.ProductCode}
		b, ok := sums[key]
		if !ok {
			b = model.StockBalance{WarehouseCode: e.WarehouseCode, ProductCode: e.ProductCode, Qty: decimal.Zero}
		}
		b.Qty = b.Qty.Add(e.DeltaQty)
		if e.CreatedAt.After(b.UpdatedAt) {
			b.UpdatedAt = e.CreatedAt
		}
		sums[key] = b
	}
	out := make([]model.StockBalance, 0, len(sums))
	for _, b := range sums {
		out = append(out, b)
	}
	model.SortBalances(out)
	return out
}

type memoryStockTx struct {
	repo    *memoryStockRepo
	staged  []model.StockLedgerEntry
	pending map[model.BalanceKey]decimal.Decimal // staged deltas per pair
}

func (t *memoryStockTx) LockBalances(ctx context.Context, keys []model.BalanceKey) (map[model.BalanceKey]decimal.Decimal, error) {
	out := make(map[model.BalanceKey]decimal.Decimal, len(keys))
	for _, k := range model.SortKeys(keys) {
		qty := decimal.Zero
		if b, ok := t.repo.balances[k]; ok {
			qty = b.Qty
		}
		if d, ok := t.pending[k]; ok {
			qty = qty.Add(d)
		}
		out[k] = qty
	}
	return out, nil
}

func (t *memoryStockTx) Append(ctx context.Context, entry *model.StockLedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := model.BalanceKey{WarehouseCode: entry.WarehouseCode, ProductCode: entry.ProductCode}
	t.pending[key] = t.pending[key].Add(entry.DeltaQty)
	t.staged = append(t.staged, *entry)
	return nil
}
