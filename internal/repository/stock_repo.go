package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-stock-engine/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type stockRepo struct {
	db *gorm.DB
}

// NewStockRepo returns the PostgreSQL ledger store. Balance rows are locked
// with SELECT ... FOR UPDATE inside a gorm transaction.
func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) WithinTx(ctx context.Context, fn func(tx StockTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStockTx{db: tx})
	})
}

func (r *stockRepo) Balance(ctx context.Context, key model.BalanceKey) (decimal.Decimal, error) {
	var balance model.StockBalance
	err := r.db.WithContext(ctx).
		Where("warehouse_code = ? AND product_code = ?", key.WarehouseCode, key.ProductCode).
		Limit(1).
		Find(&balance).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance.Qty, nil
}

func (r *stockRepo) Balances(ctx context.Context) ([]model.StockBalance, error) {
	var balances []model.StockBalance
	err := r.db.WithContext(ctx).Order("warehouse_code, product_code").Find(&balances).Error
	if err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

func (r *stockRepo) Entries(ctx context.Context, filter LedgerFilter) ([]model.StockLedgerEntry, error) {
	q := r.db.WithContext(ctx).Model(&model.StockLedgerEntry{})
	if filter.WarehouseCode != "" {
		q = q.Where("warehouse_code = ?", filter.WarehouseCode)
	}
	if filter.ProductCode != "" {
		q = q.Where("product_code = ?", filter.ProductCode)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.OperationID != uuid.Nil {
		q = q.Where("operation_id = ?", filter.OperationID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var entries []model.StockLedgerEntry
	if err := q.Order("created_at, operation_id, position").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

func (r *stockRepo) ReplayBalances(ctx context.Context) ([]model.StockBalance, error) {
	var balances []model.StockBalance
	err := r.db.WithContext(ctx).
		Model(&model.StockLedgerEntry{}).
		Select("warehouse_code, product_code, SUM(delta_qty) AS qty").
		Group("warehouse_code, product_code").
		Order("warehouse_code, product_code").
		Scan(&balances).Error
	if err != nil {
		return nil, fmt.Errorf("replay ledger: %w", err)
	}
	return balances, nil
}

func (r *stockRepo) RebuildBalances(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Blocks every engine operation until the projection is rebuilt.
		// SQLite already serializes writers.
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE stock_balances IN ACCESS EXCLUSIVE MODE").Error; err != nil {
				return fmt.Errorf("lock balances: %w", err)
			}
		}
		if err := tx.Exec("DELETE FROM stock_balances").Error; err != nil {
			return fmt.Errorf("clear balances: %w", err)
		}
		err := tx.Exec(`
			INSERT INTO stock_balances (warehouse_code, product_code, qty, updated_at)
			SELECT warehouse_code, product_code, SUM(delta_qty), MAX(created_at)
			FROM stock_ledger_entries
			GROUP BY warehouse_code, product_code
		`).Error
		if err != nil {
			return fmt.Errorf("replay into balances: %w", err)
		}
		return nil
	})
}

type gormStockTx struct {
	db *gorm.DB
}

func (t *gormStockTx) LockBalances(ctx context.Context, keys []model.BalanceKey) (map[model.BalanceKey]decimal.Decimal, error) {
	keys = model.SortKeys(keys)
	result := make(map[model.BalanceKey]decimal.Decimal, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	// FOR UPDATE cannot lock a row that does not exist yet, so materialize
	// missing pairs at zero first. Zero is the sum of an empty ledger.
	now := time.Now().UTC()
	seed := make([]model.StockBalance, 0, len(keys))
	conds := make([]string, 0, len(keys))
	args := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		seed = append(seed, model.StockBalance{
			WarehouseCode: k.WarehouseCode,
			ProductCode:   k.ProductCode,
			Qty:           decimal.Zero,
			UpdatedAt:     now,
		})
		conds = append(conds, "(warehouse_code = ? AND product_code = ?)")
		args = append(args, k.WarehouseCode, k.ProductCode)
		result[k] = decimal.Zero
	}
	db := t.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, fmt.Errorf("materialize balances: %w", err)
	}

	var locked []model.StockBalance
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(strings.Join(conds, " OR "), args...).
		Order("warehouse_code, product_code").
		Find(&locked).Error
	if err != nil {
		return nil, fmt.Errorf("lock balances: %w", err)
	}
	for _, b := range locked {
		result[b.Key()] = b.Qty
	}
	return result, nil
}

func (t *gormStockTx) Append(ctx context.Context, entry *model.StockLedgerEntry) error {
	db := t.db.WithContext(ctx)
	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	balance := model.StockBalance{
		WarehouseCode: entry.WarehouseCode,
		ProductCode:   entry.ProductCode,
		Qty:           entry.DeltaQty,
		UpdatedAt:     entry.CreatedAt,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "warehouse_code"}, {Name: "product_code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"qty":        gorm.Expr("stock_balances.qty + excluded.qty"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&balance).Error
	if err != nil {
		return fmt.Errorf("apply delta to balance: %w", err)
	}
	return nil
}
