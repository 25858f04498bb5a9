package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind tags every ledger entry with the business operation that wrote it.
type TransactionKind string

const (
	TxProduction TransactionKind = "PRODUCTION"
	TxSale       TransactionKind = "SALE"
	TxPurchase   TransactionKind = "PURCHASE"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case TxProduction, TxSale, TxPurchase:
		return true
	}
	return false
}

// StockLedgerEntry is one signed quantity delta. Entries are never updated or deleted;
// corrections are new entries.
type StockLedgerEntry struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OperationID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"operation_id"`
	Position      int             `gorm:"not null" json:"position"` // order inside the operation
	Kind          TransactionKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	WarehouseCode string          `gorm:"type:varchar(50);not null;index:idx_ledger_pair" json:"warehouse_code"`
	ProductCode   string          `gorm:"type:varchar(50);not null;index:idx_ledger_pair" json:"product_code"`
	DeltaQty      decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"delta_qty"`
	ActorID       string          `gorm:"type:varchar(255);not null" json:"actor_id"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"created_at"`
}

func (StockLedgerEntry) TableName() string {
	return "stock_ledger_entries"
}

// StockBalance is the materialized sum of all ledger deltas for one pair.
type StockBalance struct {
	WarehouseCode string          `gorm:"type:varchar(50);primaryKey" json:"warehouse_code"`
	ProductCode   string          `gorm:"type:varchar(50);primaryKey" json:"product_code"`
	Qty           decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"qty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (StockBalance) TableName() string {
	return "stock_balances"
}

func (b StockBalance) Key() BalanceKey {
	return BalanceKey{WarehouseCode: b.WarehouseCode, ProductCode: b.ProductCode}
}

// BalanceKey identifies a (warehouse, product) pair.
type BalanceKey struct {
	WarehouseCode string
	ProductCode   string
}

func (k BalanceKey) Less(o BalanceKey) bool {
	if k.WarehouseCode != o.WarehouseCode {
		return k.WarehouseCode < o.WarehouseCode
	}
	return k.ProductCode < o.ProductCode
}

// SortKeys returns the distinct keys in lock order.
func SortKeys(keys []BalanceKey) []BalanceKey {
	seen := make(map[BalanceKey]struct{}, len(keys))
	out := make([]BalanceKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// SortBalances orders balances by warehouse then product code.
func SortBalances(balances []StockBalance) {
	sort.Slice(balances, func(i, j int) bool { return balances[i].Key().Less(balances[j].Key()) })
}
