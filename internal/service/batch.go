package service

import (
	"context"
	"time"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// entryBatch collects the ledger entries of one business operation. All of
// them share an operation id and are appended inside a single window.
type entryBatch struct {
	operationID uuid.UUID
	kind        model.TransactionKind
	actorID     string
	at          time.Time
	entries     []model.StockLedgerEntry
}

func newEntryBatch(kind model.TransactionKind, actorID string) *entryBatch {
	return &entryBatch{
		operationID: uuid.New(),
		kind:        kind,
		actorID:     actorID,
		at:          time.Now().UTC(),
	}
}

func (b *entryBatch) add(key model.BalanceKey, delta decimal.Decimal) {
	b.entries = append(b.entries, model.StockLedgerEntry{
		ID:            uuid.New(),
		OperationID:   b.operationID,
		Position:      len(b.entries),
		Kind:          b.kind,
		WarehouseCode: key.WarehouseCode,
		ProductCode:   key.ProductCode,
		DeltaQty:      delta,
		ActorID:       b.actorID,
		CreatedAt:     b.at,
	})
}

func (b *entryBatch) appendTo(ctx context.Context, tx repository.StockTx) error {
	for i := range b.entries {
		if err := tx.Append(ctx, &b.entries[i]); err != nil {
			return err
		}
	}
	return nil
}
