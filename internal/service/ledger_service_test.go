package service

import (
	"context"
	"testing"

	"go-stock-engine/internal/apperror"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_AppliesDelta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.ledger.Record(ctx, model.TxPurchase, raw, "S", decimal.RequireFromString("12.25"), actor)
	require.NoError(t, err)
	assert.Equal(t, "S", entry.ProductCode)
	assert.Equal(t, 0, entry.Position)

	_, err = f.ledger.Record(ctx, model.TxSale, raw, "S", decimal.RequireFromString("-2.25"), actor)
	require.NoError(t, err)
	assert.Equal(t, "10", f.qty(t, raw, "S"))
}

func TestRecord_UnknownCodes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.Record(ctx, model.TxPurchase, "NOWHERE", "S", decimal.NewFromInt(1), actor)
	assert.True(t, apperror.Is(err, apperror.KindUnknownWarehouse))

	_, err = f.ledger.Record(ctx, model.TxPurchase, raw, "NOTHING", decimal.NewFromInt(1), actor)
	assert.True(t, apperror.Is(err, apperror.KindUnknownProduct))

	_, err = f.ledger.CurrentQty(ctx, raw, "NOTHING")
	assert.True(t, apperror.Is(err, apperror.KindUnknownProduct))

	_, err = f.ledger.Record(ctx, model.TransactionKind("ADJUST"), raw, "S", decimal.NewFromInt(1), actor)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Zero(t, f.entryCount(t))
}

func TestCurrentQty_DefaultsToZero(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "0", f.qty(t, finished, "TP_LITERS"))
}

func TestEntries_EmptyIsNotNil(t *testing.T) {
	f := newFixture(t)
	entries, err := f.ledger.Entries(context.Background(), repository.LedgerFilter{Kind: model.TxSale})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

// driftingStock reports a projection that disagrees with the ledger.
type driftingStock struct {
	repository.StockRepository
	cached []model.StockBalance
}

func (d driftingStock) Balances(ctx context.Context) ([]model.StockBalance, error) {
	return d.cached, nil
}

func TestVerifyAndRebuild(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockUp(t, raw, "P", "100")
	f.stockUp(t, raw, "S", "40")

	drifts, err := f.ledger.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	stale := driftingStock{
		StockRepository: f.stock,
		cached: []model.StockBalance{
			{WarehouseCode: raw, ProductCode: "P", Qty: decimal.NewFromInt(90)},
			{WarehouseCode: raw, ProductCode: "S", Qty: decimal.NewFromInt(40)},
			{WarehouseCode: containers, ProductCode: "GALLON_5", Qty: decimal.NewFromInt(3)},
		},
	}
	drifts, err = NewStockLedger(stale, f.catalog, nil).Verify(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 2)
	assert.Equal(t, "GALLON_5", drifts[0].ProductCode)
	assert.True(t, drifts[0].Replayed.IsZero())
	assert.Equal(t, "P", drifts[1].ProductCode)
	assert.Equal(t, "90", drifts[1].Cached.String())
	assert.Equal(t, "100", drifts[1].Replayed.String())

	require.NoError(t, f.ledger.Rebuild(ctx))
	assert.Equal(t, "100", f.qty(t, raw, "P"))
}
