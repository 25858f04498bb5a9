package service

import (
	"context"
	"testing"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_StrictlyBelowMinimum(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alerts := NewAlertService(f.catalog, f.stock)

	f.stockUp(t, raw, "S", "9000")
	breaches, err := alerts.Evaluate(ctx)
	require.NoError(t, err)
	require.Len(t, breaches, 1)
	assert.Equal(t, "S", breaches[0].ProductCode)
	assert.Equal(t, "9000", breaches[0].Current.String())
	assert.Equal(t, "10000", breaches[0].Min.String())

	f.stockUp(t, raw, "S", "1000")
	breaches, err = alerts.Evaluate(ctx)
	require.NoError(t, err)
	assert.Empty(t, breaches)
}

func TestEvaluate_MissingBalanceIsZeroAndOrdered(t *testing.T) {
	catalog := model.DefaultCatalog
	catalog.AlertRules = []model.AlertRule{
		{WarehouseCode: raw, ProductCode: "S", MinQty: decimal.NewFromInt(1)},
		{WarehouseCode: containers, ProductCode: "GALLON_10", MinQty: decimal.NewFromInt(5)},
		{WarehouseCode: raw, ProductCode: "P", MinQty: decimal.NewFromInt(1)},
	}
	alerts := NewAlertService(repository.NewMemoryCatalogRepo(catalog), repository.NewMemoryStockRepo())

	breaches, err := alerts.Evaluate(context.Background())
	require.NoError(t, err)
	require.Len(t, breaches, 3)
	assert.Equal(t, "GALLON_10", breaches[0].ProductCode)
	assert.Equal(t, "P", breaches[1].ProductCode)
	assert.Equal(t, "S", breaches[2].ProductCode)
	assert.True(t, breaches[0].Current.IsZero())
}
