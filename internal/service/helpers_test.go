package service

import (
	"context"
	"sync"
	"testing"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const actor = "operator-1"

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.StockEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.StockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	stock     repository.StockRepository
	catalog   repository.CatalogRepository
	publisher *recordingPublisher
	engine    TransactionService
	ledger    StockLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stock:     repository.NewMemoryStockRepo(),
		catalog:   repository.NewMemoryCatalogRepo(model.DefaultCatalog),
		publisher: &recordingPublisher{},
	}
	f.engine = NewTransactionService(f.stock, f.catalog, f.publisher, nil)
	f.ledger = NewStockLedger(f.stock, f.catalog, nil)
	return f
}

// stockUp records a purchase-kind entry straight through the ledger.
func (f *fixture) stockUp(t *testing.T, warehouse, product, qty string) {
	t.Helper()
	_, err := f.ledger.Record(context.Background(), model.TxPurchase, warehouse, product, decimal.RequireFromString(qty), actor)
	require.NoError(t, err)
}

func (f *fixture) qty(t *testing.T, warehouse, product string) string {
	t.Helper()
	q, err := f.ledger.CurrentQty(context.Background(), warehouse, product)
	require.NoError(t, err)
	return q.String()
}

func (f *fixture) snapshot(t *testing.T) []model.StockBalance {
	t.Helper()
	balances, err := f.stock.Balances(context.Background())
	require.NoError(t, err)
	return balances
}

func (f *fixture) entryCount(t *testing.T) int {
	t.Helper()
	entries, err := f.ledger.Entries(context.Background(), repository.LedgerFilter{})
	require.NoError(t, err)
	return len(entries)
}
