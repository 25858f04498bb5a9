package scheduler

import (
	"context"
	"errors"
	"testing"

	"go-stock-engine/internal/config"
	"go-stock-engine/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAlerts struct {
	breaches []model.AlertBreach
	err      error
}

func (s stubAlerts) Evaluate(ctx context.Context) ([]model.AlertBreach, error) {
	return s.breaches, s.err
}

type capture struct {
	events []model.StockEvent
}

func (c *capture) Publish(ctx context.Context, event model.StockEvent) error {
	c.events = append(c.events, event)
	return nil
}

var cfg = config.AlertConfig{CronSchedule: "@every 1h", Timezone: "UTC"}

func TestRunAlertCheck_PublishesBreaches(t *testing.T) {
	pub := &capture{}
	breach := model.AlertBreach{
		WarehouseCode: model.WarehouseRawMaterials,
		ProductCode:   "S",
		Current:       decimal.NewFromInt(9000),
		Min:           decimal.NewFromInt(10000),
	}
	s, err := NewScheduler(cfg, stubAlerts{breaches: []model.AlertBreach{breach}}, pub, nil)
	require.NoError(t, err)

	got := s.RunAlertCheck(context.Background())
	assert.Len(t, got, 1)
	require.Len(t, pub.events, 1)
	assert.Equal(t, model.EventStockAlert, pub.events[0].Type)
	assert.Equal(t, []model.AlertBreach{breach}, pub.events[0].Breaches)
}

func TestRunAlertCheck_QuietWhenHealthy(t *testing.T) {
	pub := &capture{}
	s, err := NewScheduler(cfg, stubAlerts{}, pub, nil)
	require.NoError(t, err)

	assert.Empty(t, s.RunAlertCheck(context.Background()))
	assert.Empty(t, pub.events)

	s, err = NewScheduler(cfg, stubAlerts{err: errors.New("db down")}, pub, nil)
	require.NoError(t, err)
	assert.Nil(t, s.RunAlertCheck(context.Background()))
	assert.Empty(t, pub.events)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s, err := NewScheduler(config.AlertConfig{CronSchedule: "not a schedule"}, stubAlerts{}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())

	s, err = NewScheduler(cfg, stubAlerts{}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()
}

func TestNewScheduler_BadTimezone(t *testing.T) {
	_, err := NewScheduler(config.AlertConfig{CronSchedule: "@hourly", Timezone: "Nowhere/City"}, stubAlerts{}, nil, nil)
	assert.Error(t, err)
}
