package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"go-stock-engine/internal/config"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/service"
)

// Scheduler runs the periodic alert evaluation.
type Scheduler struct {
	cron      *cron.Cron
	alerts    service.AlertService
	publisher service.EventPublisher
	cfg       config.AlertConfig
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.AlertConfig, alerts service.AlertService, publisher service.EventPublisher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
		}
		loc = l
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		alerts:    alerts,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Start registers the alert job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.checkAlerts); err != nil {
		return fmt.Errorf("schedule alert check %q: %w", s.cfg.CronSchedule, err)
	}
	s.logger.Info("starting scheduler", zap.String("alert_schedule", s.cfg.CronSchedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) checkAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.RunAlertCheck(ctx)
}

// RunAlertCheck evaluates every alert rule and publishes one event when any
// pair is below its minimum. It returns the breaches it found.
func (s *Scheduler) RunAlertCheck(ctx context.Context) []model.AlertBreach {
	breaches, err := s.alerts.Evaluate(ctx)
	if err != nil {
		s.logger.Error("failed to evaluate alert rules", zap.Error(err))
		return nil
	}
	if len(breaches) == 0 {
		s.logger.Debug("no stock alerts")
		return breaches
	}

	for _, b := range breaches {
		s.logger.Warn("stock below minimum",
			zap.String("warehouse", b.WarehouseCode),
			zap.String("product", b.ProductCode),
			zap.String("current", b.Current.String()),
			zap.String("min", b.Min.String()),
		)
	}

	if s.publisher == nil {
		return breaches
	}
	event := model.StockEvent{
		Type:      model.EventStockAlert,
		Action:    "alerts_evaluated",
		Breaches:  breaches,
		Message:   fmt.Sprintf("%d product(s) below minimum stock", len(breaches)),
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish stock alert", zap.Error(err))
	}
	return breaches
}
