package service

import (
	"context"
	"errors"

	"go-stock-engine/internal/model"
)

// EventPublisher receives stock events after their operation has committed.
type EventPublisher interface {
	Publish(ctx context.Context, event model.StockEvent) error
}

// MultiPublisher fans an event out to every publisher and joins their errors.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event model.StockEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
