package service

import (
	"context"
	"fmt"
	"sort"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"
)

type AlertService interface {
	// Evaluate reports every rule whose pair is strictly below its minimum,
	// in (warehouse, product) order. Missing balances count as zero.
	Evaluate(ctx context.Context) ([]model.AlertBreach, error)
}

type alertService struct {
	catalog repository.CatalogRepository
	stock   repository.StockRepository
}

func NewAlertService(catalog repository.CatalogRepository, stock repository.StockRepository) AlertService {
	return &alertService{catalog: catalog, stock: stock}
}

func (s *alertService) Evaluate(ctx context.Context) ([]model.AlertBreach, error) {
	rules, err := s.catalog.FindAlertRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alert rules: %w", err)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Key().Less(rules[j].Key())
	})

	breaches := []model.AlertBreach{}
	for _, rule := range rules {
		current, err := s.stock.Balance(ctx, rule.Key())
		if err != nil {
			return nil, err
		}
		if current.LessThan(rule.MinQty) {
			breaches = append(breaches, model.AlertBreach{
				WarehouseCode: rule.WarehouseCode,
				ProductCode:   rule.ProductCode,
				Current:       current,
				Min:           rule.MinQty,
			})
		}
	}
	return breaches, nil
}
