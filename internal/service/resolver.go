package service

import (
	"context"
	"errors"
	"fmt"

	"go-stock-engine/internal/apperror"
	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"
)

// catalogResolver turns catalog misses into typed failures.
type catalogResolver struct {
	repo repository.CatalogRepository
}

func (r catalogResolver) warehouse(ctx context.Context, code string) (*model.Warehouse, error) {
	w, err := r.repo.FindWarehouse(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewUnknownWarehouse(code)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve warehouse %s: %w", code, err)
	}
	return w, nil
}

func (r catalogResolver) product(ctx context.Context, code string) (*model.Product, error) {
	p, err := r.repo.FindProduct(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewUnknownProduct(code)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve product %s: %w", code, err)
	}
	return p, nil
}

// warehouses resolves codes in order, failing on the first miss.
func (r catalogResolver) warehouses(ctx context.Context, codes ...string) error {
	for _, code := range codes {
		if _, err := r.warehouse(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

func (r catalogResolver) products(ctx context.Context, codes ...string) error {
	for _, code := range codes {
		if _, err := r.product(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

// productOfKind resolves a product and checks the role it plays in an operation.
func (r catalogResolver) productOfKind(ctx context.Context, code string, kind model.ProductKind) (*model.Product, error) {
	p, err := r.product(ctx, code)
	if err != nil {
		return nil, err
	}
	if p.Kind != kind {
		return nil, apperror.NewProductKindMismatch(code, string(kind), string(p.Kind))
	}
	return p, nil
}

func (r catalogResolver) formulas(ctx context.Context, family string) ([]model.Formula, error) {
	formulas, err := r.repo.FindFormulas(ctx, family)
	if err != nil {
		return nil, fmt.Errorf("load formulas for %s: %w", family, err)
	}
	if len(formulas) == 0 {
		return nil, apperror.NewFormulaNotDefined(family)
	}
	return formulas, nil
}
