package repository

import (
	"context"
	"sort"
	"sync"

	"go-stock-engine/internal/model"
)

type memoryCatalogRepo struct {
	mu         sync.RWMutex
	warehouses map[string]model.Warehouse
	products   map[string]model.Product
	formulas   []model.Formula
	rules      []model.AlertRule
}

// NewMemoryCatalogRepo returns an in-process catalog seeded with catalog.
func NewMemoryCatalogRepo(catalog model.Catalog) CatalogRepository {
	r := &memoryCatalogRepo{
		warehouses: make(map[string]model.Warehouse),
		products:   make(map[string]model.Product),
	}
	_ = r.SeedDefaults(context.Background(), catalog)
	return r
}

func (r *memoryCatalogRepo) FindWarehouse(ctx context.Context, code string) (*model.Warehouse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.warehouses[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (r *memoryCatalogRepo) FindProduct(ctx context.Context, code string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryCatalogRepo) FindAllProducts(ctx context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *memoryCatalogRepo) FindFormulas(ctx context.Context, familyCode string) ([]model.Formula, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Formula
	for _, f := range r.formulas {
		if f.ProductFamilyCode == familyCode {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RawMaterialCode < out[j].RawMaterialCode })
	return out, nil
}

func (r *memoryCatalogRepo) FindAlertRules(ctx context.Context) ([]model.AlertRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.AlertRule, len(r.rules))
	copy(out, r.rules)
	sort.Slice(out, func(i, j int) bool {
		a := model.BalanceKey{WarehouseCode: out[i].WarehouseCode, ProductCode: out[i].ProductCode}
		b := model.BalanceKey{WarehouseCode: out[j].WarehouseCode, ProductCode: out[j].ProductCode}
		return a.Less(b)
	})
	return out, nil
}

func (r *memoryCatalogRepo) SeedDefaults(ctx context.Context, catalog model.Catalog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range catalog.Warehouses {
		if _, ok := r.warehouses[w.Code]; !ok {
			r.warehouses[w.Code] = w
		}
	}
	for _, p := range catalog.Products {
		if _, ok := r.products[p.Code]; !ok {
			r.products[p.Code] = p
		}
	}
	for _, f := range catalog.Formulas {
		if !r.hasFormula(f.ProductFamilyCode, f.RawMaterialCode) {
			f.ID = uint(len(r.formulas) + 1)
			r.formulas = append(r.formulas, f)
		}
	}
	for _, rule := range catalog.AlertRules {
		if !r.hasRule(rule.WarehouseCode, rule.ProductCode) {
			rule.ID = uint(len(r.rules) + 1)
			r.rules = append(r.rules, rule)
		}
	}
	return nil
}

func (r *memoryCatalogRepo) hasFormula(family, raw string) bool {
	for _, f := range r.formulas {
		if f.ProductFamilyCode == family && f.RawMaterialCode == raw {
			return true
		}
	}
	return false
}

func (r *memoryCatalogRepo) hasRule(warehouse, product string) bool {
	for _, rule := range r.rules {
		if rule.WarehouseCode == warehouse && rule.ProductCode == product {
			return true
		}
	}
	return false
}
