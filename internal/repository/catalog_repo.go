package repository

import (
	"context"
	"errors"
	"fmt"

	"go-stock-engine/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db}
}

func (r *catalogRepo) FindWarehouse(ctx context.Context, code string) (*model.Warehouse, error) {
	var warehouse model.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "code = ?", code).Error; err != nil {
		return nil, notFound(err)
	}
	return &warehouse, nil
}

func (r *catalogRepo) FindProduct(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "code = ?", code).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

func (r *catalogRepo) FindAllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("kind, code").Find(&products).Error
	return products, err
}

func (r *catalogRepo) FindFormulas(ctx context.Context, familyCode string) ([]model.Formula, error) {
	var formulas []model.Formula
	err := r.db.WithContext(ctx).
		Where("product_family_code = ?", familyCode).
		Order("raw_material_code").
		Find(&formulas).Error
	return formulas, err
}

func (r *catalogRepo) FindAlertRules(ctx context.Context) ([]model.AlertRule, error) {
	var rules []model.AlertRule
	err := r.db.WithContext(ctx).Order("warehouse_code, product_code").Find(&rules).Error
	return rules, err
}

// SeedDefaults inserts catalog rows that do not exist yet. Existing rows are left untouched.
func (r *catalogRepo) SeedDefaults(ctx context.Context, catalog model.Catalog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A fresh statement per insert: a reused *gorm.DB keeps the first model.
		insert := func(value interface{}) error {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(value).Error
		}
		if len(catalog.Warehouses) > 0 {
			if err := insert(&catalog.Warehouses); err != nil {
				return fmt.Errorf("seed warehouses: %w", err)
			}
		}
		if len(catalog.Products) > 0 {
			if err := insert(&catalog.Products); err != nil {
				return fmt.Errorf("seed products: %w", err)
			}
		}
		for _, f := range catalog.Formulas {
			f.ID = 0
			if err := insert(&f); err != nil {
				return fmt.Errorf("seed formula %s/%s: %w", f.ProductFamilyCode, f.RawMaterialCode, err)
			}
		}
		for _, rule := range catalog.AlertRules {
			rule.ID = 0
			if err := insert(&rule); err != nil {
				return fmt.Errorf("seed alert rule %s/%s: %w", rule.WarehouseCode, rule.ProductCode, err)
			}
		}
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
