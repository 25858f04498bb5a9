package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed warehouse codes. The warehouse set never changes after bootstrap.
const (
	WarehouseRawMaterials  = "RAW_MATERIALS"
	WarehouseEmptyGallons  = "EMPTY_GALLONS"
	WarehouseFinishedGoods = "FINISHED_GOODS"
)

type Warehouse struct {
	Code string `gorm:"type:varchar(50);primaryKey" json:"code"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`
}

// Formula is the kg of one raw material consumed per liter of a product family.
type Formula struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	ProductFamilyCode string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_formula_family_raw" json:"product_family_code"`
	RawMaterialCode   string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_formula_family_raw" json:"raw_material_code"`
	KgPerLiter        decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"kg_per_liter"`
}

// AlertRule is a static minimum threshold for one (warehouse, product) pair.
type AlertRule struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	WarehouseCode string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_alert_pair" json:"warehouse_code"`
	ProductCode   string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_alert_pair" json:"product_code"`
	MinQty        decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"min_qty"`
}

func (r AlertRule) Key() BalanceKey {
	return BalanceKey{WarehouseCode: r.WarehouseCode, ProductCode: r.ProductCode}
}

// Catalog bundles everything written by the bootstrap process.
type Catalog struct {
	Warehouses []Warehouse
	Products   []Product
	Formulas   []Formula
	AlertRules []AlertRule
}

// DefaultCatalog is seeded on first start.
var DefaultCatalog = Catalog{
	Warehouses: []Warehouse{
		{Code: WarehouseRawMaterials, Name: "Raw Materials"},
		{Code: WarehouseEmptyGallons, Name: "Empty Gallons"},
		{Code: WarehouseFinishedGoods, Name: "Finished Goods"},
	},
	Products: append([]Product{
		{Code: "P", Name: "Raw Material P", Kind: KindRawMaterial, Unit: UnitKg},
		{Code: "S", Name: "Raw Material S", Kind: KindRawMaterial, Unit: UnitKg},
		{Code: ContainerCode(Size5), Name: "Empty Gallon 5L", Kind: KindEmptyContainer, Unit: UnitCount},
		{Code: ContainerCode(Size10), Name: "Empty Gallon 10L", Kind: KindEmptyContainer, Unit: UnitCount},
		{Code: ContainerCode(Size20), Name: "Empty Gallon 20L", Kind: KindEmptyContainer, Unit: UnitCount},
	}, FamilyProducts("TP", "TP")...),
	Formulas: []Formula{
		{ProductFamilyCode: "TP", RawMaterialCode: "P", KgPerLiter: decimal.RequireFromString("0.53")},
		{ProductFamilyCode: "TP", RawMaterialCode: "S", KgPerLiter: decimal.RequireFromString("0.304")},
	},
	AlertRules: []AlertRule{
		{WarehouseCode: WarehouseRawMaterials, ProductCode: "S", MinQty: decimal.NewFromInt(10000)},
	},
}

// FamilyProducts returns the four product rows representing a finished family:
// one liquid row and one packaged row per container size.
func FamilyProducts(family, name string) []Product {
	products := []Product{
		{Code: LiquidCode(family), Name: name + " (liters)", Kind: KindLiquidProduct, Unit: UnitLiter},
	}
	for _, size := range ContainerSizes {
		products = append(products, Product{
			Code: PackagedCode(family, size),
			Name: fmt.Sprintf("%s %dL", name, size),
			Kind: KindPackagedProduct,
			Unit: UnitCount,
		})
	}
	return products
}
