package service

import (
	"context"

	"go-stock-engine/internal/model"
	"go-stock-engine/internal/repository"

	"github.com/shopspring/decimal"
)

// StockSummary reshapes every balance row into the three operator views.
type StockSummary struct {
	RawMaterials    map[string]decimal.Decimal              `json:"raw_materials"`
	EmptyContainers map[model.ContainerSize]decimal.Decimal `json:"empty_containers"`
	Families        map[string]*FamilyStock                 `json:"families"`
}

// FamilyStock combines the liquid volume and packaged counts of one family.
type FamilyStock struct {
	Liters decimal.Decimal                         `json:"liters"`
	Packs  map[model.ContainerSize]decimal.Decimal `json:"packs"`
}

type SummaryService interface {
	StockSummary(ctx context.Context) (*StockSummary, error)
}

type summaryService struct {
	stock repository.StockRepository
}

func NewSummaryService(stock repository.StockRepository) SummaryService {
	return &summaryService{stock: stock}
}

func (s *summaryService) StockSummary(ctx context.Context) (*StockSummary, error) {
	balances, err := s.stock.Balances(ctx)
	if err != nil {
		return nil, err
	}

	summary := &StockSummary{
		RawMaterials:    make(map[string]decimal.Decimal),
		EmptyContainers: make(map[model.ContainerSize]decimal.Decimal),
		Families:        make(map[string]*FamilyStock),
	}
	for _, b := range balances {
		switch b.WarehouseCode {
		case model.WarehouseRawMaterials:
			summary.RawMaterials[b.ProductCode] = b.Qty
		case model.WarehouseEmptyGallons:
			if size, ok := model.ParseContainerCode(b.ProductCode); ok {
				summary.EmptyContainers[size] = b.Qty
			}
		case model.WarehouseFinishedGoods:
			if family, size, ok := model.ParsePackagedCode(b.ProductCode); ok {
				summary.family(family).Packs[size] = b.Qty
			} else if family, ok := model.ParseLiquidCode(b.ProductCode); ok {
				summary.family(family).Liters = b.Qty
			}
		}
	}
	return summary, nil
}

// family returns the entry for code, creating it with every size at zero.
func (s *StockSummary) family(code string) *FamilyStock {
	f, ok := s.Families[code]
	if !ok {
		f = &FamilyStock{
			Liters: decimal.Zero,
			Packs:  make(map[model.ContainerSize]decimal.Decimal, len(model.ContainerSizes)),
		}
		for _, size := range model.ContainerSizes {
			f.Packs[size] = decimal.Zero
		}
		s.Families[code] = f
	}
	return f
}
