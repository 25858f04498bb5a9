package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ProductKind is the closed set of product variants handled by the engine.
type ProductKind string

const (
	KindRawMaterial     ProductKind = "RAW_MATERIAL"
	KindEmptyContainer  ProductKind = "EMPTY_CONTAINER"
	KindPackagedProduct ProductKind = "PACKAGED_PRODUCT"
	KindLiquidProduct   ProductKind = "LIQUID_PRODUCT"
)

// Valid reports whether k is one of the four known kinds.
func (k ProductKind) Valid() bool {
	switch k {
	case KindRawMaterial, KindEmptyContainer, KindPackagedProduct, KindLiquidProduct:
		return true
	}
	return false
}

type Unit string

const (
	UnitKg    Unit = "kg"
	UnitCount Unit = "count"
	UnitLiter Unit = "liter"
)

// Product is a catalog row. Created at bootstrap, immutable afterwards.
type Product struct {
	Code string      `gorm:"type:varchar(50);primaryKey" json:"code"`
	Name string      `gorm:"type:varchar(255);not null" json:"name"`
	Kind ProductKind `gorm:"type:varchar(30);not null;index" json:"kind"`
	Unit Unit        `gorm:"type:varchar(10);not null" json:"unit"`
}

// ContainerSize is the gallon size in liters of a packaged product.
type ContainerSize int

const (
	Size5  ContainerSize = 5
	Size10 ContainerSize = 10
	Size20 ContainerSize = 20
)

// ContainerSizes lists the supported sizes in ascending order.
var ContainerSizes = []ContainerSize{Size5, Size10, Size20}

func (s ContainerSize) Valid() bool {
	switch s {
	case Size5, Size10, Size20:
		return true
	}
	return false
}

const (
	packSuffix      = "_PACK_"
	litersSuffix    = "_LITERS"
	containerPrefix = "GALLON_"
)

// PackagedCode returns the packaged product code of a family, e.g. TP_PACK_10.
func PackagedCode(family string, size ContainerSize) string {
	return fmt.Sprintf("%s%s%d", family, packSuffix, size)
}

// LiquidCode returns the liquid product code of a family, e.g. TP_LITERS.
func LiquidCode(family string) string {
	return family + litersSuffix
}

// ContainerCode returns the empty container product code for a size, e.g. GALLON_10.
func ContainerCode(size ContainerSize) string {
	return fmt.Sprintf("%s%d", containerPrefix, size)
}

// ParsePackagedCode recovers family and size from a packaged product code.
func ParsePackagedCode(code string) (family string, size ContainerSize, ok bool) {
	idx := strings.LastIndex(code, packSuffix)
	if idx <= 0 {
		return "", 0, false
	}
	size, ok = parseSize(code[idx+len(packSuffix):])
	if !ok {
		return "", 0, false
	}
	return code[:idx], size, true
}

// ParseLiquidCode recovers the family from a liquid product code.
func ParseLiquidCode(code string) (family string, ok bool) {
	family, found := strings.CutSuffix(code, litersSuffix)
	if !found || family == "" {
		return "", false
	}
	return family, true
}

// ParseContainerCode recovers the size from an empty container code.
func ParseContainerCode(code string) (ContainerSize, bool) {
	rest, found := strings.CutPrefix(code, containerPrefix)
	if !found {
		return 0, false
	}
	return parseSize(rest)
}

func parseSize(s string) (ContainerSize, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	size := ContainerSize(n)
	return size, size.Valid()
}
