// Package apperror defines the typed failures returned by the stock engine.
// Every rejection carries a machine-readable Kind and, for shortages,
// the needed and available quantities.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindUnknownWarehouse          Kind = "UNKNOWN_WAREHOUSE"
	KindUnknownProduct            Kind = "UNKNOWN_PRODUCT"
	KindProductKindMismatch       Kind = "PRODUCT_KIND_MISMATCH"
	KindFormulaNotDefined         Kind = "FORMULA_NOT_DEFINED"
	KindInsufficientRawMaterial   Kind = "INSUFFICIENT_RAW_MATERIAL"
	KindInsufficientContainers    Kind = "INSUFFICIENT_CONTAINERS"
	KindInsufficientPackagedStock Kind = "INSUFFICIENT_PACKAGED_STOCK"
	KindInsufficientLiquidStock   Kind = "INSUFFICIENT_LIQUID_STOCK"
	KindDisallowedPurchaseTarget  Kind = "DISALLOWED_PURCHASE_TARGET"

	KindValidation   Kind = "VALIDATION_ERROR"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error is the structured failure type. It implements error and unwraps to its cause.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int   `json:"-"`
	Err        error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Factory functions ---

// NewUnknownWarehouse signals a configuration defect; not retryable.
func NewUnknownWarehouse(code string) *Error {
	return &Error{
		Kind:       KindUnknownWarehouse,
		Message:    fmt.Sprintf("warehouse %s is not defined", code),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"warehouse_code": code},
	}
}

func NewUnknownProduct(code string) *Error {
	return &Error{
		Kind:       KindUnknownProduct,
		Message:    fmt.Sprintf("product %s is not defined", code),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"product_code": code},
	}
}

// NewProductKindMismatch signals a catalog row used in the wrong role, e.g. a
// formula naming a packaged product as raw material.
func NewProductKindMismatch(code, expected, actual string) *Error {
	return &Error{
		Kind:       KindProductKindMismatch,
		Message:    fmt.Sprintf("product %s is %s, expected %s", code, actual, expected),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"product_code": code, "expected_kind": expected, "product_kind": actual},
	}
}

func NewFormulaNotDefined(family string) *Error {
	return &Error{
		Kind:       KindFormulaNotDefined,
		Message:    fmt.Sprintf("no formula defined for product family %s", family),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"product_family_code": family},
	}
}

func NewInsufficientRawMaterial(rawMaterialCode string, needKg, availKg decimal.Decimal) *Error {
	return &Error{
		Kind: KindInsufficientRawMaterial,
		Message: fmt.Sprintf("insufficient raw material %s: need %s kg, available %s kg",
			rawMaterialCode, needKg, availKg),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"raw_material_code": rawMaterialCode,
			"need_kg":           needKg,
			"avail_kg":          availKg,
		},
	}
}

func NewInsufficientContainers(containerCode string, need, available decimal.Decimal) *Error {
	return newShortage(KindInsufficientContainers, "empty containers", containerCode, need, available,
		http.StatusUnprocessableEntity)
}

func NewInsufficientPackagedStock(productCode string, need, available decimal.Decimal) *Error {
	return newShortage(KindInsufficientPackagedStock, "packaged stock", productCode, need, available,
		http.StatusUnprocessableEntity)
}

// NewInsufficientLiquidStock means packaged and liquid balances drifted apart,
// which only happens when something outside the engine touched the balances.
func NewInsufficientLiquidStock(productCode string, need, available decimal.Decimal) *Error {
	return newShortage(KindInsufficientLiquidStock, "liquid stock", productCode, need, available,
		http.StatusConflict)
}

func newShortage(kind Kind, what, productCode string, need, available decimal.Decimal, status int) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf("insufficient %s for %s: need %s, available %s", what, productCode, need, available),
		HTTPStatus: status,
		Details: map[string]any{
			"product_code": productCode,
			"need":         need,
			"available":    available,
		},
	}
}

func NewDisallowedPurchaseTarget(productCode string, kind string) *Error {
	return &Error{
		Kind:       KindDisallowedPurchaseTarget,
		Message:    fmt.Sprintf("product %s of kind %s cannot be purchased", productCode, kind),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"product_code": productCode, "product_kind": kind},
	}
}

func NewValidation(message string) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewUnauthorized(message string) *Error {
	return &Error{
		Kind:       KindUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternal hides the cause from clients.
func NewInternal(err error) *Error {
	return &Error{
		Kind:       KindInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// HTTPStatus returns appropriate HTTP status for any error
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
