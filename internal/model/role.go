package model

// Privilege codes checked by the HTTP layer.
const (
	PrivStockView        = "stock:view"
	PrivLedgerView       = "ledger:view"
	PrivProductionCreate = "production:create"
	PrivSaleCreate       = "sale:create"
	PrivPurchaseCreate   = "purchase:create"
)

// Role codes as constants
const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleProduction  = "PRODUCTION"
	RoleSales       = "SALES"
)

// RolePrivileges is the static role to privilege mapping.
var RolePrivileges = map[string][]string{
	RoleMasterAdmin: {PrivStockView, PrivLedgerView, PrivProductionCreate, PrivSaleCreate, PrivPurchaseCreate},
	RoleProduction:  {PrivStockView, PrivProductionCreate, PrivPurchaseCreate},
	RoleSales:       {PrivStockView, PrivSaleCreate},
}

// ValidRole reports whether code names a known role.
func ValidRole(code string) bool {
	_, ok := RolePrivileges[code]
	return ok
}
