package model

import (
	"golang.org/x/crypto/bcrypt"
)

// Operator is an authenticated person whose ID is recorded as the ledger actor.
type Operator struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password     string `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string `gorm:"type:varchar(255)" json:"full_name"`
	Role         string `gorm:"type:varchar(50);not null" json:"role"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	TokenVersion string `gorm:"type:varchar(255);default:''" json:"-"` // single session enforcement
}

// SetPassword hashes and sets the operator's password
func (o *Operator) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.Password = string(hashed)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (o *Operator) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.Password), []byte(password)) == nil
}

// Privileges returns the privilege codes granted by the operator's role.
func (o *Operator) Privileges() []string {
	privs := RolePrivileges[o.Role]
	out := make([]string, len(privs))
	copy(out, privs)
	return out
}

// HasPrivilege checks if the operator has a specific privilege
func (o *Operator) HasPrivilege(code string) bool {
	for _, p := range RolePrivileges[o.Role] {
		if p == code {
			return true
		}
	}
	return false
}

// OperatorResponse is used for API responses (without sensitive data)
type OperatorResponse struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	FullName   string   `json:"full_name"`
	Role       string   `json:"role"`
	IsActive   bool     `json:"is_active"`
	Privileges []string `json:"privileges"`
}

func (o *Operator) ToResponse() OperatorResponse {
	return OperatorResponse{
		ID:         o.ID.String(),
		Username:   o.Username,
		FullName:   o.FullName,
		Role:       o.Role,
		IsActive:   o.IsActive,
		Privileges: o.Privileges(),
	}
}

// DefaultOperator is created by the seed when no operator with its username exists.
var DefaultOperator = struct {
	Username string
	Password string
	FullName string
	Role     string
}{
	Username: "admin",
	Password: "admin123",
	FullName: "Master Administrator",
	Role:     RoleMasterAdmin,
}
