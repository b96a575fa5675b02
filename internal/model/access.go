package model

import "sort"

// Privilege is a permission code checked by middleware.RequirePrivilege.
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name string `gorm:"type:varchar(100)" json:"name"`
}

// Role groups privileges. A user holds the union of the role's privileges
// and any granted to them directly.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	PrivProductView       = "product:view"
	PrivProductCreate     = "product:create"
	PrivProductUpdate     = "product:update"
	PrivProductDelete     = "product:delete"
	PrivProductSync       = "product:sync"
	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionSync   = "transaction:sync"
	PrivDashboardView     = "dashboard:view"
	PrivReportView        = "report:view"
	PrivImageMaintenance  = "maintenance:images"
)

const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},
	{Code: PrivProductDelete, Name: "Delete Product"},
	{Code: PrivProductSync, Name: "Sync Products From Odoo"},
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Create Transaction"},
	{Code: PrivTransactionSync, Name: "Sync Transactions From Odoo"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivReportView, Name: "View Reports"},
	{Code: PrivImageMaintenance, Name: "Clean Orphaned Images"},
}

var DefaultRoles = []Role{
	{
		Code:        RoleMasterAdmin,
		Name:        "Master Administrator",
		Description: "Full access including product deletion and image maintenance",
	},
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Day-to-day stock management and Odoo synchronization",
	},
}

// adminWithheld are the privileges ADMIN does not get by default.
var adminWithheld = map[string]bool{
	PrivProductDelete:    true,
	PrivImageMaintenance: true,
}

// DefaultGrants picks, out of all, the privileges a seeded role starts with.
// Unknown roles start with none.
func DefaultGrants(roleCode string, all []Privilege) []Privilege {
	grants := []Privilege{}
	for _, p := range all {
		switch roleCode {
		case RoleMasterAdmin:
			grants = append(grants, p)
		case RoleAdmin:
			if !adminWithheld[p.Code] {
				grants = append(grants, p)
			}
		}
	}
	return grants
}

// privilegeCodes merges the codes of every list, sorted and without duplicates.
func privilegeCodes(lists ...[]Privilege) []string {
	seen := map[string]bool{}
	codes := []string{}
	for _, list := range lists {
		for _, p := range list {
			if p.Code == "" || seen[p.Code] {
				continue
			}
			seen[p.Code] = true
			codes = append(codes, p.Code)
		}
	}
	sort.Strings(codes)
	return codes
}
