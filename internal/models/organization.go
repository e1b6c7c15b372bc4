package models

import (
	"gorm.io/gorm"
)

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Valid reports whether p is a known subscription tier.
func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPro
}

type Organization struct {
	gorm.Model
	Name    string `json:"name"`
	Slug    string `gorm:"uniqueIndex" json:"slug"`
	Plan    Plan   `gorm:"type:text;not null;default:'free'" json:"plan"`
	Blocked bool   `gorm:"not null;default:false" json:"blocked"`
}

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Member grants a user access to an organization.
type Member struct {
	gorm.Model
	OrganizationID uint         `gorm:"uniqueIndex:idx_org_user" json:"organization_id"`
	Organization   Organization `json:"-"`
	UserID         uint         `gorm:"uniqueIndex:idx_org_user" json:"user_id"`
	User           User         `json:"user"`
	Role           string       `gorm:"type:text;not null" json:"role"`
}
