package models

import (
	"time"

	"gorm.io/gorm"
)

// ScannerKey lets a scanning device act on behalf of the operator who issued it, within the
// organization it was issued for.
type ScannerKey struct {
	gorm.Model
	UserID         uint         `gorm:"index" json:"user_id"`
	User           User         `json:"user"`
	OrganizationID uint         `gorm:"index" json:"organization_id"`
	Organization   Organization `json:"-"`
	Key            string       `json:"key" gorm:"uniqueIndex"`
	Name           string       `json:"name"`
	ExpiresAt      *time.Time   `json:"expires_at"`
	LastUsedAt     *time.Time   `json:"last_used_at"`
}
