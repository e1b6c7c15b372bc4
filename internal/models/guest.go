package models

import (
	"time"

	"gorm.io/gorm"
)

// Guest is one invitee of one event. Name is the lookup key and is not unique.
type Guest struct {
	gorm.Model
	EventID      uint       `gorm:"index:idx_event_guest_name" json:"event_id"`
	Name         string     `gorm:"index:idx_event_guest_name" json:"name"`
	Email        string     `json:"email"`
	CheckedIn    bool       `gorm:"not null;default:false" json:"checked_in"`
	CheckInCount int        `gorm:"not null;default:0" json:"check_in_count"`
	CheckedInAt  *time.Time `json:"checked_in_at"`
}
