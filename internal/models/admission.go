package models

import (
	"gorm.io/gorm"
)

type Source string

const (
	SourceCamera Source = "camera"
	SourceManual Source = "manual"
)

// Admission is the audit record written for every accepted check-in.
type Admission struct {
	gorm.Model
	GuestID    uint   `gorm:"index" json:"guest_id"`
	EventID    uint   `gorm:"index" json:"event_id"`
	OperatorID uint   `json:"operator_id"`
	Count      int    `json:"count"`
	Source     Source `gorm:"type:text" json:"source"`
	DurationMs *int64 `json:"duration_ms"`
}
