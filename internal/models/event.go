package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	OrganizationID uint      `gorm:"uniqueIndex:idx_org_event_slug" json:"organization_id"`
	Name           string    `json:"name"`
	Slug           string    `gorm:"uniqueIndex:idx_org_event_slug" json:"slug"`
	StartsAt       time.Time `json:"starts_at"`
	ScanTotalMs    int64     `gorm:"not null;default:0" json:"scan_total_ms"`
	ScanCount      int64     `gorm:"not null;default:0" json:"scan_count"`
}

// MeanScanDuration is the average time operators spent per scan, zero before the first timed scan.
func (e *Event) MeanScanDuration() time.Duration {
	if e.ScanCount == 0 {
		return 0
	}
	return time.Duration(e.ScanTotalMs/e.ScanCount) * time.Millisecond
}

// MeanScanMillis is MeanScanDuration in fractional milliseconds.
func (e *Event) MeanScanMillis() float64 {
	if e.ScanCount == 0 {
		return 0
	}
	return float64(e.ScanTotalMs) / float64(e.ScanCount)
}
