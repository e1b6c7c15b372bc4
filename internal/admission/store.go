package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"gorm.io/gorm"
)

// Store is the persistence the controller depends on.
type Store interface {
	Operator(ctx context.Context, id uint) (models.User, error)
	Organization(ctx context.Context, slug string) (models.Organization, error)
	Membership(ctx context.Context, orgID, userID uint) (models.Member, error)
	Event(ctx context.Context, orgID uint, slug string) (models.Event, error)
	Admit(ctx context.Context, req AdmitRequest) (models.Guest, error)
}

// AdmitRequest describes one admission attempt against the store.
type AdmitRequest struct {
	EventID    uint
	OperatorID uint
	GuestName  string
	Quota      int
	Source     models.Source
	DurationMs *int64
	At         time.Time
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Operator(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrOperatorNotFound
		}
		return user, fmt.Errorf("load operator: %w", err)
	}
	return user, nil
}

func (s *GormStore) Organization(ctx context.Context, slug string) (models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return org, ErrOrganizationNotFound
		}
		return org, fmt.Errorf("load organization: %w", err)
	}
	return org, nil
}

func (s *GormStore) Membership(ctx context.Context, orgID, userID uint) (models.Member, error) {
	var member models.Member
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return member, ErrNotMember
		}
		return member, fmt.Errorf("load membership: %w", err)
	}
	return member, nil
}

func (s *GormStore) Event(ctx context.Context, orgID uint, slug string) (models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND slug = ?", orgID, slug).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return event, ErrEventNotFound
		}
		return event, fmt.Errorf("load event: %w", err)
	}
	return event, nil
}

// Admit checks the guest in inside a single transaction.
//
// The quota check and the increment are one conditional UPDATE, so two operators
// admitting the same guest at once cannot both pass the check on a stale count.
// Scan telemetry and the audit row commit or roll back together with the guest update.
// When several guests share the name, the earliest-created one is admitted.
func (s *GormStore) Admit(ctx context.Context, req AdmitRequest) (models.Guest, error) {
	var guest models.Guest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ? AND name = ?", req.EventID, req.GuestName).
			Order("id asc").
			First(&guest).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGuestNotFound
			}
			return fmt.Errorf("lookup guest: %w", err)
		}

		res := tx.Model(&models.Guest{}).
			Where("id = ? AND check_in_count < ?", guest.ID, req.Quota).
			Updates(map[string]any{
				"checked_in":     true,
				"checked_in_at":  req.At,
				"check_in_count": gorm.Expr("check_in_count + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("increment check-in count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyAtQuota
		}

		if err := tx.First(&guest, guest.ID).Error; err != nil {
			return fmt.Errorf("reload guest: %w", err)
		}

		if req.DurationMs != nil {
			err := tx.Model(&models.Event{}).
				Where("id = ?", req.EventID).
				Updates(map[string]any{
					"scan_total_ms": gorm.Expr("scan_total_ms + ?", *req.DurationMs),
					"scan_count":    gorm.Expr("scan_count + 1"),
				}).Error
			if err != nil {
				return fmt.Errorf("record scan duration: %w", err)
			}
		}

		admission := models.Admission{
			GuestID:    guest.ID,
			EventID:    req.EventID,
			OperatorID: req.OperatorID,
			Count:      guest.CheckInCount,
			Source:     req.Source,
			DurationMs: req.DurationMs,
		}
		if err := tx.Create(&admission).Error; err != nil {
			return fmt.Errorf("record admission: %w", err)
		}

		return nil
	})
	if err != nil {
		return guest, err
	}
	return guest, nil
}
