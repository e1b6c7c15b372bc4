package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EventHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
	logger      *zap.Logger
}

func NewEventHandler(db *gorm.DB, authHandler *auth.AuthHandler, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{db: db, authHandler: authHandler, logger: logger}
}

type EventBody struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	StartsAt time.Time `json:"starts_at"`
}

type EventResponse struct {
	Body EventBody
}

type CreateEventRequest struct {
	auth.AuthInput
	Org  string `path:"org" doc:"Organization slug"`
	Body struct {
		Name     string    `json:"name" doc:"Event name" required:"true" minLength:"1"`
		Slug     string    `json:"slug,omitempty" doc:"URL slug, derived from the name when empty"`
		StartsAt time.Time `json:"starts_at,omitempty" doc:"Start of the event"`
	}
}

func (h *EventHandler) HandleCreateEvent(ctx context.Context, input *CreateEventRequest) (*EventResponse, error) {
	_, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, true)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Body.Name)
	if name == "" {
		return nil, huma.Error422UnprocessableEntity("Event name is required")
	}
	eventSlug := slug.Make(input.Body.Slug)
	if eventSlug == "" {
		eventSlug = slug.Make(name)
	}

	var existing int64
	if err := h.db.WithContext(ctx).Model(&models.Event{}).Where("organization_id = ? AND slug = ?", org.ID, eventSlug).Count(&existing).Error; err != nil {
		return nil, huma.Error500InternalServerError("Database error checking event: " + err.Error())
	}
	if existing > 0 {
		return nil, huma.Error409Conflict(fmt.Sprintf("Event slug %q is already taken", eventSlug))
	}

	event := models.Event{
		OrganizationID: org.ID,
		Name:           name,
		Slug:           eventSlug,
		StartsAt:       input.Body.StartsAt,
	}
	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create event: " + err.Error())
	}

	h.logger.Info("event created", zap.String("org", org.Slug), zap.String("event", event.Slug))
	return &EventResponse{Body: EventBody{ID: event.ID, Name: event.Name, Slug: event.Slug, StartsAt: event.StartsAt}}, nil
}

type EventPathRequest struct {
	auth.AuthInput
	Org   string `path:"org" doc:"Organization slug"`
	Event string `path:"event" doc:"Event slug"`
}

type EventStatsResponse struct {
	Body struct {
		Event          string  `json:"event"`
		Guests         int64   `json:"guests"`
		CheckedIn      int64   `json:"checked_in"`
		Admissions     int64   `json:"admissions"`
		ScanCount      int64   `json:"scan_count"`
		MeanScanMillis float64 `json:"mean_scan_ms"`
	}
}

func (h *EventHandler) HandleEventStats(ctx context.Context, input *EventPathRequest) (*EventStatsResponse, error) {
	_, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, false)
	if err != nil {
		return nil, err
	}
	event, err := findEvent(ctx, h.db, org.ID, input.Event)
	if err != nil {
		return nil, err
	}

	res := &EventStatsResponse{}
	res.Body.Event = event.Slug
	res.Body.ScanCount = event.ScanCount
	res.Body.MeanScanMillis = event.MeanScanMillis()

	db := h.db.WithContext(ctx)
	if err := db.Model(&models.Guest{}).Where("event_id = ?", event.ID).Count(&res.Body.Guests).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count guests")
	}
	if err := db.Model(&models.Guest{}).Where("event_id = ? AND checked_in = ?", event.ID, true).Count(&res.Body.CheckedIn).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count checked-in guests")
	}
	if err := db.Model(&models.Admission{}).Where("event_id = ?", event.ID).Count(&res.Body.Admissions).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to count admissions")
	}

	return res, nil
}
