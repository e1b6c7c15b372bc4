package handlers

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/guest-checkin-api/internal/admission"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GuestHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
	qrImageURL  string
	logger      *zap.Logger
}

func NewGuestHandler(db *gorm.DB, authHandler *auth.AuthHandler, qrImageURL string, logger *zap.Logger) *GuestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuestHandler{db: db, authHandler: authHandler, qrImageURL: qrImageURL, logger: logger}
}

type GuestBody struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email,omitempty"`
	CheckedIn    bool       `json:"checked_in"`
	CheckInCount int        `json:"check_in_count"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
}

func guestBody(g models.Guest) GuestBody {
	return GuestBody{
		ID:           g.ID,
		Name:         g.Name,
		Email:        g.Email,
		CheckedIn:    g.CheckedIn,
		CheckInCount: g.CheckInCount,
		CheckedInAt:  g.CheckedInAt,
	}
}

type GuestInput struct {
	Name  string `json:"name" doc:"Guest name as printed on the invite" required:"true"`
	Email string `json:"email,omitempty" doc:"Contact email"`
}

type ImportGuestsRequest struct {
	auth.AuthInput
	Org   string `path:"org" doc:"Organization slug"`
	Event string `path:"event" doc:"Event slug"`
	Body  struct {
		Guests []GuestInput `json:"guests" doc:"Guests to add to the list" minItems:"1"`
	}
}

type GuestListResponse struct {
	Body []GuestBody
}

// HandleImportGuests appends guests to an event's list. Names are trimmed but duplicates are kept.
func (h *GuestHandler) HandleImportGuests(ctx context.Context, input *ImportGuestsRequest) (*GuestListResponse, error) {
	_, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, true)
	if err != nil {
		return nil, err
	}
	event, err := findEvent(ctx, h.db, org.ID, input.Event)
	if err != nil {
		return nil, err
	}

	guests := make([]models.Guest, 0, len(input.Body.Guests))
	for i, g := range input.Body.Guests {
		name := strings.TrimSpace(g.Name)
		if name == "" || strings.Contains(name, "|") {
			return nil, huma.Error422UnprocessableEntity("Invalid guest name", &huma.ErrorDetail{
				Location: "body.guests[" + strconv.Itoa(i) + "].name",
				Value:    g.Name,
			})
		}
		guests = append(guests, models.Guest{EventID: event.ID, Name: name, Email: strings.TrimSpace(g.Email)})
	}
	if len(guests) == 0 {
		return nil, huma.Error422UnprocessableEntity("No guests to import")
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&guests).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to import guests: " + err.Error())
	}

	h.logger.Info("guests imported", zap.String("org", org.Slug), zap.String("event", event.Slug), zap.Int("count", len(guests)))

	res := &GuestListResponse{Body: make([]GuestBody, 0, len(guests))}
	for _, g := range guests {
		res.Body = append(res.Body, guestBody(g))
	}
	return res, nil
}

func (h *GuestHandler) HandleListGuests(ctx context.Context, input *EventPathRequest) (*GuestListResponse, error) {
	_, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, false)
	if err != nil {
		return nil, err
	}
	event, err := findEvent(ctx, h.db, org.ID, input.Event)
	if err != nil {
		return nil, err
	}

	var guests []models.Guest
	if err := h.db.WithContext(ctx).Where("event_id = ?", event.ID).Order("name asc, id asc").Find(&guests).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list guests")
	}

	res := &GuestListResponse{Body: make([]GuestBody, 0, len(guests))}
	for _, g := range guests {
		res.Body = append(res.Body, guestBody(g))
	}
	return res, nil
}

type GuestPathRequest struct {
	auth.AuthInput
	Org   string `path:"org" doc:"Organization slug"`
	Event string `path:"event" doc:"Event slug"`
	ID    uint   `path:"id" doc:"Guest ID"`
}

func (h *GuestHandler) findGuest(ctx context.Context, input *GuestPathRequest) (models.Organization, models.Event, models.Guest, error) {
	var guest models.Guest
	_, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, false)
	if err != nil {
		return org, models.Event{}, guest, err
	}
	event, err := findEvent(ctx, h.db, org.ID, input.Event)
	if err != nil {
		return org, event, guest, err
	}
	if err := h.db.WithContext(ctx).Where("id = ? AND event_id = ?", input.ID, event.ID).First(&guest).Error; err != nil {
		return org, event, guest, huma.Error404NotFound("Guest not found")
	}
	return org, event, guest, nil
}

type InviteResponse struct {
	Body struct {
		Guest      string `json:"guest"`
		Credential string `json:"credential" doc:"Payload encoded in the invite QR code"`
		QRImageURL string `json:"qr_image_url" doc:"Rendered QR code image"`
	}
}

func (h *GuestHandler) HandleInvite(ctx context.Context, input *GuestPathRequest) (*InviteResponse, error) {
	org, event, guest, err := h.findGuest(ctx, input)
	if err != nil {
		return nil, err
	}

	credential := admission.FormatCredential(guest.Name, org.Slug, event.Slug)

	res := &InviteResponse{}
	res.Body.Guest = guest.Name
	res.Body.Credential = credential
	res.Body.QRImageURL = h.qrImageURL + url.QueryEscape(credential)
	return res, nil
}

type AdmissionBody struct {
	Count      int           `json:"count"`
	Source     models.Source `json:"source"`
	OperatorID uint          `json:"operator_id"`
	DurationMs *int64        `json:"duration_ms,omitempty"`
	At         time.Time     `json:"at"`
}

type AdmissionListResponse struct {
	Body []AdmissionBody
}

func (h *GuestHandler) HandleGuestAdmissions(ctx context.Context, input *GuestPathRequest) (*AdmissionListResponse, error) {
	_, _, guest, err := h.findGuest(ctx, input)
	if err != nil {
		return nil, err
	}

	var admissions []models.Admission
	if err := h.db.WithContext(ctx).Where("guest_id = ?", guest.ID).Order("id desc").Find(&admissions).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list admissions")
	}

	res := &AdmissionListResponse{Body: make([]AdmissionBody, 0, len(admissions))}
	for _, a := range admissions {
		res.Body = append(res.Body, AdmissionBody{
			Count:      a.Count,
			Source:     a.Source,
			OperatorID: a.OperatorID,
			DurationMs: a.DurationMs,
			At:         a.CreatedAt,
		})
	}
	return res, nil
}
