package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/gdg-garage/guest-checkin-api/internal/notifier"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
	logger      *zap.Logger
}

func NewOrganizationHandler(db *gorm.DB, n notifier.Notifier, authHandler *auth.AuthHandler, logger *zap.Logger) *OrganizationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationHandler{db: db, notifier: n, authHandler: authHandler, logger: logger}
}

type OrganizationBody struct {
	ID      uint        `json:"id"`
	Name    string      `json:"name"`
	Slug    string      `json:"slug"`
	Plan    models.Plan `json:"plan"`
	Blocked bool        `json:"blocked"`
}

type OrganizationResponse struct {
	Body OrganizationBody
}

func organizationBody(org models.Organization) OrganizationBody {
	return OrganizationBody{ID: org.ID, Name: org.Name, Slug: org.Slug, Plan: org.Plan, Blocked: org.Blocked}
}

type CreateOrganizationRequest struct {
	auth.AuthInput
	Body struct {
		Name string `json:"name" doc:"Display name of the organization" required:"true" minLength:"1"`
		Slug string `json:"slug,omitempty" doc:"URL slug, derived from the name when empty"`
	}
}

func (h *OrganizationHandler) HandleCreateOrganization(ctx context.Context, input *CreateOrganizationRequest) (*OrganizationResponse, error) {
	principal, err := h.authHandler.Authenticate(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if principal.ViaScannerKey() {
		return nil, huma.Error403Forbidden("Access denied: scanner keys cannot create organizations")
	}
	userID := principal.UserID

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}
	if user.Blocked {
		return nil, huma.Error403Forbidden("Access denied: account is blocked")
	}

	name := strings.TrimSpace(input.Body.Name)
	if name == "" {
		return nil, huma.Error422UnprocessableEntity("Organization name is required")
	}
	orgSlug := slug.Make(input.Body.Slug)
	if orgSlug == "" {
		orgSlug = slug.Make(name)
	}
	if orgSlug == "" {
		return nil, huma.Error422UnprocessableEntity("Organization slug is empty")
	}

	org := models.Organization{Name: name, Slug: orgSlug, Plan: models.PlanFree}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Organization{}).Where("slug = ?", orgSlug).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errSlugTaken
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		return tx.Create(&models.Member{OrganizationID: org.ID, UserID: user.ID, Role: models.RoleOwner}).Error
	})
	if errors.Is(err, errSlugTaken) {
		return nil, huma.Error409Conflict(fmt.Sprintf("Organization slug %q is already taken", orgSlug))
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create organization: " + err.Error())
	}

	h.logger.Info("organization created", zap.String("org", org.Slug), zap.Uint("owner_id", user.ID))
	return &OrganizationResponse{Body: organizationBody(org)}, nil
}

var errSlugTaken = errors.New("slug taken")

type OrganizationPathRequest struct {
	auth.AuthInput
	Org string `path:"org" doc:"Organization slug"`
}

func (h *OrganizationHandler) HandleGetOrganization(ctx context.Context, input *OrganizationPathRequest) (*OrganizationResponse, error) {
	_, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, false)
	if err != nil {
		return nil, err
	}
	return &OrganizationResponse{Body: organizationBody(org)}, nil
}

type SetPlanRequest struct {
	auth.AuthInput
	Org  string `path:"org" doc:"Organization slug"`
	Body struct {
		Plan models.Plan `json:"plan" doc:"Subscription tier" enum:"free,pro" required:"true"`
	}
}

// HandleSetPlan switches the organization's plan. Open scan sessions keep the plan they
// started with until they are refreshed.
func (h *OrganizationHandler) HandleSetPlan(ctx context.Context, input *SetPlanRequest) (*OrganizationResponse, error) {
	user, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, true)
	if err != nil {
		return nil, err
	}
	if !input.Body.Plan.Valid() {
		return nil, huma.Error422UnprocessableEntity("Unknown plan")
	}
	if org.Blocked {
		return nil, huma.Error403Forbidden("Access denied: organization is blocked")
	}

	if org.Plan == input.Body.Plan {
		return &OrganizationResponse{Body: organizationBody(org)}, nil
	}

	if err := h.db.WithContext(ctx).Model(&org).Update("plan", input.Body.Plan).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update plan: " + err.Error())
	}
	org.Plan = input.Body.Plan

	h.logger.Info("plan changed", zap.String("org", org.Slug), zap.String("plan", string(org.Plan)), zap.Uint("by", user.ID))
	if h.notifier != nil {
		if err := h.notifier.NotifyPlanChange(org, user); err != nil {
			h.logger.Warn("failed to send plan notification", zap.Error(err))
		}
	}

	return &OrganizationResponse{Body: organizationBody(org)}, nil
}

type AddMemberRequest struct {
	auth.AuthInput
	Org  string `path:"org" doc:"Organization slug"`
	Body struct {
		UserID uint   `json:"user_id" doc:"Operator to add" required:"true"`
		Role   string `json:"role" doc:"Role within the organization" enum:"owner,staff" default:"staff"`
	}
}

type MemberResponse struct {
	Body struct {
		UserID   uint   `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
}

func (h *OrganizationHandler) HandleAddMember(ctx context.Context, input *AddMemberRequest) (*MemberResponse, error) {
	_, org, err := orgAccess(ctx, h.db, h.authHandler, input.AuthInput, input.Org, true)
	if err != nil {
		return nil, err
	}

	role := input.Body.Role
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleOwner && role != models.RoleStaff {
		return nil, huma.Error422UnprocessableEntity("Unknown role")
	}

	var target models.User
	if err := h.db.WithContext(ctx).First(&target, input.Body.UserID).Error; err != nil {
		return nil, huma.Error404NotFound("Target user not found")
	}

	var existing models.Member
	if err := h.db.WithContext(ctx).Where("organization_id = ? AND user_id = ?", org.ID, target.ID).First(&existing).Error; err == nil {
		return nil, huma.Error409Conflict("User is already a member of this organization")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, huma.Error500InternalServerError("Database error checking membership: " + err.Error())
	}

	member := models.Member{OrganizationID: org.ID, UserID: target.ID, Role: role}
	if err := h.db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to add member: " + err.Error())
	}

	res := &MemberResponse{}
	res.Body.UserID = target.ID
	res.Body.Username = target.Username
	res.Body.Role = member.Role
	return res, nil
}
