package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"gorm.io/gorm"
)

// orgAccess resolves the caller and checks their membership of the organization.
// With ownerOnly set, staff members are refused.
func orgAccess(ctx context.Context, db *gorm.DB, authHandler *auth.AuthHandler, input auth.AuthInput, orgSlug string, ownerOnly bool) (models.User, models.Organization, error) {
	principal, err := authHandler.Authenticate(ctx, input)
	if err != nil {
		return models.User{}, models.Organization{}, err
	}
	user, org, _, err := memberAccess(ctx, db, principal, orgSlug, ownerOnly)
	return user, org, err
}

// memberAccess checks that an authenticated caller may act within the organization and
// returns their membership. Scanner keys only reach the organization they were issued for.
func memberAccess(ctx context.Context, db *gorm.DB, principal auth.Principal, orgSlug string, ownerOnly bool) (models.User, models.Organization, models.Member, error) {
	var user models.User
	var org models.Organization
	var member models.Member

	if err := db.WithContext(ctx).First(&user, principal.UserID).Error; err != nil {
		return user, org, member, huma.Error404NotFound("User not found")
	}
	if user.Blocked {
		return user, org, member, huma.Error403Forbidden("Access denied: account is blocked")
	}

	if err := db.WithContext(ctx).Where("slug = ?", orgSlug).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, org, member, huma.Error404NotFound("Organization not found")
		}
		return user, org, member, huma.Error500InternalServerError("Failed to load organization")
	}
	if !principal.Allows(org.ID) {
		return user, org, member, huma.Error403Forbidden(scannerKeyScopeMessage)
	}

	if err := db.WithContext(ctx).Where("organization_id = ? AND user_id = ?", org.ID, user.ID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, org, member, huma.Error403Forbidden("Access denied: not a member of this organization")
		}
		return user, org, member, huma.Error500InternalServerError("Failed to check membership")
	}
	if ownerOnly && member.Role != models.RoleOwner {
		return user, org, member, huma.Error403Forbidden("Access denied: owner role required")
	}

	return user, org, member, nil
}

const scannerKeyScopeMessage = "Access denied: scanner key was issued for another organization"

func findEvent(ctx context.Context, db *gorm.DB, orgID uint, eventSlug string) (models.Event, error) {
	var event models.Event
	err := db.WithContext(ctx).Where("organization_id = ? AND slug = ?", orgID, eventSlug).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return event, huma.Error404NotFound("Event not found")
		}
		return event, huma.Error500InternalServerError("Failed to load event")
	}
	return event, nil
}
