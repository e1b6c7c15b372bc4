package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/guest-checkin-api/internal/auth"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScannerKeyHandler manages the keys scanning devices use instead of a browser session.
// A key acts for the member who issued it and only within the issuing organization.
type ScannerKeyHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
	logger      *zap.Logger
}

func NewScannerKeyHandler(db *gorm.DB, authHandler *auth.AuthHandler, logger *zap.Logger) *ScannerKeyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScannerKeyHandler{db: db, authHandler: authHandler, logger: logger}
}

// keyAccess checks membership for key management. Scanner keys cannot manage keys.
func (h *ScannerKeyHandler) keyAccess(ctx context.Context, input auth.AuthInput, orgSlug string) (models.User, models.Organization, models.Member, error) {
	principal, err := h.authHandler.Authenticate(ctx, input)
	if err != nil {
		return models.User{}, models.Organization{}, models.Member{}, err
	}
	if principal.ViaScannerKey() {
		return models.User{}, models.Organization{}, models.Member{}, huma.Error403Forbidden("Access denied: scanner keys cannot manage scanner keys")
	}
	return memberAccess(ctx, h.db, principal, orgSlug, false)
}

type CreateScannerKeyInput struct {
	auth.AuthInput
	Org  string `path:"org" doc:"Organization slug"`
	Body struct {
		Name      string     `json:"name" doc:"Label of the scanning device" required:"true" minLength:"1"`
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Optional expiry"`
	}
}

type ScannerKeyResponse struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	Key          string     `json:"key"`
	Organization string     `json:"organization"`
	Owner        string     `json:"owner"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at"`
	LastUsedAt   *time.Time `json:"last_used_at"`
}

type CreateScannerKeyOutput struct {
	Body ScannerKeyResponse
}

// HandleCreate issues a key for a scanning device. The full key is only returned here.
func (h *ScannerKeyHandler) HandleCreate(ctx context.Context, input *CreateScannerKeyInput) (*CreateScannerKeyOutput, error) {
	user, org, _, err := h.keyAccess(ctx, input.AuthInput, input.Org)
	if err != nil {
		return nil, err
	}

	if input.Body.ExpiresAt != nil && !input.Body.ExpiresAt.After(time.Now()) {
		return nil, huma.Error422UnprocessableEntity("Expiry must be in the future")
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}

	scannerKey := models.ScannerKey{
		UserID:         user.ID,
		User:           user,
		OrganizationID: org.ID,
		Organization:   org,
		Key:            hex.EncodeToString(keyBytes),
		Name:           input.Body.Name,
		ExpiresAt:      input.Body.ExpiresAt,
	}

	if err := h.db.WithContext(ctx).Omit("User", "Organization").Create(&scannerKey).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create scanner key")
	}

	h.logger.Info("scanner key issued",
		zap.Uint("key_id", scannerKey.ID),
		zap.String("org", org.Slug),
		zap.Uint("owner_id", user.ID),
	)
	return &CreateScannerKeyOutput{Body: scannerKeyResponse(scannerKey, false)}, nil
}

func scannerKeyResponse(k models.ScannerKey, masked bool) ScannerKeyResponse {
	key := k.Key
	if masked && len(key) > 4 {
		key = "..." + key[len(key)-4:]
	}
	return ScannerKeyResponse{
		ID:           k.ID,
		Name:         k.Name,
		Key:          key,
		Organization: k.Organization.Slug,
		Owner:        k.User.Username,
		CreatedAt:    k.CreatedAt,
		ExpiresAt:    k.ExpiresAt,
		LastUsedAt:   k.LastUsedAt,
	}
}

type ListScannerKeysInput struct {
	auth.AuthInput
	Org string `path:"org" doc:"Organization slug"`
}

type ListScannerKeysOutput struct {
	Body []ScannerKeyResponse
}

// HandleList shows an owner every key of the organization, and a staff member their own.
func (h *ScannerKeyHandler) HandleList(ctx context.Context, input *ListScannerKeysInput) (*ListScannerKeysOutput, error) {
	user, org, member, err := h.keyAccess(ctx, input.AuthInput, input.Org)
	if err != nil {
		return nil, err
	}

	query := h.db.WithContext(ctx).Preload("User").Where("organization_id = ?", org.ID)
	if member.Role != models.RoleOwner {
		query = query.Where("user_id = ?", user.ID)
	}

	var keys []models.ScannerKey
	if err := query.Order("id asc").Find(&keys).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list scanner keys")
	}

	response := make([]ScannerKeyResponse, 0, len(keys))
	for _, k := range keys {
		k.Organization = org
		response = append(response, scannerKeyResponse(k, true))
	}
	return &ListScannerKeysOutput{Body: response}, nil
}

type DeleteScannerKeyInput struct {
	auth.AuthInput
	Org string `path:"org" doc:"Organization slug"`
	ID  uint   `path:"id"`
}

// HandleDelete revokes a key. Owners may revoke any key of the organization.
func (h *ScannerKeyHandler) HandleDelete(ctx context.Context, input *DeleteScannerKeyInput) (*struct{}, error) {
	user, org, member, err := h.keyAccess(ctx, input.AuthInput, input.Org)
	if err != nil {
		return nil, err
	}

	query := h.db.WithContext(ctx).Where("id = ? AND organization_id = ?", input.ID, org.ID)
	if member.Role != models.RoleOwner {
		query = query.Where("user_id = ?", user.ID)
	}
	res := query.Delete(&models.ScannerKey{})
	if res.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete scanner key")
	}
	if res.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Scanner key not found")
	}

	h.logger.Info("scanner key revoked", zap.Uint("key_id", input.ID), zap.String("org", org.Slug), zap.Uint("by", user.ID))
	return nil, nil
}
