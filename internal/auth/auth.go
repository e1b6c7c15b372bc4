package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/guest-checkin-api/internal/config"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
)

const (
	TokenCookieName = "auth_token"
	stateCookieName = "oauth_state"
	APIKeyHeader    = "X-API-KEY"
)

const TokenDuration = 24 * time.Hour

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
	logger      *zap.Logger
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(stateBytes)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/",
	})

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.Error(err))
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)

	resp, err := client.Get(DiscordUserAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var discordUser struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).FirstOrInit(&user, models.User{DiscordID: discordUser.ID}).Error; err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	user.Username = discordUser.Username
	user.Email = discordUser.Email
	user.Avatar = discordUser.Avatar

	if err := h.db.WithContext(r.Context()).Save(&user).Error; err != nil {
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    jwtToken,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})

	h.logger.Info("operator signed in", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a session token and returns its claims.
func (h *AuthHandler) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if _, ok := claims["user_id"].(float64); !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// AuthInput is embedded in every protected operation's input.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie carrying auth_token"`
	APIKey string `header:"X-API-KEY" doc:"Scanner device key"`
}

// Principal is the caller behind a request.
type Principal struct {
	UserID uint
	// ScannerKeyID and OrganizationID are set when the caller is a scanning device.
	ScannerKeyID   uint
	OrganizationID uint
}

func (p Principal) ViaScannerKey() bool {
	return p.ScannerKeyID != 0
}

// Allows reports whether the caller may act within the organization. Scanner keys are bound to
// the organization they were issued for; session cookies are not.
func (p Principal) Allows(orgID uint) bool {
	return !p.ViaScannerKey() || p.OrganizationID == orgID
}

// Authenticate resolves the caller from a scanner key or a session cookie. A key that is not
// found falls back to the cookie; an expired key, or one whose owner is blocked, is refused.
func (h *AuthHandler) Authenticate(ctx context.Context, input AuthInput) (Principal, error) {
	if input.APIKey != "" {
		var key models.ScannerKey
		if err := h.db.WithContext(ctx).Preload("User").Where("key = ?", input.APIKey).First(&key).Error; err == nil {
			now := time.Now()
			if key.ExpiresAt != nil && now.After(*key.ExpiresAt) {
				return Principal{}, huma.Error401Unauthorized("Unauthorized: API Key expired")
			}
			if key.User.Blocked {
				return Principal{}, huma.Error403Forbidden("Access denied: scanner key owner is blocked")
			}
			h.db.WithContext(ctx).Model(&key).Update("last_used_at", now)
			return Principal{UserID: key.UserID, ScannerKeyID: key.ID, OrganizationID: key.OrganizationID}, nil
		}
	}

	if input.Cookie == "" {
		return Principal{}, huma.Error401Unauthorized("Unauthorized: No token found")
	}

	req := http.Request{Header: http.Header{"Cookie": []string{input.Cookie}}}
	cookie, err := req.Cookie(TokenCookieName)
	if err != nil {
		return Principal{}, huma.Error401Unauthorized("Unauthorized: No token found")
	}

	claims, err := h.ParseToken(cookie.Value)
	if err != nil {
		return Principal{}, huma.Error401Unauthorized("Unauthorized: Invalid token")
	}
	return Principal{UserID: uint(claims["user_id"].(float64))}, nil
}

// Authorize returns the operator behind the request.
func (h *AuthHandler) Authorize(ctx context.Context, input AuthInput) (uint, error) {
	p, err := h.Authenticate(ctx, input)
	if err != nil {
		return 0, err
	}
	return p.UserID, nil
}

type MembershipResponse struct {
	Organization string      `json:"organization"`
	Name         string      `json:"name"`
	Role         string      `json:"role"`
	Plan         models.Plan `json:"plan"`
}

type MeResponse struct {
	Body struct {
		ID          uint                 `json:"id"`
		Username    string               `json:"username"`
		Email       string               `json:"email"`
		Avatar      string               `json:"avatar"`
		Blocked     bool                 `json:"blocked"`
		Memberships []MembershipResponse `json:"memberships"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeResponse, error) {
	userID, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	var members []models.Member
	if err := h.db.WithContext(ctx).Preload("Organization").Where("user_id = ?", userID).Find(&members).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load memberships")
	}

	res := &MeResponse{}
	res.Body.ID = user.ID
	res.Body.Username = user.Username
	res.Body.Email = user.Email
	res.Body.Avatar = user.Avatar
	res.Body.Blocked = user.Blocked
	res.Body.Memberships = []MembershipResponse{}
	for _, m := range members {
		res.Body.Memberships = append(res.Body.Memberships, MembershipResponse{
			Organization: m.Organization.Slug,
			Name:         m.Organization.Name,
			Role:         m.Role,
			Plan:         m.Organization.Plan,
		})
	}
	return res, nil
}
