package auth

import (
	"net/http"
	"time"
)

// SessionRefresh reissues the auth cookie once a valid session token is past half its lifetime.
// It never rejects a request; operations authorize themselves.
func (h *AuthHandler) SessionRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(TokenCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := h.ParseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if exp, ok := claims["exp"].(float64); ok {
			remaining := time.Until(time.Unix(int64(exp), 0))
			if remaining < TokenDuration/2 {
				userID := uint(claims["user_id"].(float64))
				newToken, err := h.GenerateToken(userID)
				if err == nil {
					http.SetCookie(w, &http.Cookie{
						Name:     TokenCookieName,
						Value:    newToken,
						Expires:  time.Now().Add(TokenDuration),
						HttpOnly: true,
						Path:     "/",
					})
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}
