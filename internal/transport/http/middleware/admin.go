package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"betahub/internal/httputil"
	"betahub/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RoleKey is the context key for the authenticated caller's role
	RoleKey contextKey = "role"

	// AdminCookieName carries the admin session for browser clients
	AdminCookieName = "admin_token"
)

// AdminOnly validates the admin session JWT.
// Checks the Authorization header first, then falls back to the admin_token cookie.
func AdminOnly(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing admin token.")
				return
			}

			if jwtSecret == "" {
				httputil.WriteUnauthorized(w, "Invalid admin token.")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					httputil.WriteUnauthorized(w, "Admin session has expired.")
					return
				}
				httputil.WriteUnauthorized(w, "Invalid admin token.")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !token.Valid {
				httputil.WriteUnauthorized(w, "Invalid admin token.")
				return
			}

			role, _ := claims["role"].(string)
			if role != model.RoleAdmin {
				httputil.WriteForbidden(w, "Admin access required.")
				return
			}

			ctx := context.WithValue(r.Context(), RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	// Expected format: "Bearer <token>"
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie(AdminCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// GetRoleFromContext returns the role set by AdminOnly.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
