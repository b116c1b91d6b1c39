// file: internal/middleware/auth.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	// AdminIDKey is the context key for the authenticated admin's ID
	AdminIDKey ContextKey = "admin_id"

	// RoleAdmin is the role claim required for moderation endpoints
	RoleAdmin = "admin"
)

// AdminClaims are the JWT claims carried by admin bearer tokens
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs a short-lived admin bearer token
func GenerateAdminToken(secret, adminID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "ecolearn",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// RequireAdmin rejects requests without a valid admin bearer token
func RequireAdmin(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parseBearerToken(r, secret)
			if err != nil {
				GetLogger(r.Context()).Warn("Admin auth failed", zap.Error(err))
				writeMiddlewareError(w, r, http.StatusUnauthorized,
					"UNAUTHORIZED", "valid admin token required")
				return
			}
			if claims.Role != RoleAdmin {
				writeMiddlewareError(w, r, http.StatusForbidden,
					"FORBIDDEN", "admin role required")
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminID retrieves the authenticated admin's ID from the context
func GetAdminID(ctx context.Context) string {
	if id, ok := ctx.Value(AdminIDKey).(string); ok {
		return id
	}
	return ""
}

func parseBearerToken(r *http.Request, secret string) (*AdminClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("authorization header is not a bearer token")
	}

	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
