package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pwannenmacher/campus-fest/internal/auth"
	"github.com/pwannenmacher/campus-fest/internal/models"
)

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware validates bearer tokens issued by auth.Service
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate rejects requests without a valid token and stores the claims in the context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Missing or malformed authorization header")
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if errors.Is(err, auth.ErrExpiredToken) {
			respondWithError(w, http.StatusUnauthorized, "Token has expired")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// OptionalAuth attaches claims when a valid token is present but never rejects
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if claims, err := m.authService.ValidateToken(token); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves the authenticated claims from the request context
func GetClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// GetUserID retrieves the acting user's ID from the request context
func GetUserID(r *http.Request) (string, bool) {
	claims, ok := GetClaims(r)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}

// GetRole retrieves the acting user's role from the request context
func GetRole(r *http.Request) (models.Role, bool) {
	claims, ok := GetClaims(r)
	if !ok {
		return "", false
	}
	return claims.Role, true
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
