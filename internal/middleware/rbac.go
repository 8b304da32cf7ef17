package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/pwannenmacher/campus-fest/internal/models"
)

// RequireRole allows the request through when the caller holds one of roles.
// Super admins pass every check.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			if role != models.RoleSuperAdmin && !slices.Contains(roles, role) {
				userID, _ := GetUserID(r)
				slog.Warn("Access denied", "user_id", userID, "role", role, "path", r.URL.Path)
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
