package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pwannenmacher/campus-fest/internal/service"
)

// UserHandler manages staff accounts
type UserHandler struct {
	authService *service.AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// ListUsers lists all staff accounts
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "list users")
		return
	}
	JSONResponse(w, http.StatusOK, users)
}

// GetUser returns one staff account
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "get user")
		return
	}
	JSONResponse(w, http.StatusOK, user)
}

// CreateUser creates a staff account with a role
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UserInput true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Invalid request or email taken"
// @Router /users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.CreateUser(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err, "create user")
		return
	}
	slog.Info("User created", "user_id", user.ID, "role", user.Role, "created_by", actorID(r))
	JSONResponse(w, http.StatusCreated, user)
}
