package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

// RegisterRequest enrols one or more students in a program
type RegisterRequest struct {
	ProgramID      string   `json:"program_id"`
	ParticipantIDs []string `json:"participant_ids"`
}

// StatusRequest moves a registration to another status
type StatusRequest struct {
	Status models.RegistrationStatus `json:"status"`
}

// ReportRequest checks a registration in at the venue
type ReportRequest struct {
	ChestNumber string `json:"chest_number"`
}

// ParticipantsRequest replaces a registration's participants
type ParticipantsRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
}

// RegistrationHandler handles registration lifecycle requests
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Register creates a registration
// @Summary Register participants
// @Description SINGLE programs take exactly one student, GROUP programs one or more from the same college
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RegisterRequest true "Registration"
// @Success 201 {object} models.Registration
// @Failure 404 {object} map[string]string "Program or student not found"
// @Failure 409 {object} map[string]string "Student already registered"
// @Failure 422 {object} map[string]string "Invalid participant set"
// @Failure 423 {object} map[string]string "Program cancelled or published"
// @Router /registrations [post]
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reg, err := h.registrations.Register(r.Context(), req.ParticipantIDs, req.ProgramID, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "register")
		return
	}
	JSONResponse(w, http.StatusCreated, reg)
}

// GetRegistration returns a registration with its participants and rank
// @Summary Get registration
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 200 {object} models.RegistrationView
// @Failure 404 {object} map[string]string "Registration not found"
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	view, err := h.registrations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "get registration")
		return
	}
	JSONResponse(w, http.StatusOK, view)
}

// UpdateStatus sets a registration's status
// @Summary Update registration status
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Param request body StatusRequest true "Status"
// @Success 200 {object} models.Registration
// @Failure 400 {object} map[string]string "Unknown status"
// @Failure 409 {object} map[string]string "Registration is terminal"
// @Failure 423 {object} map[string]string "Program cancelled or published"
// @Router /registrations/{id}/status [patch]
func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reg, err := h.registrations.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "update registration status")
		return
	}
	JSONResponse(w, http.StatusOK, reg)
}

// Report marks a registration as reported at the venue
// @Summary Report registration
// @Description An empty chest number keeps the assigned one or allocates the next from the program counter
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Param request body ReportRequest false "Chest number"
// @Success 200 {object} models.Registration
// @Failure 409 {object} map[string]string "Chest number taken"
// @Router /registrations/{id}/report [post]
func (h *RegistrationHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	reg, err := h.registrations.Report(r.Context(), chi.URLParam(r, "id"), req.ChestNumber, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "report registration")
		return
	}
	JSONResponse(w, http.StatusOK, reg)
}

// CancelRegistration cancels a registration with a reason
// @Summary Cancel registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Param request body ReasonRequest true "Reason"
// @Success 200 {object} models.Registration
// @Failure 400 {object} map[string]string "Missing reason"
// @Router /registrations/{id}/cancel [post]
func (h *RegistrationHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reg, err := h.registrations.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "cancel registration")
		return
	}
	JSONResponse(w, http.StatusOK, reg)
}

// UpdateParticipants replaces the participants of a registration
// @Summary Update participants
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Param request body ParticipantsRequest true "Participants"
// @Success 200 {object} models.Registration
// @Failure 409 {object} map[string]string "Registration already reported"
// @Failure 422 {object} map[string]string "Invalid participant set"
// @Router /registrations/{id}/participants [put]
func (h *RegistrationHandler) UpdateParticipants(w http.ResponseWriter, r *http.Request) {
	var req ParticipantsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reg, err := h.registrations.UpdateParticipants(r.Context(), chi.URLParam(r, "id"), req.ParticipantIDs, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "update participants")
		return
	}
	JSONResponse(w, http.StatusOK, reg)
}

// DeleteRegistration removes a registration and its scores
// @Summary Delete registration
// @Tags Registrations
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 204
// @Failure 404 {object} map[string]string "Registration not found"
// @Failure 423 {object} map[string]string "Program cancelled or published"
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.registrations.Remove(r.Context(), chi.URLParam(r, "id"), actorID(r)); err != nil {
		respondWithServiceError(w, r, err, "delete registration")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListByStudent returns every registration of one student
// @Summary List a student's registrations
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {array} models.RegistrationView
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{id}/registrations [get]
func (h *RegistrationHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	views, err := h.registrations.ListByStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "list registrations")
		return
	}
	JSONResponse(w, http.StatusOK, views)
}
