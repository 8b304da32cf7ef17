package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

// ReasonRequest carries the mandatory reason of a cancellation
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ProgramHandler handles program lifecycle requests
type ProgramHandler struct {
	programs      *service.ProgramService
	registrations *service.RegistrationService
	scores        *service.ScoreService
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(programs *service.ProgramService, registrations *service.RegistrationService, scores *service.ScoreService) *ProgramHandler {
	return &ProgramHandler{programs: programs, registrations: registrations, scores: scores}
}

// ListPrograms lists programs
// @Summary List programs
// @Description List programs, optionally narrowed to one event, type or published results
// @Tags Programs
// @Produce json
// @Param event_id query string false "Event ID"
// @Param type query string false "SINGLE or GROUP"
// @Param include_cancelled query bool false "Include cancelled programs"
// @Param published query bool false "Only programs with published results"
// @Success 200 {array} models.Program
// @Failure 400 {object} map[string]string "Invalid query"
// @Router /programs [get]
func (h *ProgramHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	includeCancelled, err := queryBool(r, "include_cancelled")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQuery+": include_cancelled")
		return
	}
	published, err := queryBool(r, "published")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQuery+": published")
		return
	}

	filter := models.ProgramFilter{
		EventID:          r.URL.Query().Get("event_id"),
		IncludeCancelled: includeCancelled,
		PublishedOnly:    published,
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		filter.Type = models.ProgramType(strings.ToUpper(raw))
		if !filter.Type.Valid() {
			respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQuery+": type")
			return
		}
	}

	programs, err := h.programs.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, err, "list programs")
		return
	}
	JSONResponse(w, http.StatusOK, programs)
}

// GetProgram returns a single program
// @Summary Get program
// @Tags Programs
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} models.Program
// @Failure 404 {object} map[string]string "Program not found"
// @Router /programs/{id} [get]
func (h *ProgramHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	program, err := h.programs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "get program")
		return
	}
	JSONResponse(w, http.StatusOK, program)
}

// CreateProgram creates a program within an event
// @Summary Create program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateProgramInput true "Program"
// @Success 201 {object} models.Program
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 409 {object} map[string]string "Name already used in the event"
// @Router /programs [post]
func (h *ProgramHandler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProgramInput
	if !decodeJSON(w, r, &req) {
		return
	}

	program, err := h.programs.Create(r.Context(), req, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "create program")
		return
	}
	JSONResponse(w, http.StatusCreated, program)
}

// UpdateProgram applies a partial update
// @Summary Update program
// @Description Fields left out are unchanged. Venue or start time changes notify active registrations.
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param request body models.ProgramPatch true "Changes"
// @Success 200 {object} models.Program
// @Failure 404 {object} map[string]string "Program not found"
// @Failure 409 {object} map[string]string "Name already used in the event"
// @Failure 423 {object} map[string]string "Program cancelled"
// @Router /programs/{id} [patch]
func (h *ProgramHandler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	var patch models.ProgramPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	program, scheduleChanged, err := h.programs.Update(r.Context(), chi.URLParam(r, "id"), patch, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "update program")
		return
	}
	if scheduleChanged {
		slog.Info("Program rescheduled", "program_id", program.ID, "venue", program.Venue)
	}
	JSONResponse(w, http.StatusOK, program)
}

// CancelProgram cancels a program with a reason
// @Summary Cancel program
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param request body ReasonRequest true "Reason"
// @Success 200 {object} models.Program
// @Failure 400 {object} map[string]string "Missing reason"
// @Failure 423 {object} map[string]string "Already cancelled or results published"
// @Router /programs/{id}/cancel [post]
func (h *ProgramHandler) CancelProgram(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	program, err := h.programs.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "cancel program")
		return
	}
	JSONResponse(w, http.StatusOK, program)
}

// PublishResults freezes a program's results
// @Summary Publish results
// @Description Recomputes points one last time, then locks the program
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} models.Program
// @Failure 404 {object} map[string]string "Program not found"
// @Failure 423 {object} map[string]string "Program cancelled"
// @Router /programs/{id}/publish [post]
func (h *ProgramHandler) PublishResults(w http.ResponseWriter, r *http.Request) {
	program, err := h.programs.PublishResults(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "publish results")
		return
	}
	JSONResponse(w, http.StatusOK, program)
}

// Recompute re-aggregates the judges' scores of a program
// @Summary Recompute program points
// @Tags Programs
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 204
// @Failure 404 {object} map[string]string "Program not found"
// @Router /programs/{id}/recompute [post]
func (h *ProgramHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.programs.Get(r.Context(), id); err != nil {
		respondWithServiceError(w, r, err, "recompute program")
		return
	}
	if err := h.scores.Recompute(r.Context(), id, actorID(r)); err != nil {
		respondWithServiceError(w, r, err, "recompute program")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRegistrations returns one page of a program's registrations
// @Summary List program registrations
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param status query string false "Comma-separated statuses"
// @Param search query string false "Chest number, student name or code"
// @Param college_id query string false "College ID"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} models.RegistrationPage
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 404 {object} map[string]string "Program not found"
// @Router /programs/{id}/registrations [get]
func (h *ProgramHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	statuses, err := service.ParseStatuses(q.Get("status"))
	if err != nil {
		respondWithServiceError(w, r, err, "list registrations")
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQuery+": page")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQuery+": limit")
		return
	}

	result, err := h.registrations.ListByProgram(r.Context(), chi.URLParam(r, "id"), models.RegistrationQuery{
		Statuses:  statuses,
		Search:    q.Get("search"),
		CollegeID: q.Get("college_id"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "list registrations")
		return
	}
	JSONResponse(w, http.StatusOK, result)
}
