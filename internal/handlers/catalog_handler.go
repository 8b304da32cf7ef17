package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pwannenmacher/campus-fest/internal/service"
)

// CatalogHandler handles events, colleges and students
type CatalogHandler struct {
	catalog  *service.CatalogService
	programs *service.ProgramService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.CatalogService, programs *service.ProgramService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, programs: programs}
}

// ListEvents lists events
// @Summary List events
// @Tags Events
// @Produce json
// @Param active query bool false "Only active events"
// @Success 200 {array} models.Event
// @Router /events [get]
func (h *CatalogHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQuery+": active")
		return
	}
	events, err := h.catalog.ListEvents(r.Context(), activeOnly)
	if err != nil {
		respondWithServiceError(w, r, err, "list events")
		return
	}
	JSONResponse(w, http.StatusOK, events)
}

// GetEvent returns a single event
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/{id} [get]
func (h *CatalogHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.catalog.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "get event")
		return
	}
	JSONResponse(w, http.StatusOK, event)
}

// ListEventPrograms lists the programs of one event
// @Summary List event programs
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Param include_cancelled query bool false "Include cancelled programs"
// @Success 200 {array} models.Program
// @Router /events/{id}/programs [get]
func (h *CatalogHandler) ListEventPrograms(w http.ResponseWriter, r *http.Request) {
	includeCancelled, err := queryBool(r, "include_cancelled")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidQuery+": include_cancelled")
		return
	}
	programs, err := h.programs.ListByEvent(r.Context(), chi.URLParam(r, "id"), includeCancelled)
	if err != nil {
		respondWithServiceError(w, r, err, "list programs")
		return
	}
	JSONResponse(w, http.StatusOK, programs)
}

// CreateEvent creates an event
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.EventInput true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /events [post]
func (h *CatalogHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req service.EventInput
	if !decodeJSON(w, r, &req) {
		return
	}
	event, err := h.catalog.CreateEvent(r.Context(), req, actorID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "create event")
		return
	}
	JSONResponse(w, http.StatusCreated, event)
}

// UpdateEvent replaces an event's editable fields
// @Summary Update event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param request body service.EventInput true "Event"
// @Success 200 {object} models.Event
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/{id} [put]
func (h *CatalogHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req service.EventInput
	if !decodeJSON(w, r, &req) {
		return
	}
	event, err := h.catalog.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondWithServiceError(w, r, err, "update event")
		return
	}
	JSONResponse(w, http.StatusOK, event)
}

// ListColleges lists colleges
// @Summary List colleges
// @Tags Colleges
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.College
// @Router /colleges [get]
func (h *CatalogHandler) ListColleges(w http.ResponseWriter, r *http.Request) {
	colleges, err := h.catalog.ListColleges(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "list colleges")
		return
	}
	JSONResponse(w, http.StatusOK, colleges)
}

// GetCollege returns a single college
// @Summary Get college
// @Tags Colleges
// @Produce json
// @Security BearerAuth
// @Param id path string true "College ID"
// @Success 200 {object} models.College
// @Failure 404 {object} map[string]string "College not found"
// @Router /colleges/{id} [get]
func (h *CatalogHandler) GetCollege(w http.ResponseWriter, r *http.Request) {
	college, err := h.catalog.GetCollege(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "get college")
		return
	}
	JSONResponse(w, http.StatusOK, college)
}

// CreateCollege creates a college
// @Summary Create college
// @Tags Colleges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CollegeInput true "College"
// @Success 201 {object} models.College
// @Failure 400 {object} map[string]string "Invalid request or duplicate code"
// @Router /colleges [post]
func (h *CatalogHandler) CreateCollege(w http.ResponseWriter, r *http.Request) {
	var req service.CollegeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	college, err := h.catalog.CreateCollege(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err, "create college")
		return
	}
	JSONResponse(w, http.StatusCreated, college)
}

// CollegePrograms lists the programs a college has registrations in
// @Summary Programs of a college
// @Tags Colleges
// @Produce json
// @Security BearerAuth
// @Param id path string true "College ID"
// @Success 200 {array} models.Program
// @Router /colleges/{id}/programs [get]
func (h *CatalogHandler) CollegePrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.catalog.ProgramsByCollege(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "list college programs")
		return
	}
	JSONResponse(w, http.StatusOK, programs)
}

// ListStudents lists the students of a college
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param college_id query string true "College ID"
// @Success 200 {array} models.Student
// @Router /students [get]
func (h *CatalogHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	collegeID := r.URL.Query().Get("college_id")
	if collegeID == "" {
		respondWithError(w, http.StatusBadRequest, "college_id is required")
		return
	}
	students, err := h.catalog.ListStudents(r.Context(), collegeID)
	if err != nil {
		respondWithServiceError(w, r, err, "list students")
		return
	}
	JSONResponse(w, http.StatusOK, students)
}

// GetStudent returns a single student
// @Summary Get student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{id} [get]
func (h *CatalogHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.catalog.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "get student")
		return
	}
	JSONResponse(w, http.StatusOK, student)
}

// CreateStudent creates a student
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.StudentInput true "Student"
// @Success 201 {object} models.Student
// @Failure 400 {object} map[string]string "Invalid request or duplicate code"
// @Failure 404 {object} map[string]string "College not found"
// @Router /students [post]
func (h *CatalogHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req service.StudentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	student, err := h.catalog.CreateStudent(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err, "create student")
		return
	}
	JSONResponse(w, http.StatusCreated, student)
}
