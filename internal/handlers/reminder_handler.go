package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

// ReminderHandler triggers participant reminders on demand
type ReminderHandler struct {
	reminders *service.ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminders *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// TriggerAll reminds every active registration of every upcoming program
// @Summary Send all reminders
// @Tags Reminders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ReminderResult
// @Router /reminders [post]
func (h *ReminderHandler) TriggerAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.reminders.TriggerAll(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "send reminders")
		return
	}
	JSONResponse(w, http.StatusOK, result)
}

// TriggerProgram reminds the active registrations of one program
// @Summary Send program reminders
// @Tags Reminders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} models.ReminderResult
// @Failure 404 {object} map[string]string "Program not found"
// @Failure 423 {object} map[string]string "Program cancelled"
// @Router /programs/{id}/reminders [post]
func (h *ReminderHandler) TriggerProgram(w http.ResponseWriter, r *http.Request) {
	sent, err := h.reminders.TriggerProgram(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "send reminders")
		return
	}
	JSONResponse(w, http.StatusOK, models.ReminderResult{SentCount: sent, ProgramCount: 1})
}
