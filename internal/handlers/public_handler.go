package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pwannenmacher/campus-fest/internal/service"
)

// PublicHandler serves the unauthenticated fest views
type PublicHandler struct {
	public      *service.PublicService
	leaderboard *service.LeaderboardService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(public *service.PublicService, leaderboard *service.LeaderboardService) *PublicHandler {
	return &PublicHandler{public: public, leaderboard: leaderboard}
}

// Schedule lists upcoming programs of active events
// @Summary Programme schedule
// @Tags Public
// @Produce json
// @Success 200 {array} models.Program
// @Router /public/schedule [get]
func (h *PublicHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	programs, err := h.public.Schedule(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "load schedule")
		return
	}
	JSONResponse(w, http.StatusOK, programs)
}

// Stats returns headline counters
// @Summary Fest statistics
// @Tags Public
// @Produce json
// @Success 200 {object} models.Stats
// @Router /public/stats [get]
func (h *PublicHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.public.Stats(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, "load stats")
		return
	}
	JSONResponse(w, http.StatusOK, stats)
}

// CollegeLeaderboard ranks colleges by points from published podiums
// @Summary College leaderboard
// @Tags Public
// @Produce json
// @Param event_id query string false "Restrict to one event"
// @Success 200 {array} models.CollegeStanding
// @Router /public/leaderboard/colleges [get]
func (h *PublicHandler) CollegeLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leaderboard.CollegeStandings(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		respondWithServiceError(w, r, err, "load college leaderboard")
		return
	}
	JSONResponse(w, http.StatusOK, standings)
}

// StudentLeaderboard ranks students by points from published SINGLE podiums
// @Summary Student leaderboard
// @Tags Public
// @Produce json
// @Param event_id query string false "Restrict to one event"
// @Success 200 {array} models.StudentStanding
// @Router /public/leaderboard/students [get]
func (h *PublicHandler) StudentLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leaderboard.StudentStandings(r.Context(), r.URL.Query().Get("event_id"))
	if err != nil {
		respondWithServiceError(w, r, err, "load student leaderboard")
		return
	}
	JSONResponse(w, http.StatusOK, standings)
}

// ProgramResults returns the published podium of a program
// @Summary Program results
// @Tags Public
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} models.ProgramResult
// @Failure 404 {object} map[string]string "Program not found or not published"
// @Router /public/programs/{id}/results [get]
func (h *PublicHandler) ProgramResults(w http.ResponseWriter, r *http.Request) {
	result, err := h.leaderboard.ProgramResults(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "load program results")
		return
	}
	JSONResponse(w, http.StatusOK, result)
}
