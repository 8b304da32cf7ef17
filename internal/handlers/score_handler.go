package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pwannenmacher/campus-fest/internal/service"
)

// ScoreRequest is one judge's criteria breakdown for a registration
type ScoreRequest struct {
	RegistrationID string             `json:"registration_id"`
	Criteria       map[string]float64 `json:"criteria"`
}

// ScoreHandler handles judge score submissions
type ScoreHandler struct {
	scores *service.ScoreService
}

// NewScoreHandler creates a new score handler
func NewScoreHandler(scores *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// SubmitScore stores the calling judge's score and recomputes the program
// @Summary Submit score
// @Description Resubmitting overwrites the judge's previous score for the registration
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param request body ScoreRequest true "Score"
// @Success 200 {object} models.Score
// @Failure 400 {object} map[string]string "Invalid criteria"
// @Failure 404 {object} map[string]string "Program or registration not found"
// @Failure 409 {object} map[string]string "Registration is terminal"
// @Failure 423 {object} map[string]string "Results published or program cancelled"
// @Router /programs/{id}/scores [post]
func (h *ScoreHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	judgeID := actorID(r)
	if judgeID == "" {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req ScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	score, err := h.scores.SubmitScore(r.Context(), chi.URLParam(r, "id"), req.RegistrationID, judgeID, req.Criteria)
	if err != nil {
		respondWithServiceError(w, r, err, "submit score")
		return
	}
	JSONResponse(w, http.StatusOK, score)
}

// ListScores returns every judge's score for a registration
// @Summary List registration scores
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 200 {array} models.Score
// @Router /registrations/{id}/scores [get]
func (h *ScoreHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.scores.ListByRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondWithServiceError(w, r, err, "list scores")
		return
	}
	JSONResponse(w, http.StatusOK, scores)
}
