package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type ScoreHandler struct {
	BaseHandler
	service   services.ScoreService
	validator *validator.Validator
}

func NewScoreHandler(service services.ScoreService, validator *validator.Validator, logger utils.Logger) *ScoreHandler {
	return &ScoreHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// GetScoreBreakdown returns the caller's per-question scores
// @Summary Get score breakdown
// @Description Returns every per-question score the student earned plus the rollup
// @Tags scores
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} services.ScoreBreakdown
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/scores/me [get]
func (h *ScoreHandler) GetScoreBreakdown(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	breakdown, err := h.service.GetBreakdown(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// GetAssessmentScores lists every student's rollup for an assessment
// @Summary List assessment scores
// @Description Lists the score rollup of every enrolled student; owner-only
// @Tags scores
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {array} models.AssessmentScore
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/scores [get]
func (h *ScoreHandler) GetAssessmentScores(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	scores, err := h.service.GetAssessmentScores(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, scores)
}

// OverrideHandwrittenScore replaces an AI-graded handwritten score
// @Summary Override handwritten score
// @Description Replaces the score and feedback of a handwritten answer; rollups are recomputed
// @Tags scores
// @Accept json
// @Produce json
// @Param score_id path uint true "Handwritten score ID"
// @Param override body services.UpdateHandwrittenFeedback true "New score and feedback"
// @Success 200 {object} models.HandwrittenQuestionScore
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /scores/handwritten/{score_id} [put]
func (h *ScoreHandler) OverrideHandwrittenScore(c *gin.Context) {
	scoreID := h.parseIDParam(c, "score_id")
	if scoreID == 0 {
		return
	}

	var req services.UpdateHandwrittenFeedback
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Overriding handwritten score", "score_id", scoreID)

	score, err := h.service.OverrideHandwrittenScore(c.Request.Context(), scoreID, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}
