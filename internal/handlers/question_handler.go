package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type QuestionHandler struct {
	BaseHandler
	service   services.QuestionService
	validator *validator.Validator
}

func NewQuestionHandler(service services.QuestionService, validator *validator.Validator, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// AddMCQQuestion adds a multiple-choice question to an assessment
// @Summary Add MCQ question
// @Description Adds an MCQ question; the answer key must be one of the options and the grade must fit the assessment cap
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param question body services.CreateMCQQuestionRequest true "Question data"
// @Success 201 {object} models.MCQQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/questions/mcq [post]
func (h *QuestionHandler) AddMCQQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	var req services.CreateMCQQuestionRequest
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

	h.LogRequest(c, "Adding MCQ question", "assessment_id", assessmentID)

	question, err := h.service.AddMCQ(c.Request.Context(), assessmentID, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// AddHandwrittenQuestion adds a handwritten question to an assessment
// @Summary Add handwritten question
// @Description Adds a question answered with an uploaded image and graded by OCR
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param question body services.CreateHandwrittenQuestionRequest true "Question data"
// @Success 201 {object} models.HandwrittenQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/questions/handwritten [post]
func (h *QuestionHandler) AddHandwrittenQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	var req services.CreateHandwrittenQuestionRequest
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

	h.LogRequest(c, "Adding handwritten question", "assessment_id", assessmentID)

	question, err := h.service.AddHandwritten(c.Request.Context(), assessmentID, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// AddCodingQuestion adds a coding question to an assessment
// @Summary Add coding question
// @Description Adds a question graded by running submitted code against test cases
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param question body services.CreateCodingQuestionRequest true "Question data"
// @Success 201 {object} models.CodingQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/questions/coding [post]
func (h *QuestionHandler) AddCodingQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	var req services.CreateCodingQuestionRequest
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

	h.LogRequest(c, "Adding coding question", "assessment_id", assessmentID)

	question, err := h.service.AddCoding(c.Request.Context(), assessmentID, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// DeleteQuestion removes a question from an assessment
// @Summary Delete question
// @Description Removes a static question; generated questions cannot be deleted individually
// @Tags questions
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param kind path string true "Question kind (mcq, handwritten, coding)"
// @Param question_id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/questions/{kind}/{question_id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	kind := models.QuestionKind(c.Param("kind"))
	switch kind {
	case models.KindMCQ, models.KindHandwritten, models.KindCoding:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid question kind",
			Details: "kind must be one of mcq, handwritten, coding",
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting question", "assessment_id", assessmentID, "kind", kind, "question_id", questionID)

	if err := h.service.DeleteQuestion(c.Request.Context(), assessmentID, kind, questionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

// GetQuestions returns the student's question set
// @Summary Get questions for student
// @Description Returns the personal question set; dynamic MCQs are generated on first access
// @Tags questions
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} services.AssessmentQuestionsResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /assessments/{id}/questions [get]
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting questions for student", "assessment_id", assessmentID)

	questions, err := h.service.GetQuestionsForStudent(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// GetQuestionsFull returns the owner's view of all static questions
// @Summary Get questions for teacher
// @Description Returns every static question including answer keys; owner-only
// @Tags questions
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.Assessment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/questions/full [get]
func (h *QuestionHandler) GetQuestionsFull(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	assessment, err := h.service.GetQuestionsForTeacher(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}
