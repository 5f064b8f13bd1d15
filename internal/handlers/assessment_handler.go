package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type AssessmentHandler struct {
	BaseHandler
	service   services.AssessmentService
	validator *validator.Validator
}

func NewAssessmentHandler(service services.AssessmentService, validator *validator.Validator, logger utils.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// CreateAssessment creates a new assessment in a course
// @Summary Create assessment
// @Description Creates an assessment in the course, including dynamic MCQ generation settings
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param assessment body services.CreateAssessmentRequest true "Assessment data"
// @Success 201 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	var req services.CreateAssessmentRequest
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

	h.LogRequest(c, "Creating assessment", "course_id", courseID)

	assessment, err := h.service.Create(c.Request.Context(), courseID, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// GetAssessment retrieves an assessment by ID
// @Summary Get assessment
// @Description Retrieves an assessment visible to the authenticated user
// @Tags assessments
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.Assessment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	assessment, err := h.service.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// GetAssessmentWithDetails retrieves an assessment with its question lists
// @Summary Get assessment with details
// @Description Retrieves an assessment with questions preloaded; owner-only
// @Tags assessments
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.Assessment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/details [get]
func (h *AssessmentHandler) GetAssessmentWithDetails(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting assessment with details", "assessment_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	assessment, err := h.service.GetByIDWithDetails(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// UpdateAssessment updates an existing assessment
// @Summary Update assessment
// @Description Updates assessment metadata; the grade cap cannot drop below what is already assigned
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param assessment body services.UpdateAssessmentRequest true "Assessment update data"
// @Success 200 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) UpdateAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating assessment", "assessment_id", id)

	var req services.UpdateAssessmentRequest
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

	assessment, err := h.service.Update(c.Request.Context(), id, req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// DeleteAssessment deletes an assessment
// @Summary Delete assessment
// @Description Deletes an assessment and its questions, submissions and scores
// @Tags assessments
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting assessment", "assessment_id", id)

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Assessment deleted"})
}

// ListAssessments lists assessments visible to the user
// @Summary List assessments
// @Description Lists assessments with optional filters; teachers see their own by default
// @Tags assessments
// @Produce json
// @Param type query string false "Filter by type (Exam, Assignment, Quiz)"
// @Param course_id query int false "Filter by course"
// @Param due_before query string false "Due before (RFC3339)"
// @Param due_after query string false "Due after (RFC3339)"
// @Param page query int false "Page number (default 1)"
// @Param size query int false "Page size (default 10)"
// @Success 200 {object} services.AssessmentListResponse
// @Failure 401 {object} ErrorResponse
// @Router /assessments [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), h.parseAssessmentFilters(c), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListCourseAssessments lists the assessments of one course
// @Summary List course assessments
// @Description Lists every assessment in the course
// @Tags assessments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.AssessmentListResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/assessments [get]
func (h *AssessmentHandler) ListCourseAssessments(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	result, err := h.service.ListByCourse(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AssessmentHandler) parseAssessmentFilters(c *gin.Context) repositories.AssessmentFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := repositories.AssessmentFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if typeStr := strings.TrimSpace(c.Query("type")); typeStr != "" {
		assessmentType := models.AssessmentType(typeStr)
		filters.Type = &assessmentType
	}
	if courseID := h.parseIntQuery(c, "course_id", 0); courseID > 0 {
		id := uint(courseID)
		filters.CourseID = &id
	}
	if dueBefore := c.Query("due_before"); dueBefore != "" {
		if t, err := time.Parse(time.RFC3339, dueBefore); err == nil {
			filters.DueBefore = &t
		}
	}
	if dueAfter := c.Query("due_after"); dueAfter != "" {
		if t, err := time.Parse(time.RFC3339, dueAfter); err == nil {
			filters.DueAfter = &t
		}
	}

	return filters
}
