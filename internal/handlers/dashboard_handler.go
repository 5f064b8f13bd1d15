package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetCourseStats returns aggregate statistics for a course
// @Summary Get course statistics
// @Description Returns enrollment counts, assessment counts and score averages for the course; owner-only
// @Tags dashboard
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} repositories.CourseStats
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/stats [get]
func (h *DashboardHandler) GetCourseStats(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.service.GetCourseStats(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetAssessmentStats returns aggregate statistics for an assessment
// @Summary Get assessment statistics
// @Description Returns submission counts and score distribution for the assessment; owner-only
// @Tags dashboard
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} repositories.AssessmentStats
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/stats [get]
func (h *DashboardHandler) GetAssessmentStats(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.service.GetAssessmentStats(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetStudentProgress returns one student's progress in a course
// @Summary Get student progress
// @Description Returns per-assessment scores and the course total for one student. Students read their own; the course owner reads anyone's.
// @Tags dashboard
// @Produce json
// @Param id path uint true "Course ID"
// @Param student_id path string true "Student ID"
// @Success 200 {object} repositories.StudentProgress
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/students/{student_id}/progress [get]
func (h *DashboardHandler) GetStudentProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	studentID := strings.TrimSpace(c.Param("student_id"))
	if studentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid student_id",
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	progress, err := h.service.GetStudentProgress(c.Request.Context(), courseID, studentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ExportGradebook downloads the course gradebook as a spreadsheet
// @Summary Export gradebook
// @Description Renders every enrollment's assessment scores and course totals as an xlsx workbook; owner-only
// @Tags dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Course ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/gradebook [get]
func (h *DashboardHandler) ExportGradebook(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting gradebook", "course_id", courseID)

	data, err := h.service.ExportGradebook(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="gradebook_course_%d.xlsx"`, courseID))
	c.Data(http.StatusOK, xlsxContentType, data)
}
