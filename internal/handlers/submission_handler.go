package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// Handwritten answer images arrive as multipart file parts named
// "handwritten_<question_id>" next to the JSON "answers" field.
const (
	handwrittenFieldPrefix = "handwritten_"
	maxUploadBytes         = 10 << 20 // per image
)

type SubmissionHandler struct {
	BaseHandler
	service   services.SubmissionService
	validator *validator.Validator
}

func NewSubmissionHandler(service services.SubmissionService, validator *validator.Validator, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// SubmitAssessment submits a student's answers
// @Summary Submit assessment
// @Description Submits answers as multipart form data: an "answers" JSON field plus one "handwritten_{question_id}" file per handwritten question. Each assessment accepts one submission per student.
// @Tags submissions
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param answers formData string true "JSON-encoded answers"
// @Success 201 {object} services.SubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /assessments/{id}/submissions [post]
func (h *SubmissionHandler) SubmitAssessment(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	req, uploads, ok := h.parseSubmission(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting assessment", "assessment_id", assessmentID, "uploads", len(uploads))

	result, err := h.service.Submit(c.Request.Context(), assessmentID, userID, req, uploads)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetSubmission retrieves the caller's submission
// @Summary Get own submission
// @Description Retrieves the authenticated student's submission for the assessment
// @Tags submissions
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.AssessmentSubmission
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/submissions/me [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	submission, err := h.service.GetSubmission(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListSubmissions lists all submissions for an assessment
// @Summary List submissions
// @Description Lists every submission for the assessment; owner-only
// @Tags submissions
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {array} models.AssessmentSubmission
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	submissions, err := h.service.ListByAssessment(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submissions)
}

// parseSubmission decodes the multipart body into the answers payload and the
// handwritten uploads. A false return means the response is already written.
func (h *SubmissionHandler) parseSubmission(c *gin.Context) (services.SubmitAssessmentRequest, []services.HandwrittenUpload, bool) {
	var req services.SubmitAssessmentRequest

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid multipart form",
			Details: err.Error(),
		})
		return req, nil, false
	}

	answersField := form.Value["answers"]
	if len(answersField) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing answers field",
		})
		return req, nil, false
	}
	if err := json.Unmarshal([]byte(answersField[0]), &req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid answers payload",
			Details: err.Error(),
		})
		return req, nil, false
	}

	var uploads []services.HandwrittenUpload
	for field, files := range form.File {
		if !strings.HasPrefix(field, handwrittenFieldPrefix) || len(files) == 0 {
			continue
		}
		questionID, err := strconv.ParseUint(strings.TrimPrefix(field, handwrittenFieldPrefix), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid upload field name",
				Details: field,
			})
			return req, nil, false
		}

		header := files[0]
		if header.Size > maxUploadBytes {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Uploaded image too large",
				Details: field,
			})
			return req, nil, false
		}

		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Failed to read uploaded file",
				Details: field,
			})
			return req, nil, false
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		file.Close()
		if err != nil || int64(len(data)) > maxUploadBytes {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Failed to read uploaded file",
				Details: field,
			})
			return req, nil, false
		}

		uploads = append(uploads, services.HandwrittenUpload{
			QuestionID: uint(questionID),
			FileName:   header.Filename,
			MimeType:   header.Header.Get("Content-Type"),
			Data:       data,
		})
	}

	return req, uploads, true
}
