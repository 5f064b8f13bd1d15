package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ErrorResponse is the uniform error envelope returned by every endpoint.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps payloads that need a message alongside the data.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler shares: the logger and the
// service-error-to-HTTP mapping.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	requestID, _ := c.Get("request_id")
	h.logger.Info(msg, append([]any{"request_id", requestID, "path", c.Request.URL.Path}, args...)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	requestID, _ := c.Get("request_id")
	h.logger.Error(msg, append([]any{"request_id", requestID, "path", c.Request.URL.Path, "error", err}, args...)...)
}

// getUserID reads the authenticated user set by the auth middleware. An empty
// result means the middleware was bypassed; callers respond 401.
func (h *BaseHandler) getUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// requireUserID is getUserID plus the 401 response.
func (h *BaseHandler) requireUserID(c *gin.Context) (string, bool) {
	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

// parseIDParam parses a numeric path parameter. Zero means the response has
// already been written.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// handleServiceError maps the service error taxonomy to HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: fieldErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validationError.Message,
			Details: map[string]interface{}{
				"field": validationError.Field,
				"value": validationError.Value,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var notFoundError *services.NotFoundError
	if errors.As(err, &notFoundError) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: notFoundError.Error(),
		})
		return
	}

	var duplicateError *services.DuplicateError
	if errors.As(err, &duplicateError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: duplicateError.Error(),
		})
		return
	}

	var externalError *services.ExternalServiceError
	if errors.As(err, &externalError) {
		h.LogError(c, err, "External service failure", "service", externalError.Service)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Upstream service unavailable",
			Details: map[string]interface{}{
				"service": externalError.Service,
			},
		})
		return
	}

	h.LogError(c, err, "Unexpected service error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
	})
}
