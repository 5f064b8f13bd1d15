package services

import (
	"errors"
	"fmt"
)

// Service errors map onto the HTTP layer: validation -> 400, permission ->
// 403, not found -> 404, duplicate -> 409, external service -> 502.

// ValidationError marks a request that fails a business rule.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func NewValidationError(field, message string, value any) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// PermissionError marks an authenticated user acting outside their rights.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// NotFoundError marks a missing resource.
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       any    `json:"id"`
}

func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// DuplicateError marks a write that conflicts with existing state, e.g.
// re-submitting a finalized submission.
type DuplicateError struct {
	Resource string `json:"resource"`
	Detail   string `json:"detail"`
}

func NewDuplicateError(resource, detail string) *DuplicateError {
	return &DuplicateError{Resource: resource, Detail: detail}
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Resource, e.Detail)
}

// ExternalServiceError wraps failures of the AI evaluator, the sandbox
// runner, or the object store.
type ExternalServiceError struct {
	Service string `json:"service"`
	Err     error  `json:"-"`
}

func NewExternalServiceError(service string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Err: err}
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// ===== PREDICATES =====

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

func IsDuplicateError(err error) bool {
	var de *DuplicateError
	return errors.As(err, &de)
}

func IsExternalServiceError(err error) bool {
	var ese *ExternalServiceError
	return errors.As(err, &ese)
}
