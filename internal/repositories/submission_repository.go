package repositories

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"gorm.io/gorm"
)

// SubmissionRepository interface for submission intake.
type SubmissionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error)
	Update(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Idempotent intake: returns the existing row for the
	// (assessment, enrollment) pair or creates a fresh one.
	GetOrCreate(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentSubmission, error)
	GetByAssessmentAndEnrollment(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentSubmission, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.AssessmentSubmission, int64, error)
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentSubmission, error)
	GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.AssessmentSubmission, error)

	// Flag management
	MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint) error
	ResetSubmitted(ctx context.Context, tx *gorm.DB, id uint) error

	// Statistics
	CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, submittedOnly bool) (int64, error)
}
