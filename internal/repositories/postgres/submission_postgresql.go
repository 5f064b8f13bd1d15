package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type SubmissionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// Create creates a new submission row
func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
	db := getDB(s.db, tx)
	if err := db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission by ID
func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	err := getDB(s.db, tx).WithContext(ctx).First(&submission, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// Update updates a submission
func (s *SubmissionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
	db := getDB(s.db, tx)
	if err := db.WithContext(ctx).Save(submission).Error; err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return nil
}

// Delete deletes a submission
func (s *SubmissionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(s.db, tx)
	if err := db.WithContext(ctx).Delete(&models.AssessmentSubmission{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return nil
}

// GetOrCreate returns the single submission row for the (assessment, enrollment)
// pair, creating it when absent. A concurrent create losing the unique-index
// race falls back to reading the winner's row.
func (s *SubmissionPostgreSQL) GetOrCreate(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentSubmission, error) {
	existing, err := s.GetByAssessmentAndEnrollment(ctx, tx, assessmentID, enrollmentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	submission := &models.AssessmentSubmission{
		AssessmentID: assessmentID,
		EnrollmentID: enrollmentID,
	}
	if err := s.Create(ctx, tx, submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.GetByAssessmentAndEnrollment(ctx, tx, assessmentID, enrollmentID)
		}
		return nil, err
	}

	return submission, nil
}

// GetByAssessmentAndEnrollment retrieves the unique submission for the pair
func (s *SubmissionPostgreSQL) GetByAssessmentAndEnrollment(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentSubmission, error) {
	var submission models.AssessmentSubmission
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND enrollment_id = ?", assessmentID, enrollmentID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

// List retrieves submissions matching the filters with a total count
func (s *SubmissionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, int64, error) {
	db := getDB(s.db, tx)
	query := db.WithContext(ctx).Model(&models.AssessmentSubmission{})
	query = s.helpers.ApplySubmissionFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	var submissions []*models.AssessmentSubmission
	query = s.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}

	return submissions, total, nil
}

// GetByAssessment retrieves all submissions for an assessment
func (s *SubmissionPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentSubmission, error) {
	var submissions []*models.AssessmentSubmission
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions by assessment: %w", err)
	}
	return submissions, nil
}

// GetByEnrollment retrieves all submissions of one enrollment
func (s *SubmissionPostgreSQL) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.AssessmentSubmission, error) {
	var submissions []*models.AssessmentSubmission
	err := getDB(s.db, tx).WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions by enrollment: %w", err)
	}
	return submissions, nil
}

// MarkSubmitted flips the submitted flag and stamps the submission time
func (s *SubmissionPostgreSQL) MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(s.db, tx)
	now := time.Now()
	err := db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_submitted": true,
			"submitted_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark submission as submitted: %w", err)
	}
	return nil
}

// ResetSubmitted rolls the submitted flag back after a failed scoring pass,
// keeping the row so the student can retry.
func (s *SubmissionPostgreSQL) ResetSubmitted(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_submitted": false,
			"submitted_at": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset submission flag: %w", err)
	}
	return nil
}

// CountByAssessment counts submissions for an assessment
func (s *SubmissionPostgreSQL) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, submittedOnly bool) (int64, error) {
	db := getDB(s.db, tx)
	query := db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ?", assessmentID)
	if submittedOnly {
		query = query.Where("is_submitted = ?", true)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}
