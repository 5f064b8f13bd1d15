package postgres

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// getDB returns the transaction DB if provided, otherwise the default DB.
func getDB(fallback, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return fallback
}

// CountEnrollments counts enrollments for a course
func (h *SharedHelpers) CountEnrollments(ctx context.Context, courseID uint) (int64, error) {
	var count int64
	err := h.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// CountSubmissions counts submissions for an assessment
func (h *SharedHelpers) CountSubmissions(ctx context.Context, assessmentID uint, submittedOnly bool) (int64, error) {
	var count int64
	query := h.db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ?", assessmentID)
	if submittedOnly {
		query = query.Where("is_submitted = ?", true)
	}
	err := query.Count(&count).Error
	return count, err
}

// ApplyCourseFilters applies common filters to course queries
func (h *SharedHelpers) ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if filters.Institution != nil {
		query = query.Where("institution = ?", *filters.Institution)
	}
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	return query
}

// ApplyAssessmentFilters applies common filters to assessment queries
func (h *SharedHelpers) ApplyAssessmentFilters(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DueBefore != nil {
		query = query.Where("due_date <= ?", *filters.DueBefore)
	}
	if filters.DueAfter != nil {
		query = query.Where("due_date >= ?", *filters.DueAfter)
	}
	return query
}

// ApplyEnrollmentFilters applies common filters to enrollment queries
func (h *SharedHelpers) ApplyEnrollmentFilters(query *gorm.DB, filters repositories.EnrollmentFilters) *gorm.DB {
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	return query
}

// ApplySubmissionFilters applies common filters to submission queries
func (h *SharedHelpers) ApplySubmissionFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filters.AssessmentID)
	}
	if filters.EnrollmentID != nil {
		query = query.Where("enrollment_id = ?", *filters.EnrollmentID)
	}
	if filters.IsSubmitted != nil {
		query = query.Where("is_submitted = ?", *filters.IsSubmitted)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"id":          true,
		"title":       true,
		"due_date":    true,
		"type":        true,
		"total_score": true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
