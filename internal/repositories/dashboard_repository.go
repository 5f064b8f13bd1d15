package repositories

import (
	"context"

	"gorm.io/gorm"
)

// DashboardRepository interface for aggregate reads backing the dashboards.
type DashboardRepository interface {
	// Course-level aggregates
	GetCourseStats(ctx context.Context, tx *gorm.DB, courseID uint) (*CourseStats, error)
	GetGradebook(ctx context.Context, tx *gorm.DB, courseID uint) ([]*GradebookRow, error)

	// Assessment-level aggregates
	GetAssessmentStats(ctx context.Context, tx *gorm.DB, assessmentID uint) (*AssessmentStats, error)

	// Student-level aggregates
	GetStudentProgress(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*StudentProgress, error)
	GetStudentProgressByCourse(ctx context.Context, tx *gorm.DB, studentID string) ([]*StudentProgress, error)
}
