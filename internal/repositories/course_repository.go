package repositories

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"gorm.io/gorm"
)

// CourseRepository interface for course operations
type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) // Include enrollments, assessments
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters CourseFilters) ([]*models.Course, int64, error)
	GetByInstitution(ctx context.Context, tx *gorm.DB, institution string, filters CourseFilters) ([]*models.Course, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	IsOwnedBy(ctx context.Context, tx *gorm.DB, id uint, teacherID string) (bool, error)
}

// EnrollmentRepository interface for enrollment operations
type EnrollmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error)
	GetByCourseAndStudent(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (*models.Enrollment, error)

	// Rollup operations
	UpdateTotalScore(ctx context.Context, tx *gorm.DB, id uint, totalScore float64) error
	AverageAssessmentScore(ctx context.Context, tx *gorm.DB, id uint) (float64, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	IsEnrolled(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (bool, error)
}
