package repositories

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"gorm.io/gorm"
)

// AssessmentRepository interface for assessment operations
type AssessmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) // Include all question variants
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters AssessmentFilters) ([]*models.Assessment, int64, error)

	// Grade budget queries
	AssignedGrade(ctx context.Context, tx *gorm.DB, id uint) (float64, error)

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*AssessmentStats, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	BelongsToCourse(ctx context.Context, tx *gorm.DB, id uint, courseID uint) (bool, error)
}
