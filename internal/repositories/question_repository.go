package repositories

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for the four question variants.
//
// Dynamic MCQs are personalized per student, so their reads always carry a
// studentID. The other variants are shared across the enrollment.
type QuestionRepository interface {
	// MCQ operations
	CreateMCQ(ctx context.Context, tx *gorm.DB, question *models.MCQQuestion) error
	CreateMCQBatch(ctx context.Context, tx *gorm.DB, questions []*models.MCQQuestion) error
	GetMCQByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MCQQuestion, error)
	GetMCQByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.MCQQuestion, error)
	UpdateMCQ(ctx context.Context, tx *gorm.DB, question *models.MCQQuestion) error
	DeleteMCQ(ctx context.Context, tx *gorm.DB, id uint) error

	// Dynamic MCQ operations
	CreateDynamicMCQBatch(ctx context.Context, tx *gorm.DB, questions []*models.DynamicMCQQuestion) error
	GetDynamicMCQByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DynamicMCQQuestion, error)
	GetDynamicMCQByAssessmentAndStudent(ctx context.Context, tx *gorm.DB, assessmentID uint, studentID string) ([]*models.DynamicMCQQuestion, error)
	CountDynamicMCQStudents(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error)
	DeleteDynamicMCQByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error

	// Handwritten operations
	CreateHandwritten(ctx context.Context, tx *gorm.DB, question *models.HandwrittenQuestion) error
	GetHandwrittenByID(ctx context.Context, tx *gorm.DB, id uint) (*models.HandwrittenQuestion, error)
	GetHandwrittenByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.HandwrittenQuestion, error)
	UpdateHandwritten(ctx context.Context, tx *gorm.DB, question *models.HandwrittenQuestion) error
	DeleteHandwritten(ctx context.Context, tx *gorm.DB, id uint) error

	// Coding operations
	CreateCoding(ctx context.Context, tx *gorm.DB, question *models.CodingQuestion) error
	GetCodingByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CodingQuestion, error)
	GetCodingByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.CodingQuestion, error)
	UpdateCoding(ctx context.Context, tx *gorm.DB, question *models.CodingQuestion) error
	DeleteCoding(ctx context.Context, tx *gorm.DB, id uint) error

	// Cross-variant queries
	GetQuestionSet(ctx context.Context, tx *gorm.DB, assessmentID uint, studentID string) (*QuestionSet, error)
	CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error)
}
