package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== MCQ OPERATIONS =====

func (q *QuestionPostgreSQL) CreateMCQ(ctx context.Context, tx *gorm.DB, question *models.MCQQuestion) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create MCQ question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

func (q *QuestionPostgreSQL) CreateMCQBatch(ctx context.Context, tx *gorm.DB, questions []*models.MCQQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create MCQ questions: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, questions[0].AssessmentID)

	return nil
}

func (q *QuestionPostgreSQL) GetMCQByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MCQQuestion, error) {
	var question models.MCQQuestion
	err := getDB(q.db, tx).WithContext(ctx).First(&question, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get MCQ question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetMCQByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.MCQQuestion, error) {
	var questions []*models.MCQQuestion
	err := getDB(q.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get MCQ questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) UpdateMCQ(ctx context.Context, tx *gorm.DB, question *models.MCQQuestion) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update MCQ question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

func (q *QuestionPostgreSQL) DeleteMCQ(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(q.db, tx)
	question, err := q.GetMCQByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.MCQQuestion{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete MCQ question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

// ===== DYNAMIC MCQ OPERATIONS =====

func (q *QuestionPostgreSQL) CreateDynamicMCQBatch(ctx context.Context, tx *gorm.DB, questions []*models.DynamicMCQQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create dynamic MCQ questions: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetDynamicMCQByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DynamicMCQQuestion, error) {
	var question models.DynamicMCQQuestion
	err := getDB(q.db, tx).WithContext(ctx).First(&question, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic MCQ question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetDynamicMCQByAssessmentAndStudent(ctx context.Context, tx *gorm.DB, assessmentID uint, studentID string) ([]*models.DynamicMCQQuestion, error) {
	var questions []*models.DynamicMCQQuestion
	err := getDB(q.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND student_id = ?", assessmentID, studentID).
		Order("seq ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic MCQ questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CountDynamicMCQStudents(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error) {
	var count int64
	err := getDB(q.db, tx).WithContext(ctx).
		Model(&models.DynamicMCQQuestion{}).
		Where("assessment_id = ?", assessmentID).
		Distinct("student_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count dynamic MCQ students: %w", err)
	}
	return count, nil
}

func (q *QuestionPostgreSQL) DeleteDynamicMCQByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	db := getDB(q.db, tx)
	err := db.WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Delete(&models.DynamicMCQQuestion{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete dynamic MCQ questions: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, assessmentID)

	return nil
}

// ===== HANDWRITTEN OPERATIONS =====

func (q *QuestionPostgreSQL) CreateHandwritten(ctx context.Context, tx *gorm.DB, question *models.HandwrittenQuestion) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create handwritten question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

func (q *QuestionPostgreSQL) GetHandwrittenByID(ctx context.Context, tx *gorm.DB, id uint) (*models.HandwrittenQuestion, error) {
	var question models.HandwrittenQuestion
	err := getDB(q.db, tx).WithContext(ctx).First(&question, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get handwritten question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetHandwrittenByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.HandwrittenQuestion, error) {
	var questions []*models.HandwrittenQuestion
	err := getDB(q.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get handwritten questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) UpdateHandwritten(ctx context.Context, tx *gorm.DB, question *models.HandwrittenQuestion) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update handwritten question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

func (q *QuestionPostgreSQL) DeleteHandwritten(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(q.db, tx)
	question, err := q.GetHandwrittenByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.HandwrittenQuestion{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete handwritten question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

// ===== CODING OPERATIONS =====

func (q *QuestionPostgreSQL) CreateCoding(ctx context.Context, tx *gorm.DB, question *models.CodingQuestion) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create coding question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

func (q *QuestionPostgreSQL) GetCodingByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CodingQuestion, error) {
	var question models.CodingQuestion
	err := getDB(q.db, tx).WithContext(ctx).First(&question, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get coding question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetCodingByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.CodingQuestion, error) {
	var questions []*models.CodingQuestion
	err := getDB(q.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get coding questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) UpdateCoding(ctx context.Context, tx *gorm.DB, question *models.CodingQuestion) error {
	db := getDB(q.db, tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update coding question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

func (q *QuestionPostgreSQL) DeleteCoding(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(q.db, tx)
	question, err := q.GetCodingByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.CodingQuestion{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete coding question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)

	return nil
}

// ===== CROSS-VARIANT QUERIES =====

// GetQuestionSet loads all question variants of an assessment in one pass,
// with dynamic MCQs restricted to the given student.
func (q *QuestionPostgreSQL) GetQuestionSet(ctx context.Context, tx *gorm.DB, assessmentID uint, studentID string) (*repositories.QuestionSet, error) {
	set := &repositories.QuestionSet{}

	mcq, err := q.GetMCQByAssessment(ctx, tx, assessmentID)
	if err != nil {
		return nil, err
	}
	set.MCQ = mcq

	dynamic, err := q.GetDynamicMCQByAssessmentAndStudent(ctx, tx, assessmentID, studentID)
	if err != nil {
		return nil, err
	}
	set.DynamicMCQ = dynamic

	handwritten, err := q.GetHandwrittenByAssessment(ctx, tx, assessmentID)
	if err != nil {
		return nil, err
	}
	set.Handwritten = handwritten

	coding, err := q.GetCodingByAssessment(ctx, tx, assessmentID)
	if err != nil {
		return nil, err
	}
	set.Coding = coding

	return set, nil
}

// CountByAssessment counts teacher-authored questions across all variants.
// Dynamic MCQ templates count through the assessment's generation context,
// not per-student copies.
func (q *QuestionPostgreSQL) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error) {
	db := getDB(q.db, tx)

	var total int64
	for _, table := range []string{"mcq_questions", "handwritten_questions", "coding_questions"} {
		var count int64
		err := db.WithContext(ctx).Table(table).Where("assessment_id = ?", assessmentID).Count(&count).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count questions in %s: %w", table, err)
		}
		total += count
	}

	return total, nil
}
