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

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create creates a new assessment and invalidates list caches
func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := getDB(a.db, tx)
	if err := db.WithContext(ctx).Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Assessment, fmt.Sprintf("course:%d:*", assessment.CourseID))
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Assessment, "list:*")
	cache.InvalidateCourseCache(ctx, a.cacheManager, assessment.CourseID)

	return nil
}

// GetByID retrieves an assessment by ID with caching
func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var assessment models.Assessment

	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cacheKey, &assessment, cache.AssessmentCacheConfig.TTL, func() (interface{}, error) {
		var dbAssessment models.Assessment
		err := getDB(a.db, tx).WithContext(ctx).First(&dbAssessment, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get assessment: %w", err)
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}

	return &assessment, nil
}

// GetByIDWithDetails retrieves an assessment with all four question variants.
// Answer keys stay server-side; the models strip them from JSON.
func (a *AssessmentPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := getDB(a.db, tx).WithContext(ctx).
		Preload("MCQQuestions").
		Preload("HandwrittenQuestions").
		Preload("CodingQuestions").
		First(&assessment, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment details: %w", err)
	}

	a.calculateComputedFields(&assessment)

	return &assessment, nil
}

// calculateComputedFields fills the gorm:"-" aggregates on an assessment
func (a *AssessmentPostgreSQL) calculateComputedFields(assessment *models.Assessment) {
	assessment.QuestionsCount = len(assessment.MCQQuestions) +
		len(assessment.HandwrittenQuestions) +
		len(assessment.CodingQuestions)

	var assigned float64
	for _, q := range assessment.MCQQuestions {
		assigned += q.Grade
	}
	for _, q := range assessment.HandwrittenQuestions {
		assigned += q.Grade
	}
	for _, q := range assessment.CodingQuestions {
		assigned += q.Grade
	}
	assessment.AssignedGrade = assigned
	assessment.SubmissionCount = len(assessment.Submissions)
}

// Update updates an assessment and invalidates cache
func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := getDB(a.db, tx)
	if err := db.WithContext(ctx).Save(assessment).Error; err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, a.cacheManager, assessment.ID)

	return nil
}

// Delete soft-deletes an assessment
func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(a.db, tx)
	if err := db.WithContext(ctx).Delete(&models.Assessment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, a.cacheManager, id)
	cache.SafeInvalidatePattern(ctx, a.cacheManager.Assessment, "list:*")

	return nil
}

// List retrieves assessments matching the filters with a total count
func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	db := getDB(a.db, tx)
	query := db.WithContext(ctx).Model(&models.Assessment{})
	query = a.helpers.ApplyAssessmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	var assessments []*models.Assessment
	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}

	return assessments, total, nil
}

// GetByCourse retrieves assessments of a course
func (a *AssessmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	filters.CourseID = &courseID
	return a.List(ctx, tx, filters)
}

// GetByCreator retrieves assessments created by one teacher
func (a *AssessmentPostgreSQL) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	filters.CreatedBy = &creatorID
	return a.List(ctx, tx, filters)
}

// AssignedGrade sums the grades of all teacher-authored questions. Dynamic
// MCQs are excluded: they are per-student copies generated inside the same
// budget, not additional budget.
func (a *AssessmentPostgreSQL) AssignedGrade(ctx context.Context, tx *gorm.DB, id uint) (float64, error) {
	db := getDB(a.db, tx)

	var total float64
	for _, table := range []string{"mcq_questions", "handwritten_questions", "coding_questions"} {
		var sum float64
		err := db.WithContext(ctx).
			Table(table).
			Select("COALESCE(SUM(grade), 0)").
			Where("assessment_id = ?", id).
			Scan(&sum).Error
		if err != nil {
			return 0, fmt.Errorf("failed to sum grades in %s: %w", table, err)
		}
		total += sum
	}

	return total, nil
}

// GetStats computes aggregate statistics for one assessment with caching
func (a *AssessmentPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.AssessmentStats, error) {
	cacheKey := fmt.Sprintf("assessment:%d:stats", id)
	var stats repositories.AssessmentStats

	err := a.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		db := getDB(a.db, tx)
		fresh := &repositories.AssessmentStats{}

		subCount, err := a.helpers.CountSubmissions(ctx, id, false)
		if err != nil {
			return nil, err
		}
		fresh.SubmissionCount = int(subCount)

		submittedCount, err := a.helpers.CountSubmissions(ctx, id, true)
		if err != nil {
			return nil, err
		}
		fresh.SubmittedCount = int(submittedCount)

		var scoreAgg struct {
			Avg float64
			Max float64
			Min float64
		}
		err = db.WithContext(ctx).
			Model(&models.AssessmentScore{}).
			Select("COALESCE(AVG(total_score), 0) AS avg, COALESCE(MAX(total_score), 0) AS max, COALESCE(MIN(total_score), 0) AS min").
			Where("assessment_id = ?", id).
			Scan(&scoreAgg).Error
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate assessment scores: %w", err)
		}
		fresh.AverageScore = scoreAgg.Avg
		fresh.MaxScore = scoreAgg.Max
		fresh.MinScore = scoreAgg.Min

		assigned, err := a.AssignedGrade(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		fresh.TotalGrade = assigned

		var questionCount int64
		for _, table := range []string{"mcq_questions", "handwritten_questions", "coding_questions"} {
			var count int64
			if err := db.WithContext(ctx).Table(table).Where("assessment_id = ?", id).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("failed to count questions in %s: %w", table, err)
			}
			questionCount += count
		}
		fresh.QuestionCount = int(questionCount)

		return fresh, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// ExistsByID checks if an assessment exists
func (a *AssessmentPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := getDB(a.db, tx).WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// BelongsToCourse checks if an assessment belongs to a course
func (a *AssessmentPostgreSQL) BelongsToCourse(ctx context.Context, tx *gorm.DB, id uint, courseID uint) (bool, error) {
	var count int64
	err := getDB(a.db, tx).WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ? AND course_id = ?", id, courseID).
		Count(&count).Error
	return count > 0, err
}
