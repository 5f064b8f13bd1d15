package repositories

import (
	"context"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"gorm.io/gorm"
)

// ScoreRepository interface for per-question scores and rollups.
//
// Every Upsert* is keyed on (question_id, enrollment_id) so that re-grading
// overwrites instead of accumulating rows. UpsertAssessmentScore is keyed on
// (assessment_id, enrollment_id).
type ScoreRepository interface {
	// Per-question upserts
	UpsertMCQScore(ctx context.Context, tx *gorm.DB, score *models.MCQQuestionScore) error
	UpsertDynamicMCQScore(ctx context.Context, tx *gorm.DB, score *models.DynamicMCQQuestionScore) error
	UpsertHandwrittenScore(ctx context.Context, tx *gorm.DB, score *models.HandwrittenQuestionScore) error
	UpsertCodingScore(ctx context.Context, tx *gorm.DB, score *models.CodingQuestionScore) error

	// Per-question reads
	GetMCQScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.MCQQuestionScore, error)
	GetDynamicMCQScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.DynamicMCQQuestionScore, error)
	GetHandwrittenScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.HandwrittenQuestionScore, error)
	GetCodingScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.CodingQuestionScore, error)

	// Rollup inputs: SUM(score) per table for one (assessment, enrollment).
	// LockScorePair must be called inside a transaction; it blocks until no
	// other transaction holds the pair, and releases on commit/rollback.
	LockScorePair(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) error
	SumScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*ScoreSums, error)

	// Assessment rollup
	UpsertAssessmentScore(ctx context.Context, tx *gorm.DB, score *models.AssessmentScore) error
	GetAssessmentScore(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentScore, error)
	GetAssessmentScoresByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentScore, error)
	GetAssessmentScoresByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.AssessmentScore, error)

	// Teacher overrides
	GetHandwrittenScoreByID(ctx context.Context, tx *gorm.DB, scoreID uint) (*models.HandwrittenQuestionScore, error)
	UpdateHandwrittenFeedback(ctx context.Context, tx *gorm.DB, scoreID uint, score float64, feedback *string) error
}
