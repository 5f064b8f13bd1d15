package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type ScorePostgreSQL struct {
	db *gorm.DB
}

func NewScorePostgreSQL(db *gorm.DB) repositories.ScoreRepository {
	return &ScorePostgreSQL{db: db}
}

// questionEnrollmentConflict is the upsert target shared by all four
// per-question score tables.
var questionEnrollmentConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "question_id"}, {Name: "enrollment_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"selected_answer", "is_correct", "score", "updated_at"}),
}

// ===== PER-QUESTION UPSERTS =====

func (s *ScorePostgreSQL) UpsertMCQScore(ctx context.Context, tx *gorm.DB, score *models.MCQQuestionScore) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Clauses(questionEnrollmentConflict).
		Create(score).Error
	if err != nil {
		return fmt.Errorf("failed to upsert MCQ score: %w", err)
	}
	return nil
}

func (s *ScorePostgreSQL) UpsertDynamicMCQScore(ctx context.Context, tx *gorm.DB, score *models.DynamicMCQQuestionScore) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Clauses(questionEnrollmentConflict).
		Create(score).Error
	if err != nil {
		return fmt.Errorf("failed to upsert dynamic MCQ score: %w", err)
	}
	return nil
}

func (s *ScorePostgreSQL) UpsertHandwrittenScore(ctx context.Context, tx *gorm.DB, score *models.HandwrittenQuestionScore) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "enrollment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "feedback", "extracted_text", "image_path", "updated_at"}),
		}).
		Create(score).Error
	if err != nil {
		return fmt.Errorf("failed to upsert handwritten score: %w", err)
	}
	return nil
}

func (s *ScorePostgreSQL) UpsertCodingScore(ctx context.Context, tx *gorm.DB, score *models.CodingQuestionScore) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "enrollment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"submitted_code", "passed", "score", "updated_at"}),
		}).
		Create(score).Error
	if err != nil {
		return fmt.Errorf("failed to upsert coding score: %w", err)
	}
	return nil
}

// ===== PER-QUESTION READS =====

func (s *ScorePostgreSQL) GetMCQScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.MCQQuestionScore, error) {
	var scores []*models.MCQQuestionScore
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND enrollment_id = ?", assessmentID, enrollmentID).
		Order("question_id ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get MCQ scores: %w", err)
	}
	return scores, nil
}

func (s *ScorePostgreSQL) GetDynamicMCQScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.DynamicMCQQuestionScore, error) {
	var scores []*models.DynamicMCQQuestionScore
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND enrollment_id = ?", assessmentID, enrollmentID).
		Order("question_id ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get dynamic MCQ scores: %w", err)
	}
	return scores, nil
}

func (s *ScorePostgreSQL) GetHandwrittenScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.HandwrittenQuestionScore, error) {
	var scores []*models.HandwrittenQuestionScore
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND enrollment_id = ?", assessmentID, enrollmentID).
		Order("question_id ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get handwritten scores: %w", err)
	}
	return scores, nil
}

func (s *ScorePostgreSQL) GetCodingScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.CodingQuestionScore, error) {
	var scores []*models.CodingQuestionScore
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND enrollment_id = ?", assessmentID, enrollmentID).
		Order("question_id ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get coding scores: %w", err)
	}
	return scores, nil
}

// ===== ROLLUP INPUTS =====

// LockScorePair takes a transaction-scoped advisory lock on one
// (assessment, enrollment) pair. Advisory rather than FOR UPDATE because the
// rollup row may not exist yet on the first recompute, and a row lock cannot
// cover a row that is not there. Released when the transaction ends.
func (s *ScorePostgreSQL) LockScorePair(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?, ?)", int32(assessmentID), int32(enrollmentID)).Error
	if err != nil {
		return fmt.Errorf("failed to lock score pair %d/%d: %w", assessmentID, enrollmentID, err)
	}
	return nil
}

// SumScores computes SUM(score) over each of the four score tables for one
// (assessment, enrollment) pair. Missing rows contribute 0.
func (s *ScorePostgreSQL) SumScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*repositories.ScoreSums, error) {
	db := getDB(s.db, tx)

	sums := &repositories.ScoreSums{}
	targets := []struct {
		table string
		dest  *float64
	}{
		{"mcq_question_scores", &sums.MCQ},
		{"dynamic_mcq_question_scores", &sums.DynamicMCQ},
		{"handwritten_question_scores", &sums.Handwritten},
		{"coding_question_scores", &sums.Coding},
	}

	for _, target := range targets {
		err := db.WithContext(ctx).
			Table(target.table).
			Select("COALESCE(SUM(score), 0)").
			Where("assessment_id = ? AND enrollment_id = ?", assessmentID, enrollmentID).
			Scan(target.dest).Error
		if err != nil {
			return nil, fmt.Errorf("failed to sum scores in %s: %w", target.table, err)
		}
	}

	return sums, nil
}

// ===== ASSESSMENT ROLLUP =====

func (s *ScorePostgreSQL) UpsertAssessmentScore(ctx context.Context, tx *gorm.DB, score *models.AssessmentScore) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "enrollment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_score", "updated_at"}),
		}).
		Create(score).Error
	if err != nil {
		return fmt.Errorf("failed to upsert assessment score: %w", err)
	}
	return nil
}

func (s *ScorePostgreSQL) GetAssessmentScore(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentScore, error) {
	var score models.AssessmentScore
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ? AND enrollment_id = ?", assessmentID, enrollmentID).
		First(&score).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment score: %w", err)
	}
	return &score, nil
}

func (s *ScorePostgreSQL) GetAssessmentScoresByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentScore, error) {
	var scores []*models.AssessmentScore
	err := getDB(s.db, tx).WithContext(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("enrollment_id ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment scores: %w", err)
	}
	return scores, nil
}

func (s *ScorePostgreSQL) GetAssessmentScoresByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.AssessmentScore, error) {
	var scores []*models.AssessmentScore
	err := getDB(s.db, tx).WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("assessment_id ASC").
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment scores by enrollment: %w", err)
	}
	return scores, nil
}

// ===== TEACHER OVERRIDES =====

func (s *ScorePostgreSQL) GetHandwrittenScoreByID(ctx context.Context, tx *gorm.DB, scoreID uint) (*models.HandwrittenQuestionScore, error) {
	var score models.HandwrittenQuestionScore
	err := getDB(s.db, tx).WithContext(ctx).
		Preload("Question").
		First(&score, scoreID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get handwritten score: %w", err)
	}
	return &score, nil
}

// UpdateHandwrittenFeedback lets a teacher override the AI-produced score and
// feedback on a handwritten answer.
func (s *ScorePostgreSQL) UpdateHandwrittenFeedback(ctx context.Context, tx *gorm.DB, scoreID uint, score float64, feedback *string) error {
	db := getDB(s.db, tx)
	err := db.WithContext(ctx).
		Model(&models.HandwrittenQuestionScore{}).
		Where("id = ?", scoreID).
		Updates(map[string]interface{}{
			"score":    score,
			"feedback": feedback,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update handwritten feedback: %w", err)
	}
	return nil
}
