package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type scoreService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    utils.Logger
	validator *validator.Validator
	publisher events.Publisher
}

func NewScoreService(repo repositories.Repository, db *gorm.DB, logger utils.Logger, v *validator.Validator, publisher events.Publisher) ScoreService {
	return &scoreService{
		repo:      repo,
		db:        db,
		logger:    logger.With("service", "score"),
		validator: v,
		publisher: publisher,
	}
}

// ===== READS =====

func (s *scoreService) GetBreakdown(ctx context.Context, assessmentID uint, studentID string) (*ScoreBreakdown, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, nil, assessment.CourseID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("enrollment", fmt.Sprintf("%d/%s", assessment.CourseID, studentID))
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	breakdown := &ScoreBreakdown{
		AssessmentID: assessmentID,
		EnrollmentID: enrollment.ID,
	}

	if breakdown.MCQ, err = s.repo.Score().GetMCQScores(ctx, nil, assessmentID, enrollment.ID); err != nil {
		return nil, fmt.Errorf("failed to get MCQ scores: %w", err)
	}
	if breakdown.DynamicMCQ, err = s.repo.Score().GetDynamicMCQScores(ctx, nil, assessmentID, enrollment.ID); err != nil {
		return nil, fmt.Errorf("failed to get dynamic MCQ scores: %w", err)
	}
	if breakdown.Handwritten, err = s.repo.Score().GetHandwrittenScores(ctx, nil, assessmentID, enrollment.ID); err != nil {
		return nil, fmt.Errorf("failed to get handwritten scores: %w", err)
	}
	if breakdown.Coding, err = s.repo.Score().GetCodingScores(ctx, nil, assessmentID, enrollment.ID); err != nil {
		return nil, fmt.Errorf("failed to get coding scores: %w", err)
	}

	total, err := s.repo.Score().GetAssessmentScore(ctx, nil, assessmentID, enrollment.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get assessment score: %w", err)
	}
	breakdown.Total = total

	return breakdown, nil
}

func (s *scoreService) GetAssessmentScores(ctx context.Context, assessmentID uint, userID string) ([]*models.AssessmentScore, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if err := s.requireOwner(ctx, assessment, userID, "read scores of"); err != nil {
		return nil, err
	}

	scores, err := s.repo.Score().GetAssessmentScoresByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment scores: %w", err)
	}
	return scores, nil
}

// ===== TEACHER OVERRIDES =====

func (s *scoreService) OverrideHandwrittenScore(ctx context.Context, scoreID uint, req UpdateHandwrittenFeedback, userID string) (*models.HandwrittenQuestionScore, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	score, err := s.repo.Score().GetHandwrittenScoreByID(ctx, nil, scoreID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("handwritten score", scoreID)
		}
		return nil, fmt.Errorf("failed to get handwritten score: %w", err)
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, score.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	if err := s.requireOwner(ctx, assessment, userID, "override scores of"); err != nil {
		return nil, err
	}

	if req.Score > score.Question.Grade {
		return nil, NewValidationError("score", fmt.Sprintf("score exceeds the question grade of %v", score.Question.Grade), req.Score)
	}

	if err := s.repo.Score().UpdateHandwrittenFeedback(ctx, nil, scoreID, req.Score, req.Feedback); err != nil {
		return nil, fmt.Errorf("failed to update handwritten score: %w", err)
	}

	if _, err := s.RecomputeAssessmentScore(ctx, score.AssessmentID, score.EnrollmentID); err != nil {
		return nil, err
	}

	score.Score = req.Score
	score.Feedback = req.Feedback

	s.logger.Info("Handwritten score overridden",
		"score_id", scoreID, "assessment_id", score.AssessmentID, "user_id", userID)
	return score, nil
}

// ===== ROLLUPS =====

// RecomputeAssessmentScore re-aggregates the four score tables for one
// (assessment, enrollment) pair inside a transaction and publishes the new
// total. The rollup is always a full recomputation, never an increment.
func (s *scoreService) RecomputeAssessmentScore(ctx context.Context, assessmentID, enrollmentID uint) (*models.AssessmentScore, error) {
	var rollup *models.AssessmentScore

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Serialize concurrent recomputes for the pair before reading the
		// score tables, so the last committed total is never a stale sum.
		if err := txRepo.Score().LockScorePair(ctx, nil, assessmentID, enrollmentID); err != nil {
			return fmt.Errorf("failed to lock score pair: %w", err)
		}

		sums, err := txRepo.Score().SumScores(ctx, nil, assessmentID, enrollmentID)
		if err != nil {
			return fmt.Errorf("failed to sum scores: %w", err)
		}

		rollup = &models.AssessmentScore{
			AssessmentID: assessmentID,
			EnrollmentID: enrollmentID,
			TotalScore:   sums.Total(),
		}
		if err := txRepo.Score().UpsertAssessmentScore(ctx, nil, rollup); err != nil {
			return fmt.Errorf("failed to save assessment score: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.ScoreComputed{
		AssessmentID: assessmentID,
		EnrollmentID: enrollmentID,
		TotalScore:   rollup.TotalScore,
		OccurredAt:   nowUTC(),
	}
	if err := s.publisher.PublishScoreComputed(ctx, event); err != nil {
		// The rollup is committed; the enrollment refresh will catch up on
		// the next score event for this enrollment.
		s.logger.Error("Failed to publish score event",
			"assessment_id", assessmentID, "enrollment_id", enrollmentID, "error", err)
	}

	s.logger.Info("Assessment score recomputed",
		"assessment_id", assessmentID, "enrollment_id", enrollmentID, "total", rollup.TotalScore)
	return rollup, nil
}

// HandleScoreComputed refreshes the enrollment total as the mean of its
// assessment rollups. An enrollment with no rollups averages to 0.
func (s *scoreService) HandleScoreComputed(ctx context.Context, assessmentID, enrollmentID uint) error {
	avg, count, err := s.repo.Enrollment().AverageAssessmentScore(ctx, nil, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to average assessment scores: %w", err)
	}

	if err := s.repo.Enrollment().UpdateTotalScore(ctx, nil, enrollmentID, avg); err != nil {
		return fmt.Errorf("failed to update enrollment total: %w", err)
	}

	s.logger.Info("Enrollment total refreshed",
		"enrollment_id", enrollmentID, "assessment_id", assessmentID,
		"total", avg, "rollups", count)
	return nil
}

func (s *scoreService) requireOwner(ctx context.Context, assessment *models.Assessment, userID, action string) error {
	if assessment.CreatedBy == userID {
		return nil
	}

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return NewExternalServiceError("user directory", err)
	}
	if isAdmin {
		return nil
	}

	return NewPermissionError(userID, assessment.ID, "assessment", action, "not the assessment owner")
}
