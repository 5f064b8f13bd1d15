package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/ai"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    utils.Logger
	validator *validator.Validator
	ai        ai.Client
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger utils.Logger, v *validator.Validator, aiClient ai.Client) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger.With("service", "question"),
		validator: v,
		ai:        aiClient,
	}
}

// ===== AUTHORING =====

func (s *questionService) AddMCQ(ctx context.Context, assessmentID uint, req CreateMCQQuestionRequest, userID string) (*models.MCQQuestion, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	assessment, err := s.ownedAssessment(ctx, assessmentID, userID)
	if err != nil {
		return nil, err
	}

	if !containsOption(req.Options, req.AnswerKey) {
		return nil, NewValidationError("answer_key", "answer key must be one of the options", req.AnswerKey)
	}

	if err := s.checkGradeBudget(ctx, assessment, req.Grade); err != nil {
		return nil, err
	}

	options, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	question := &models.MCQQuestion{
		AssessmentID: assessmentID,
		Text:         req.Text,
		Options:      options,
		AnswerKey:    req.AnswerKey,
		Grade:        req.Grade,
	}

	if err := s.repo.Question().CreateMCQ(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create MCQ question: %w", err)
	}

	s.logger.Info("MCQ question added", "assessment_id", assessmentID, "question_id", question.ID)
	return question, nil
}

func (s *questionService) AddHandwritten(ctx context.Context, assessmentID uint, req CreateHandwrittenQuestionRequest, userID string) (*models.HandwrittenQuestion, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	assessment, err := s.ownedAssessment(ctx, assessmentID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.checkGradeBudget(ctx, assessment, req.Grade); err != nil {
		return nil, err
	}

	question := &models.HandwrittenQuestion{
		AssessmentID: assessmentID,
		Text:         req.Text,
		AnswerKey:    req.AnswerKey,
		Grade:        req.Grade,
	}

	if err := s.repo.Question().CreateHandwritten(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create handwritten question: %w", err)
	}

	s.logger.Info("Handwritten question added", "assessment_id", assessmentID, "question_id", question.ID)
	return question, nil
}

func (s *questionService) AddCoding(ctx context.Context, assessmentID uint, req CreateCodingQuestionRequest, userID string) (*models.CodingQuestion, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	assessment, err := s.ownedAssessment(ctx, assessmentID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.checkGradeBudget(ctx, assessment, req.Grade); err != nil {
		return nil, err
	}

	testCases, err := json.Marshal(req.TestCases)
	if err != nil {
		return nil, fmt.Errorf("failed to encode test cases: %w", err)
	}

	question := &models.CodingQuestion{
		AssessmentID: assessmentID,
		Text:         req.Text,
		Language:     req.Language,
		TestCases:    testCases,
		Grade:        req.Grade,
	}

	if err := s.repo.Question().CreateCoding(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create coding question: %w", err)
	}

	s.logger.Info("Coding question added", "assessment_id", assessmentID, "question_id", question.ID)
	return question, nil
}

func (s *questionService) DeleteQuestion(ctx context.Context, assessmentID uint, kind models.QuestionKind, questionID uint, userID string) error {
	if _, err := s.ownedAssessment(ctx, assessmentID, userID); err != nil {
		return err
	}

	var err error
	switch kind {
	case models.KindMCQ:
		err = s.repo.Question().DeleteMCQ(ctx, nil, questionID)
	case models.KindHandwritten:
		err = s.repo.Question().DeleteHandwritten(ctx, nil, questionID)
	case models.KindCoding:
		err = s.repo.Question().DeleteCoding(ctx, nil, questionID)
	case models.KindDynamicMCQ:
		return NewValidationError("kind", "generated questions cannot be deleted individually", kind)
	default:
		return NewValidationError("kind", "unknown question kind", kind)
	}

	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("question", questionID)
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "assessment_id", assessmentID, "kind", kind, "question_id", questionID)
	return nil
}

// ===== STUDENT-FACING READS =====

func (s *questionService) GetQuestionsForStudent(ctx context.Context, assessmentID uint, studentID string) (*AssessmentQuestionsResponse, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, assessment.CourseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if !enrolled {
		return nil, NewPermissionError(studentID, assessmentID, "assessment", "read questions of", "not enrolled in the course")
	}

	if err := s.ensureDynamicMCQs(ctx, assessment, studentID); err != nil {
		return nil, err
	}

	set, err := s.repo.Question().GetQuestionSet(ctx, nil, assessmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question set: %w", err)
	}

	return &AssessmentQuestionsResponse{
		AssessmentID: assessmentID,
		MCQ:          set.MCQ,
		DynamicMCQ:   set.DynamicMCQ,
		Handwritten:  set.Handwritten,
		Coding:       set.Coding,
	}, nil
}

func (s *questionService) GetQuestionsForTeacher(ctx context.Context, assessmentID uint, userID string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment with details: %w", err)
	}

	if err := s.requireOwner(ctx, assessment, userID); err != nil {
		return nil, err
	}

	return assessment, nil
}

// ensureDynamicMCQs generates the student's personal question batch on first
// access. A concurrent first access loses the unique-index race and reuses
// the winner's batch.
func (s *questionService) ensureDynamicMCQs(ctx context.Context, assessment *models.Assessment, studentID string) error {
	if assessment.DynamicMCQCount <= 0 || assessment.GenerationContext == nil || *assessment.GenerationContext == "" {
		return nil
	}

	existing, err := s.repo.Question().GetDynamicMCQByAssessmentAndStudent(ctx, nil, assessment.ID, studentID)
	if err != nil {
		return fmt.Errorf("failed to load generated questions: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	s.logger.Info("Generating dynamic MCQs",
		"assessment_id", assessment.ID,
		"student_id", studentID,
		"count", assessment.DynamicMCQCount)

	generated, err := s.ai.GenerateMCQs(ctx, ai.GenerateRequest{
		Material:    *assessment.GenerationContext,
		Count:       assessment.DynamicMCQCount,
		OptionCount: assessment.DynamicMCQOptionCount,
		Difficulty:  string(assessment.DynamicMCQDifficulty),
	})
	if err != nil {
		return NewExternalServiceError("question generator", err)
	}

	questions := make([]*models.DynamicMCQQuestion, 0, len(generated))
	for i, g := range generated {
		options, err := json.Marshal(g.Options)
		if err != nil {
			return fmt.Errorf("failed to encode generated options: %w", err)
		}
		questions = append(questions, &models.DynamicMCQQuestion{
			AssessmentID: assessment.ID,
			StudentID:    studentID,
			Seq:          i + 1,
			Text:         g.Text,
			Options:      options,
			AnswerKey:    g.AnswerKey,
			Grade:        assessment.DynamicMCQGradeEach,
		})
	}

	if err := s.repo.Question().CreateDynamicMCQBatch(ctx, nil, questions); err != nil {
		if repositories.IsDuplicateError(err) {
			s.logger.Warn("Lost generation race, reusing stored batch",
				"assessment_id", assessment.ID, "student_id", studentID)
			return nil
		}
		return fmt.Errorf("failed to store generated questions: %w", err)
	}

	return nil
}

// ===== HELPERS =====

func (s *questionService) ownedAssessment(ctx context.Context, assessmentID uint, userID string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if err := s.requireOwner(ctx, assessment, userID); err != nil {
		return nil, err
	}

	return assessment, nil
}

func (s *questionService) requireOwner(ctx context.Context, assessment *models.Assessment, userID string) error {
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

	return NewPermissionError(userID, assessment.ID, "assessment", "modify questions of", "not the assessment owner")
}

// checkGradeBudget ensures the incoming question's grade still fits under the
// assessment cap, counting the share reserved for generated questions.
func (s *questionService) checkGradeBudget(ctx context.Context, assessment *models.Assessment, incoming float64) error {
	assigned, err := s.repo.Assessment().AssignedGrade(ctx, nil, assessment.ID)
	if err != nil {
		return fmt.Errorf("failed to compute assigned grade: %w", err)
	}

	reserved := float64(assessment.DynamicMCQCount) * assessment.DynamicMCQGradeEach
	if errs := s.validator.ValidateGradeBudget(assessment.Grade, assigned+reserved, incoming); errs.HasErrors() {
		return errs
	}
	return nil
}

func containsOption(options []string, answer string) bool {
	for _, option := range options {
		if option == answer {
			return true
		}
	}
	return false
}
