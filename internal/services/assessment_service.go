package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type assessmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    utils.Logger
	validator *validator.Validator
}

func NewAssessmentService(repo repositories.Repository, db *gorm.DB, logger utils.Logger, v *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		db:        db,
		logger:    logger.With("service", "assessment"),
		validator: v,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, courseID uint, req CreateAssessmentRequest, creatorID string) (*models.Assessment, error) {
	s.logger.Info("Creating assessment", "course_id", courseID, "creator_id", creatorID, "title", req.Title)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", courseID)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course.TeacherID != creatorID {
		isAdmin, err := s.repo.User().HasRole(ctx, creatorID, models.RoleAdmin)
		if err != nil {
			return nil, NewExternalServiceError("user directory", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(creatorID, courseID, "assessment", "create", "not the course owner")
		}
	}

	assessment := &models.Assessment{
		CourseID:          courseID,
		Title:             req.Title,
		Description:       req.Description,
		Type:              req.Type,
		Grade:             req.Grade,
		DueDate:           req.DueDate,
		GenerationContext: req.GenerationContext,
		CreatedBy:         creatorID,
	}
	if assessment.Type == "" {
		assessment.Type = models.TypeQuiz
	}

	if err := s.applyDynamicMCQSettings(assessment, req); err != nil {
		return nil, err
	}

	if err := s.repo.Assessment().Create(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info("Assessment created", "assessment_id", assessment.ID)
	return assessment, nil
}

func (s *assessmentService) GetByID(ctx context.Context, id uint, userID string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", id)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if err := s.requireAccess(ctx, assessment, userID); err != nil {
		return nil, err
	}

	return assessment, nil
}

func (s *assessmentService) GetByIDWithDetails(ctx context.Context, id uint, userID string) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", id)
		}
		return nil, fmt.Errorf("failed to get assessment with details: %w", err)
	}

	if err := s.requireOwner(ctx, assessment, userID, "read details of"); err != nil {
		return nil, err
	}

	return assessment, nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, req UpdateAssessmentRequest, userID string) (*models.Assessment, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", id)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if err := s.requireOwner(ctx, assessment, userID, "update"); err != nil {
		return nil, err
	}

	if req.Grade != nil && *req.Grade != assessment.Grade {
		assigned, err := s.repo.Assessment().AssignedGrade(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("failed to compute assigned grade: %w", err)
		}
		reserved := assigned + float64(assessment.DynamicMCQCount)*assessment.DynamicMCQGradeEach
		if *req.Grade < reserved {
			return nil, NewValidationError("grade", fmt.Sprintf("grade cap %v is below the %v already assigned to questions", *req.Grade, reserved), *req.Grade)
		}
		assessment.Grade = *req.Grade
	}

	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.Type != nil {
		assessment.Type = *req.Type
	}
	if req.DueDate != nil {
		assessment.DueDate = req.DueDate
	}
	if req.GenerationContext != nil {
		assessment.GenerationContext = req.GenerationContext
	}

	if err := s.repo.Assessment().Update(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	s.logger.Info("Assessment updated", "assessment_id", id, "user_id", userID)
	return assessment, nil
}

func (s *assessmentService) Delete(ctx context.Context, id uint, userID string) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("assessment", id)
		}
		return fmt.Errorf("failed to get assessment: %w", err)
	}

	if err := s.requireOwner(ctx, assessment, userID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Assessment().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	s.logger.Info("Assessment deleted", "assessment_id", id, "user_id", userID)
	return nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters, userID string) (*AssessmentListResponse, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, NewExternalServiceError("user directory", err)
	}
	if user == nil {
		return nil, NewNotFoundError("user", userID)
	}

	if user.Role == models.RoleTeacher && filters.CreatedBy == nil {
		filters.CreatedBy = &userID
	}

	assessments, total, err := s.repo.Assessment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	return &AssessmentListResponse{
		Assessments: assessments,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

func (s *assessmentService) ListByCourse(ctx context.Context, courseID uint, userID string) (*AssessmentListResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", courseID)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if course.TeacherID != userID {
		enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, courseID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
			if err != nil {
				return nil, NewExternalServiceError("user directory", err)
			}
			if !isAdmin {
				return nil, NewPermissionError(userID, courseID, "course", "list assessments of", "not the teacher and not enrolled")
			}
		}
	}

	assessments, total, err := s.repo.Assessment().GetByCourse(ctx, nil, courseID, repositories.AssessmentFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	return &AssessmentListResponse{Assessments: assessments, Total: total}, nil
}

// ===== HELPERS =====

// applyDynamicMCQSettings copies the generation settings and reserves their
// share of the grade cap.
func (s *assessmentService) applyDynamicMCQSettings(assessment *models.Assessment, req CreateAssessmentRequest) error {
	assessment.DynamicMCQCount = req.DynamicMCQCount
	assessment.DynamicMCQOptionCount = req.DynamicMCQOptionCount
	assessment.DynamicMCQGradeEach = req.DynamicMCQGradeEach
	assessment.DynamicMCQDifficulty = req.DynamicMCQDifficulty

	if assessment.DynamicMCQCount == 0 {
		return nil
	}

	if assessment.GenerationContext == nil || *assessment.GenerationContext == "" {
		return NewValidationError("generation_context", "required when dynamic MCQ generation is enabled", nil)
	}
	if assessment.DynamicMCQOptionCount == 0 {
		assessment.DynamicMCQOptionCount = 4
	}
	if assessment.DynamicMCQDifficulty == "" {
		assessment.DynamicMCQDifficulty = models.DifficultyMedium
	}
	if assessment.DynamicMCQGradeEach <= 0 {
		return NewValidationError("dynamic_mcq_grade_each", "must be greater than 0 when dynamic MCQ generation is enabled", assessment.DynamicMCQGradeEach)
	}

	reserved := float64(assessment.DynamicMCQCount) * assessment.DynamicMCQGradeEach
	if reserved > assessment.Grade {
		return NewValidationError("dynamic_mcq_grade_each", "dynamic questions would exceed the assessment grade cap", reserved)
	}

	return nil
}

func (s *assessmentService) requireOwner(ctx context.Context, assessment *models.Assessment, userID, action string) error {
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

func (s *assessmentService) requireAccess(ctx context.Context, assessment *models.Assessment, userID string) error {
	if assessment.CreatedBy == userID {
		return nil
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, assessment.CourseID, userID)
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	if enrolled {
		return nil
	}

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return NewExternalServiceError("user directory", err)
	}
	if isAdmin {
		return nil
	}

	return NewPermissionError(userID, assessment.ID, "assessment", "read", "not owner and not enrolled in the course")
}
