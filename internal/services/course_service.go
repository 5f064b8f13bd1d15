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

type courseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    utils.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, db *gorm.DB, logger utils.Logger, v *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		db:        db,
		logger:    logger.With("service", "course"),
		validator: v,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, req CreateCourseRequest, teacherID string) (*models.Course, error) {
	s.logger.Info("Creating course", "teacher_id", teacherID, "title", req.Title)

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if err := requireTeacherOrAdmin(ctx, s.repo.User(), teacherID); err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Institution: req.Institution,
		TeacherID:   teacherID,
	}

	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID)
	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, id uint, userID string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", id)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	canAccess, err := s.canAccessCourse(ctx, course, userID)
	if err != nil {
		return nil, err
	}
	if !canAccess {
		return nil, NewPermissionError(userID, id, "course", "read", "not the teacher and not enrolled")
	}

	return course, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req UpdateCourseRequest, userID string) (*models.Course, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", id)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.requireOwner(ctx, course, userID, "update"); err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id, "user_id", userID)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint, userID string) error {
	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("course", id)
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.requireOwner(ctx, course, userID, "delete"); err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "user_id", userID)
	return nil
}

func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, NewExternalServiceError("user directory", err)
	}
	if user == nil {
		return nil, NewNotFoundError("user", userID)
	}

	// Teachers see their own courses unless they filter explicitly; students
	// see the courses they are enrolled in.
	if user.Role == models.RoleTeacher && filters.TeacherID == nil {
		filters.TeacherID = &userID
	}

	courses, total, err := s.repo.Course().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	return &CourseListResponse{
		Courses: courses,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// ===== ENROLLMENT OPERATIONS =====

func (s *courseService) Enroll(ctx context.Context, courseID uint, req CreateEnrollmentRequest, userID string) (*models.Enrollment, error) {
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

	if err := s.requireOwner(ctx, course, userID, "enroll into"); err != nil {
		return nil, err
	}

	student, err := s.repo.User().GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, NewExternalServiceError("user directory", err)
	}
	if student == nil {
		return nil, NewNotFoundError("student", req.StudentID)
	}
	if student.Role != models.RoleStudent {
		return nil, NewValidationError("student_id", "user is not a student", req.StudentID)
	}

	existing, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, nil, courseID, req.StudentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if existing != nil {
		return nil, NewDuplicateError("enrollment", fmt.Sprintf("student %s is already enrolled in course %d", req.StudentID, courseID))
	}

	enrollment := &models.Enrollment{
		CourseID:  courseID,
		StudentID: req.StudentID,
	}

	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, NewDuplicateError("enrollment", fmt.Sprintf("student %s is already enrolled in course %d", req.StudentID, courseID))
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info("Student enrolled", "course_id", courseID, "student_id", req.StudentID)
	return enrollment, nil
}

func (s *courseService) Unenroll(ctx context.Context, courseID uint, studentID string, userID string) error {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("course", courseID)
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.requireOwner(ctx, course, userID, "unenroll from"); err != nil {
		return err
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, nil, courseID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("enrollment", fmt.Sprintf("%d/%s", courseID, studentID))
		}
		return fmt.Errorf("failed to get enrollment: %w", err)
	}
	if enrollment == nil {
		return NewNotFoundError("enrollment", fmt.Sprintf("%d/%s", courseID, studentID))
	}

	if err := s.repo.Enrollment().Delete(ctx, nil, enrollment.ID); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	s.logger.Info("Student unenrolled", "course_id", courseID, "student_id", studentID)
	return nil
}

func (s *courseService) ListEnrollments(ctx context.Context, courseID uint, userID string) (*EnrollmentListResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", courseID)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.requireOwner(ctx, course, userID, "list enrollments of"); err != nil {
		return nil, err
	}

	enrollments, err := s.repo.Enrollment().GetByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return &EnrollmentListResponse{Enrollments: enrollments, Total: int64(len(enrollments))}, nil
}

// ===== HELPERS =====

func (s *courseService) requireOwner(ctx context.Context, course *models.Course, userID, action string) error {
	if course.TeacherID == userID {
		return nil
	}

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return NewExternalServiceError("user directory", err)
	}
	if isAdmin {
		return nil
	}

	return NewPermissionError(userID, course.ID, "course", action, "not the course owner")
}

func (s *courseService) canAccessCourse(ctx context.Context, course *models.Course, userID string) (bool, error) {
	if course.TeacherID == userID {
		return true, nil
	}

	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return false, NewExternalServiceError("user directory", err)
	}
	if isAdmin {
		return true, nil
	}

	enrolled, err := s.repo.Enrollment().IsEnrolled(ctx, nil, course.ID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return enrolled, nil
}
