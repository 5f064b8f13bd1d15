package services

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type dashboardService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger utils.Logger
}

func NewDashboardService(repo repositories.Repository, db *gorm.DB, logger utils.Logger) DashboardService {
	return &dashboardService{
		repo:   repo,
		db:     db,
		logger: logger.With("service", "dashboard"),
	}
}

func (s *dashboardService) GetCourseStats(ctx context.Context, courseID uint, userID string) (*repositories.CourseStats, error) {
	if err := s.requireCourseOwner(ctx, courseID, userID, "read stats of"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Dashboard().GetCourseStats(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course stats: %w", err)
	}
	return stats, nil
}

func (s *dashboardService) GetAssessmentStats(ctx context.Context, assessmentID uint, userID string) (*repositories.AssessmentStats, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if assessment.CreatedBy != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, NewExternalServiceError("user directory", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, assessmentID, "assessment", "read stats of", "not the assessment owner")
		}
	}

	stats, err := s.repo.Dashboard().GetAssessmentStats(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment stats: %w", err)
	}
	return stats, nil
}

func (s *dashboardService) GetStudentProgress(ctx context.Context, courseID uint, studentID string, userID string) (*repositories.StudentProgress, error) {
	// Students read their own progress; the course owner reads anyone's.
	if studentID != userID {
		if err := s.requireCourseOwner(ctx, courseID, userID, "read student progress of"); err != nil {
			return nil, err
		}
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, nil, courseID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("enrollment", fmt.Sprintf("%d/%s", courseID, studentID))
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	progress, err := s.repo.Dashboard().GetStudentProgress(ctx, nil, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student progress: %w", err)
	}
	return progress, nil
}

// ===== GRADEBOOK EXPORT =====

var gradebookHeader = []string{
	"Student ID", "Student Name", "Email",
	"Assessment", "Assessment Score", "Course Total",
}

// ExportGradebook renders the course gradebook as an xlsx workbook, one row
// per (student, assessment) rollup.
func (s *dashboardService) ExportGradebook(ctx context.Context, courseID uint, userID string) ([]byte, error) {
	if err := s.requireCourseOwner(ctx, courseID, userID, "export gradebook of"); err != nil {
		return nil, err
	}

	rows, err := s.repo.Dashboard().GetGradebook(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gradebook: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Gradebook"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range gradebookHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.StudentID,
			row.StudentName,
			row.StudentEmail,
			row.AssessmentTitle,
			row.TotalScore,
			row.EnrollmentTotal,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write gradebook row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Gradebook exported", "course_id", courseID, "rows", len(rows))
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func (s *dashboardService) requireCourseOwner(ctx context.Context, courseID uint, userID, action string) error {
	course, err := s.repo.Course().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("course", courseID)
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

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

	return NewPermissionError(userID, courseID, "course", action, "not the course owner")
}
