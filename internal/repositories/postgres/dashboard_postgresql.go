package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type DashboardPostgreSQL struct {
	db *gorm.DB
}

func NewDashboardPostgreSQL(db *gorm.DB) repositories.DashboardRepository {
	return &DashboardPostgreSQL{db: db}
}

// GetCourseStats aggregates headline numbers for one course
func (d *DashboardPostgreSQL) GetCourseStats(ctx context.Context, tx *gorm.DB, courseID uint) (*repositories.CourseStats, error) {
	db := getDB(d.db, tx)
	stats := &repositories.CourseStats{}

	var enrollmentCount int64
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&enrollmentCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	stats.EnrollmentCount = int(enrollmentCount)

	var assessmentCount int64
	err = db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("course_id = ?", courseID).
		Count(&assessmentCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count assessments: %w", err)
	}
	stats.AssessmentCount = int(assessmentCount)

	var submissionCount int64
	err = db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Joins("JOIN assessments ON assessments.id = assessment_submissions.assessment_id").
		Where("assessments.course_id = ? AND assessment_submissions.is_submitted = ?", courseID, true).
		Count(&submissionCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	stats.SubmissionCount = int(submissionCount)

	err = db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("COALESCE(AVG(total_score), 0)").
		Where("course_id = ?", courseID).
		Scan(&stats.AverageTotalScore).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average enrollment scores: %w", err)
	}

	return stats, nil
}

// GetGradebook returns one row per (student, assessment score) in a course.
// Student display fields come from the local user projection; callers fill
// gaps from the identity provider when the projection is stale.
func (d *DashboardPostgreSQL) GetGradebook(ctx context.Context, tx *gorm.DB, courseID uint) ([]*repositories.GradebookRow, error) {
	db := getDB(d.db, tx)

	var rows []*repositories.GradebookRow
	err := db.WithContext(ctx).
		Table("assessment_scores").
		Select(`enrollments.student_id AS student_id,
			COALESCE(users.full_name, '') AS student_name,
			COALESCE(users.email, '') AS student_email,
			enrollments.id AS enrollment_id,
			assessments.id AS assessment_id,
			assessments.title AS assessment_title,
			assessment_scores.total_score AS total_score,
			enrollments.total_score AS enrollment_total`).
		Joins("JOIN enrollments ON enrollments.id = assessment_scores.enrollment_id").
		Joins("JOIN assessments ON assessments.id = assessment_scores.assessment_id").
		Joins("LEFT JOIN users ON users.id = enrollments.student_id").
		Where("enrollments.course_id = ?", courseID).
		Order("enrollments.student_id ASC, assessments.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build gradebook: %w", err)
	}

	return rows, nil
}

// GetAssessmentStats aggregates score statistics for one assessment
func (d *DashboardPostgreSQL) GetAssessmentStats(ctx context.Context, tx *gorm.DB, assessmentID uint) (*repositories.AssessmentStats, error) {
	db := getDB(d.db, tx)
	stats := &repositories.AssessmentStats{}

	var submissionCount, submittedCount int64
	err := db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ?", assessmentID).
		Count(&submissionCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	stats.SubmissionCount = int(submissionCount)

	err = db.WithContext(ctx).
		Model(&models.AssessmentSubmission{}).
		Where("assessment_id = ? AND is_submitted = ?", assessmentID, true).
		Count(&submittedCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count submitted submissions: %w", err)
	}
	stats.SubmittedCount = int(submittedCount)

	var scoreAgg struct {
		Avg float64
		Max float64
		Min float64
	}
	err = db.WithContext(ctx).
		Model(&models.AssessmentScore{}).
		Select("COALESCE(AVG(total_score), 0) AS avg, COALESCE(MAX(total_score), 0) AS max, COALESCE(MIN(total_score), 0) AS min").
		Where("assessment_id = ?", assessmentID).
		Scan(&scoreAgg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate assessment scores: %w", err)
	}
	stats.AverageScore = scoreAgg.Avg
	stats.MaxScore = scoreAgg.Max
	stats.MinScore = scoreAgg.Min

	var questionCount int64
	var totalGrade float64
	for _, table := range []string{"mcq_questions", "handwritten_questions", "coding_questions"} {
		var count int64
		if err := db.WithContext(ctx).Table(table).Where("assessment_id = ?", assessmentID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count questions in %s: %w", table, err)
		}
		questionCount += count

		var sum float64
		err := db.WithContext(ctx).
			Table(table).
			Select("COALESCE(SUM(grade), 0)").
			Where("assessment_id = ?", assessmentID).
			Scan(&sum).Error
		if err != nil {
			return nil, fmt.Errorf("failed to sum grades in %s: %w", table, err)
		}
		totalGrade += sum
	}
	stats.QuestionCount = int(questionCount)
	stats.TotalGrade = totalGrade

	return stats, nil
}

// GetStudentProgress assembles per-assessment progress for one enrollment
func (d *DashboardPostgreSQL) GetStudentProgress(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*repositories.StudentProgress, error) {
	db := getDB(d.db, tx)

	var enrollment models.Enrollment
	err := db.WithContext(ctx).
		Preload("Course").
		First(&enrollment, enrollmentID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	progress := &repositories.StudentProgress{
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		CourseTitle:  enrollment.Course.Title,
		TotalScore:   enrollment.TotalScore,
	}

	err = db.WithContext(ctx).
		Table("assessments").
		Select(`assessments.id AS assessment_id,
			assessments.title AS assessment_title,
			assessments.type AS assessment_type,
			assessments.grade AS grade_cap,
			assessment_scores.total_score AS total_score,
			COALESCE(assessment_submissions.is_submitted, false) AS is_submitted`).
		Joins("LEFT JOIN assessment_scores ON assessment_scores.assessment_id = assessments.id AND assessment_scores.enrollment_id = ?", enrollmentID).
		Joins("LEFT JOIN assessment_submissions ON assessment_submissions.assessment_id = assessments.id AND assessment_submissions.enrollment_id = ?", enrollmentID).
		Where("assessments.course_id = ? AND assessments.deleted_at IS NULL", enrollment.CourseID).
		Order("assessments.id ASC").
		Scan(&progress.AssessmentRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build student progress: %w", err)
	}

	return progress, nil
}

// GetStudentProgressByCourse assembles progress across all of one student's enrollments
func (d *DashboardPostgreSQL) GetStudentProgressByCourse(ctx context.Context, tx *gorm.DB, studentID string) ([]*repositories.StudentProgress, error) {
	db := getDB(d.db, tx)

	var enrollments []models.Enrollment
	err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollments: %w", err)
	}

	progresses := make([]*repositories.StudentProgress, 0, len(enrollments))
	for _, enrollment := range enrollments {
		progress, err := d.GetStudentProgress(ctx, tx, enrollment.ID)
		if err != nil {
			return nil, err
		}
		progresses = append(progresses, progress)
	}

	return progresses, nil
}
