package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ===== REQUEST TYPES =====
// Request DTOs live in the validator package so the validation tags stay next
// to the rules that interpret them; services re-export them under their
// service-facing names.

type (
	CreateCourseRequest     = validator.CourseCreateRequest
	UpdateCourseRequest     = validator.CourseUpdateRequest
	CreateEnrollmentRequest = validator.EnrollmentCreateRequest

	CreateAssessmentRequest = validator.AssessmentCreateRequest
	UpdateAssessmentRequest = validator.AssessmentUpdateRequest

	CreateMCQQuestionRequest         = validator.MCQQuestionCreateRequest
	CreateHandwrittenQuestionRequest = validator.HandwrittenQuestionCreateRequest
	CreateCodingQuestionRequest      = validator.CodingQuestionCreateRequest

	SubmitAssessmentRequest   = validator.SubmissionRequest
	UpdateHandwrittenFeedback = validator.HandwrittenFeedbackUpdateRequest
)

// HandwrittenUpload is one answer image from a multipart submission,
// keyed by handwritten question ID.
type HandwrittenUpload struct {
	QuestionID uint
	FileName   string
	MimeType   string
	Data       []byte
}

// ===== RESPONSE TYPES =====

type CourseListResponse struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type AssessmentListResponse struct {
	Assessments []*models.Assessment `json:"assessments"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

type EnrollmentListResponse struct {
	Enrollments []*models.Enrollment `json:"enrollments"`
	Total       int64                `json:"total"`
}

// AssessmentQuestionsResponse carries the question set a student sees. Answer
// keys are stripped by the models' JSON tags, never here.
type AssessmentQuestionsResponse struct {
	AssessmentID uint                          `json:"assessment_id"`
	MCQ          []*models.MCQQuestion         `json:"mcq_questions"`
	DynamicMCQ   []*models.DynamicMCQQuestion  `json:"dynamic_mcq_questions"`
	Handwritten  []*models.HandwrittenQuestion `json:"handwritten_questions"`
	Coding       []*models.CodingQuestion      `json:"coding_questions"`
}

// SubmissionResult is the synchronous outcome of a submission: the stored
// submission plus the rolled-up assessment score.
type SubmissionResult struct {
	Submission      *models.AssessmentSubmission `json:"submission"`
	AssessmentScore *models.AssessmentScore      `json:"assessment_score"`
}

// ScoreBreakdown collects every per-question score a student earned on one
// assessment, plus the rollup.
type ScoreBreakdown struct {
	AssessmentID uint                               `json:"assessment_id"`
	EnrollmentID uint                               `json:"enrollment_id"`
	MCQ          []*models.MCQQuestionScore         `json:"mcq_scores"`
	DynamicMCQ   []*models.DynamicMCQQuestionScore  `json:"dynamic_mcq_scores"`
	Handwritten  []*models.HandwrittenQuestionScore `json:"handwritten_scores"`
	Coding       []*models.CodingQuestionScore      `json:"coding_scores"`
	Total        *models.AssessmentScore            `json:"total"`
}

// ===== SERVICE INTERFACES =====

type CourseService interface {
	Create(ctx context.Context, req CreateCourseRequest, teacherID string) (*models.Course, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.Course, error)
	Update(ctx context.Context, id uint, req UpdateCourseRequest, userID string) (*models.Course, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.CourseFilters, userID string) (*CourseListResponse, error)

	Enroll(ctx context.Context, courseID uint, req CreateEnrollmentRequest, userID string) (*models.Enrollment, error)
	Unenroll(ctx context.Context, courseID uint, studentID string, userID string) error
	ListEnrollments(ctx context.Context, courseID uint, userID string) (*EnrollmentListResponse, error)
}

type AssessmentService interface {
	Create(ctx context.Context, courseID uint, req CreateAssessmentRequest, creatorID string) (*models.Assessment, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.Assessment, error)
	GetByIDWithDetails(ctx context.Context, id uint, userID string) (*models.Assessment, error)
	Update(ctx context.Context, id uint, req UpdateAssessmentRequest, userID string) (*models.Assessment, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, filters repositories.AssessmentFilters, userID string) (*AssessmentListResponse, error)
	ListByCourse(ctx context.Context, courseID uint, userID string) (*AssessmentListResponse, error)
}

type QuestionService interface {
	AddMCQ(ctx context.Context, assessmentID uint, req CreateMCQQuestionRequest, userID string) (*models.MCQQuestion, error)
	AddHandwritten(ctx context.Context, assessmentID uint, req CreateHandwrittenQuestionRequest, userID string) (*models.HandwrittenQuestion, error)
	AddCoding(ctx context.Context, assessmentID uint, req CreateCodingQuestionRequest, userID string) (*models.CodingQuestion, error)
	DeleteQuestion(ctx context.Context, assessmentID uint, kind models.QuestionKind, questionID uint, userID string) error

	// GetQuestionsForStudent returns the student's personal question set,
	// generating the dynamic MCQ batch on first access when the assessment
	// has generation enabled.
	GetQuestionsForStudent(ctx context.Context, assessmentID uint, studentID string) (*AssessmentQuestionsResponse, error)

	// GetQuestionsForTeacher returns all static questions including answer
	// keys, for the assessment's owner.
	GetQuestionsForTeacher(ctx context.Context, assessmentID uint, userID string) (*models.Assessment, error)
}

type SubmissionService interface {
	// Submit validates and scores a student's answers in one pass. Re-running
	// a failed submission is safe; re-running a completed one is rejected.
	Submit(ctx context.Context, assessmentID uint, studentID string, req SubmitAssessmentRequest, uploads []HandwrittenUpload) (*SubmissionResult, error)

	GetSubmission(ctx context.Context, assessmentID uint, studentID string) (*models.AssessmentSubmission, error)
	ListByAssessment(ctx context.Context, assessmentID uint, userID string) ([]*models.AssessmentSubmission, error)
}

type ScoreService interface {
	GetBreakdown(ctx context.Context, assessmentID uint, studentID string) (*ScoreBreakdown, error)
	GetAssessmentScores(ctx context.Context, assessmentID uint, userID string) ([]*models.AssessmentScore, error)

	// OverrideHandwrittenScore lets a teacher replace an AI-graded score and
	// feedback; rollups are recomputed.
	OverrideHandwrittenScore(ctx context.Context, scoreID uint, req UpdateHandwrittenFeedback, userID string) (*models.HandwrittenQuestionScore, error)

	// RecomputeAssessmentScore re-aggregates every per-question score for the
	// (assessment, enrollment) pair and publishes the result.
	RecomputeAssessmentScore(ctx context.Context, assessmentID, enrollmentID uint) (*models.AssessmentScore, error)

	// HandleScoreComputed refreshes the enrollment's total after a rollup
	// changed. Wired as the score event consumer.
	HandleScoreComputed(ctx context.Context, assessmentID, enrollmentID uint) error
}

type DashboardService interface {
	GetCourseStats(ctx context.Context, courseID uint, userID string) (*repositories.CourseStats, error)
	GetAssessmentStats(ctx context.Context, assessmentID uint, userID string) (*repositories.AssessmentStats, error)
	GetStudentProgress(ctx context.Context, courseID uint, studentID string, userID string) (*repositories.StudentProgress, error)

	// ExportGradebook renders the course gradebook as an xlsx workbook.
	ExportGradebook(ctx context.Context, courseID uint, userID string) ([]byte, error)
}

// ServiceManager wires the services together and owns their lifecycle.
type ServiceManager interface {
	Course() CourseService
	Assessment() AssessmentService
	Question() QuestionService
	Submission() SubmissionService
	Score() ScoreService
	Dashboard() DashboardService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ===== SHARED HELPERS =====

// requireTeacherOrAdmin gates mutating course/assessment operations.
func requireTeacherOrAdmin(ctx context.Context, users repositories.UserRepository, userID string) error {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return NewExternalServiceError("user directory", err)
	}
	if user == nil {
		return NewNotFoundError("user", userID)
	}
	if user.Role != models.RoleTeacher && user.Role != models.RoleAdmin {
		return NewPermissionError(userID, 0, "course", "manage", "insufficient role permissions")
	}
	return nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
