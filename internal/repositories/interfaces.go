package repositories

import (
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Institution *string `json:"institution"`
	TeacherID   *string `json:"teacher_id"`
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
	SortBy      string  `json:"sort_by"`    // "created_at", "title"
	SortOrder   string  `json:"sort_order"` // "asc", "desc"
}

type AssessmentFilters struct {
	CourseID  *uint                  `json:"course_id"`
	Type      *models.AssessmentType `json:"type"`
	CreatedBy *string                `json:"created_by"`
	DueBefore *time.Time             `json:"due_before"`
	DueAfter  *time.Time             `json:"due_after"`
	Limit     int                    `json:"limit"`
	Offset    int                    `json:"offset"`
	SortBy    string                 `json:"sort_by"`
	SortOrder string                 `json:"sort_order"`
}

type EnrollmentFilters struct {
	CourseID  *uint   `json:"course_id"`
	StudentID *string `json:"student_id"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

type SubmissionFilters struct {
	AssessmentID *uint `json:"assessment_id"`
	EnrollmentID *uint `json:"enrollment_id"`
	IsSubmitted  *bool `json:"is_submitted"`
	Limit        int   `json:"limit"`
	Offset       int   `json:"offset"`
}

type QuestionFilters struct {
	Kind       *models.QuestionKind    `json:"kind"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`
	SortOrder  string                  `json:"sort_order"`
}

type UserFilters struct {
	Query  string // Search query for name or email
	Limit  int    // Page size
	Offset int    // Offset for pagination
}

// ===== SHARED HELPER STRUCTS =====

// QuestionSet is every gradable question of one assessment, dynamic MCQs
// scoped to a single student. Resolution against answers happens through
// a tagged lookup built from this set.
type QuestionSet struct {
	MCQ         []*models.MCQQuestion
	DynamicMCQ  []*models.DynamicMCQQuestion
	Handwritten []*models.HandwrittenQuestion
	Coding      []*models.CodingQuestion
}

// IsEmpty reports whether the assessment has no questions of any kind.
func (qs QuestionSet) IsEmpty() bool {
	return len(qs.MCQ) == 0 && len(qs.DynamicMCQ) == 0 &&
		len(qs.Handwritten) == 0 && len(qs.Coding) == 0
}

// ScoreSums carries the per-table sums for one (assessment, enrollment) pair.
type ScoreSums struct {
	MCQ         float64 `json:"mcq"`
	DynamicMCQ  float64 `json:"dynamic_mcq"`
	Handwritten float64 `json:"handwritten"`
	Coding      float64 `json:"coding"`
}

// Total is the assessment rollup value.
func (s ScoreSums) Total() float64 {
	return s.MCQ + s.DynamicMCQ + s.Handwritten + s.Coding
}

// ===== SHARED STATISTICS STRUCTS =====

type CourseStats struct {
	EnrollmentCount   int     `json:"enrollment_count"`
	AssessmentCount   int     `json:"assessment_count"`
	SubmissionCount   int     `json:"submission_count"`
	AverageTotalScore float64 `json:"average_total_score"`
}

type AssessmentStats struct {
	SubmissionCount int     `json:"submission_count"`
	SubmittedCount  int     `json:"submitted_count"`
	AverageScore    float64 `json:"average_score"`
	MaxScore        float64 `json:"max_score"`
	MinScore        float64 `json:"min_score"`
	QuestionCount   int     `json:"question_count"`
	TotalGrade      float64 `json:"total_grade"`
}

type StudentProgress struct {
	EnrollmentID   uint                   `json:"enrollment_id"`
	CourseID       uint                   `json:"course_id"`
	CourseTitle    string                 `json:"course_title"`
	TotalScore     float64                `json:"total_score"`
	AssessmentRows []StudentAssessmentRow `json:"assessments"`
}

type StudentAssessmentRow struct {
	AssessmentID    uint                  `json:"assessment_id"`
	AssessmentTitle string                `json:"assessment_title"`
	AssessmentType  models.AssessmentType `json:"assessment_type"`
	GradeCap        float64               `json:"grade_cap"`
	TotalScore      *float64              `json:"total_score"` // nil when not yet scored
	IsSubmitted     bool                  `json:"is_submitted"`
}

// GradebookRow is one line of the course gradebook export.
type GradebookRow struct {
	StudentID       string  `json:"student_id"`
	StudentName     string  `json:"student_name"`
	StudentEmail    string  `json:"student_email"`
	EnrollmentID    uint    `json:"enrollment_id"`
	AssessmentID    uint    `json:"assessment_id"`
	AssessmentTitle string  `json:"assessment_title"`
	TotalScore      float64 `json:"total_score"`
	EnrollmentTotal float64 `json:"enrollment_total"`
}
