package validator

import (
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ===== COURSE REQUESTS =====

type CourseCreateRequest struct {
	Title       string  `json:"title" validate:"required,title"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Institution string  `json:"institution" validate:"required,min=1,max=100"`
}

type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,title"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type EnrollmentCreateRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// ===== ASSESSMENT REQUESTS =====

type AssessmentCreateRequest struct {
	Title             string                `json:"title" validate:"required,title"`
	Description       *string               `json:"description" validate:"omitempty,max=1000"`
	Type              models.AssessmentType `json:"type" validate:"omitempty,oneof=Exam Assignment Quiz"`
	Grade             float64               `json:"grade" validate:"required,gt=0"`
	DueDate           *time.Time            `json:"due_date" validate:"omitempty,future_date"`
	GenerationContext *string               `json:"generation_context" validate:"omitempty"`

	// Dynamic MCQ generation settings; active when GenerationContext is set
	// and DynamicMCQCount > 0.
	DynamicMCQCount       int                    `json:"dynamic_mcq_count" validate:"omitempty,min=0,max=50"`
	DynamicMCQOptionCount int                    `json:"dynamic_mcq_option_count" validate:"omitempty,min=2,max=10"`
	DynamicMCQGradeEach   float64                `json:"dynamic_mcq_grade_each" validate:"omitempty,min=0"`
	DynamicMCQDifficulty  models.DifficultyLevel `json:"dynamic_mcq_difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type AssessmentUpdateRequest struct {
	Title             *string                `json:"title" validate:"omitempty,title"`
	Description       *string                `json:"description" validate:"omitempty,max=1000"`
	Type              *models.AssessmentType `json:"type" validate:"omitempty,oneof=Exam Assignment Quiz"`
	Grade             *float64               `json:"grade" validate:"omitempty,gt=0"`
	DueDate           *time.Time             `json:"due_date" validate:"omitempty,future_date"`
	GenerationContext *string                `json:"generation_context" validate:"omitempty"`
}

// ===== QUESTION REQUESTS =====

type MCQQuestionCreateRequest struct {
	Text      string   `json:"text" validate:"required"`
	Options   []string `json:"options" validate:"required,min=2,max=10,dive,required"`
	AnswerKey string   `json:"answer_key" validate:"required"`
	Grade     float64  `json:"grade" validate:"required,gt=0"`
}

type HandwrittenQuestionCreateRequest struct {
	Text      string  `json:"text" validate:"required"`
	AnswerKey *string `json:"answer_key" validate:"omitempty"`
	Grade     float64 `json:"grade" validate:"required,gt=0"`
}

type CodingQuestionCreateRequest struct {
	Text      string                  `json:"text" validate:"required"`
	Language  string                  `json:"language" validate:"required,sandbox_language"`
	TestCases []models.CodingTestCase `json:"test_cases" validate:"required,min=1"`
	Grade     float64                 `json:"grade" validate:"required,gt=0"`
}

// ===== SUBMISSION REQUESTS =====

// SubmissionRequest carries a student's answers. Handwritten answers travel
// as multipart file uploads next to this JSON part, keyed by question ID.
type SubmissionRequest struct {
	// question id -> selected option text
	MCQAnswers map[string]string `json:"mcq_answers"`
	// question id -> submitted source code
	CodingAnswers map[string]string `json:"coding_answers"`
}

// ===== SCORE REQUESTS =====

type HandwrittenFeedbackUpdateRequest struct {
	Score    float64 `json:"score" validate:"min=0"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}
