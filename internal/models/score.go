package models

import (
	"time"
)

// Score records are derived, never client-supplied. One row per
// (question, enrollment); repeated grading upserts in place so the retry path
// after a partial fan-out stays idempotent.

type MCQQuestionScore struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	QuestionID   uint   `json:"question_id" gorm:"not null;index;uniqueIndex:idx_mcq_score_question_enrollment,priority:1"`
	EnrollmentID uint   `json:"enrollment_id" gorm:"not null;index;uniqueIndex:idx_mcq_score_question_enrollment,priority:2"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index"`
	SelectedAnswer string `json:"selected_answer" gorm:"not null;size:500"`

	IsCorrect bool    `json:"is_correct" gorm:"not null"`
	Score     float64 `json:"score" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question   MCQQuestion `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Enrollment Enrollment  `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

type DynamicMCQQuestionScore struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	QuestionID   uint   `json:"question_id" gorm:"not null;index;uniqueIndex:idx_dynamic_score_question_enrollment,priority:1"`
	EnrollmentID uint   `json:"enrollment_id" gorm:"not null;index;uniqueIndex:idx_dynamic_score_question_enrollment,priority:2"`
	AssessmentID uint   `json:"assessment_id" gorm:"not null;index"`
	SelectedAnswer string `json:"selected_answer" gorm:"not null;size:500"`

	IsCorrect bool    `json:"is_correct" gorm:"not null"`
	Score     float64 `json:"score" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question   DynamicMCQQuestion `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Enrollment Enrollment         `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

// HandwrittenQuestionScore also carries what the AI evaluator extracted and
// the feedback it produced, plus the stored answer image path.
type HandwrittenQuestionScore struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	QuestionID   uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_handwritten_score_question_enrollment,priority:1"`
	EnrollmentID uint `json:"enrollment_id" gorm:"not null;index;uniqueIndex:idx_handwritten_score_question_enrollment,priority:2"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index"`

	Score         float64 `json:"score" gorm:"not null"`
	Feedback      *string `json:"feedback" gorm:"type:text"`
	ExtractedText *string `json:"extracted_text" gorm:"type:text"`
	ImagePath     string  `json:"image_path" gorm:"not null;size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question   HandwrittenQuestion `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Enrollment Enrollment          `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

type CodingQuestionScore struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	QuestionID   uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_coding_score_question_enrollment,priority:1"`
	EnrollmentID uint `json:"enrollment_id" gorm:"not null;index;uniqueIndex:idx_coding_score_question_enrollment,priority:2"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index"`

	SubmittedCode string  `json:"submitted_code" gorm:"type:text;not null"`
	Passed        bool    `json:"passed" gorm:"not null"`
	Score         float64 `json:"score" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Question   CodingQuestion `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	Enrollment Enrollment     `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

// AssessmentScore is the per-(assessment, enrollment) rollup. TotalScore is
// fully recomputed from the four score tables on every save, never
// incrementally adjusted.
type AssessmentScore struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_assessment_enrollment_score,priority:1"`
	EnrollmentID uint `json:"enrollment_id" gorm:"not null;index;uniqueIndex:idx_assessment_enrollment_score,priority:2"`

	TotalScore float64 `json:"total_score" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Enrollment Enrollment `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

func (MCQQuestionScore) TableName() string {
	return "mcq_question_scores"
}

func (DynamicMCQQuestionScore) TableName() string {
	return "dynamic_mcq_question_scores"
}

func (HandwrittenQuestionScore) TableName() string {
	return "handwritten_question_scores"
}

func (CodingQuestionScore) TableName() string {
	return "coding_question_scores"
}

func (AssessmentScore) TableName() string {
	return "assessment_scores"
}
