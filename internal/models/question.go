package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionKind discriminates the four question variants. Answer resolution
// happens against a single tagged lookup built from all variants instead of
// probing tables one by one.
type QuestionKind string

const (
	KindMCQ         QuestionKind = "mcq"
	KindDynamicMCQ  QuestionKind = "dynamic_mcq"
	KindHandwritten QuestionKind = "handwritten"
	KindCoding      QuestionKind = "coding"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// MCQQuestion is a teacher-authored multiple-choice question.
// Options is a jsonb []string; AnswerKey must be one of them.
type MCQQuestion struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;index"`
	Text         string         `json:"text" gorm:"type:text;not null" validate:"required"`
	Options      datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	AnswerKey    string         `json:"-" gorm:"not null;size:500"`
	Grade        float64        `json:"grade" gorm:"not null" validate:"required,gt=0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
}

// DynamicMCQQuestion is generated per student on first access, from the
// assessment's generation context.
type DynamicMCQQuestion struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_dynamic_mcq_student,priority:1"`
	StudentID    string         `json:"student_id" gorm:"not null;index;size:255;uniqueIndex:idx_dynamic_mcq_student,priority:2"`
	Seq          int            `json:"seq" gorm:"not null;uniqueIndex:idx_dynamic_mcq_student,priority:3"`
	Text         string         `json:"text" gorm:"type:text;not null"`
	Options      datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	AnswerKey    string         `json:"-" gorm:"not null;size:500"`
	Grade        float64        `json:"grade" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Student    User       `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// HandwrittenQuestion is answered with an uploaded image, graded by the AI
// evaluator against the optional free-text answer key.
type HandwrittenQuestion struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	AssessmentID uint    `json:"assessment_id" gorm:"not null;index"`
	Text         string  `json:"text" gorm:"type:text;not null" validate:"required"`
	AnswerKey    *string `json:"-" gorm:"type:text"`
	Grade        float64 `json:"grade" gorm:"not null" validate:"required,gt=0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
}

// CodingQuestion is graded by running the submission in the sandbox and
// comparing stdout against each test case's expected output.
type CodingQuestion struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;index"`
	Text         string         `json:"text" gorm:"type:text;not null" validate:"required"`
	Language     string         `json:"language" gorm:"not null;size:50" validate:"required"`
	TestCases    datatypes.JSON `json:"test_cases" gorm:"type:jsonb;not null"` // []CodingTestCase
	Grade        float64        `json:"grade" gorm:"not null" validate:"required,gt=0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
}

type CodingTestCase struct {
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

func (MCQQuestion) TableName() string {
	return "mcq_questions"
}

func (DynamicMCQQuestion) TableName() string {
	return "dynamic_mcq_questions"
}

func (HandwrittenQuestion) TableName() string {
	return "handwritten_questions"
}

func (CodingQuestion) TableName() string {
	return "coding_questions"
}
