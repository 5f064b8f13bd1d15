package models

import (
	"time"

	"gorm.io/gorm"
)

type AssessmentType string

const (
	TypeExam       AssessmentType = "Exam"
	TypeAssignment AssessmentType = "Assignment"
	TypeQuiz       AssessmentType = "Quiz"
)

type Assessment struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CourseID    uint           `json:"course_id" gorm:"not null;index"`
	Title       string         `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string        `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Type        AssessmentType `json:"type" gorm:"not null;default:Quiz;index" validate:"omitempty,oneof=Exam Assignment Quiz"`

	// Grade is the cap for this assessment: the sum of its questions' grades
	// must not exceed it.
	Grade   float64    `json:"grade" gorm:"not null" validate:"required,gt=0"`
	DueDate *time.Time `json:"due_date"`

	// Source material dynamic MCQs are generated from. When set together
	// with a positive DynamicMCQCount, each student gets a personal batch of
	// generated questions on first access.
	GenerationContext     *string         `json:"generation_context,omitempty" gorm:"type:text"`
	DynamicMCQCount       int             `json:"dynamic_mcq_count" gorm:"not null;default:0"`
	DynamicMCQOptionCount int             `json:"dynamic_mcq_option_count" gorm:"not null;default:4"`
	DynamicMCQGradeEach   float64         `json:"dynamic_mcq_grade_each" gorm:"not null;default:0"`
	DynamicMCQDifficulty  DifficultyLevel `json:"dynamic_mcq_difficulty" gorm:"size:20;default:medium"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Course               Course                 `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	MCQQuestions         []MCQQuestion          `json:"mcq_questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	DynamicMCQQuestions  []DynamicMCQQuestion   `json:"dynamic_mcq_questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	HandwrittenQuestions []HandwrittenQuestion  `json:"handwritten_questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	CodingQuestions      []CodingQuestion       `json:"coding_questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Submissions          []AssessmentSubmission `json:"submissions,omitempty" gorm:"foreignKey:AssessmentID"`
	Creator              User                   `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount  int     `json:"questions_count" gorm:"-"`
	AssignedGrade   float64 `json:"assigned_grade" gorm:"-"` // sum of question grades so far
	SubmissionCount int     `json:"submission_count" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}
