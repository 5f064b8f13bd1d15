package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentSubmission holds one student's answers for one assessment.
// Exactly one row per (assessment, enrollment). IsSubmitted flips to true only
// after validation and the full scoring fan-out succeed; any failure rolls the
// flag back to false and keeps the row for retry.
type AssessmentSubmission struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	AssessmentID uint `json:"assessment_id" gorm:"not null;index;uniqueIndex:idx_assessment_enrollment_submission,priority:1"`
	EnrollmentID uint `json:"enrollment_id" gorm:"not null;index;uniqueIndex:idx_assessment_enrollment_submission,priority:2"`

	// question id -> selected option
	MCQAnswers datatypes.JSONMap `json:"mcq_answers" gorm:"type:jsonb"`
	// question id -> stored image object path
	HandwrittenAnswers datatypes.JSONMap `json:"handwritten_answers" gorm:"type:jsonb"`
	// question id -> submitted source code
	CodingAnswers datatypes.JSONMap `json:"coding_answers" gorm:"type:jsonb"`

	IsSubmitted bool       `json:"is_submitted" gorm:"not null;default:false;index"`
	SubmittedAt *time.Time `json:"submitted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Enrollment Enrollment `json:"enrollment,omitempty" gorm:"foreignKey:EnrollmentID"`
}

func (AssessmentSubmission) TableName() string {
	return "assessment_submissions"
}
