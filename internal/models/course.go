package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`

	// Multi-tenancy: every course belongs to one institution
	Institution string `json:"institution" gorm:"not null;index;size:100"`
	TeacherID   string `json:"teacher_id" gorm:"not null;index;size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Assessments []Assessment `json:"assessments,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Teacher     User         `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`

	// Computed fields (not stored)
	EnrollmentCount int `json:"enrollment_count" gorm:"-"`
	AssessmentCount int `json:"assessment_count" gorm:"-"`
}

// Enrollment links a student to a course. TotalScore is a derived rollup:
// the arithmetic mean of all AssessmentScore rows under this enrollment.
type Enrollment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	CourseID  uint   `json:"course_id" gorm:"not null;index;uniqueIndex:idx_course_student"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255;uniqueIndex:idx_course_student"`

	TotalScore float64 `json:"total_score" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Course           Course             `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Student          User               `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	AssessmentScores []AssessmentScore  `json:"assessment_scores,omitempty" gorm:"foreignKey:EnrollmentID"`
	Submissions      []AssessmentSubmission `json:"submissions,omitempty" gorm:"foreignKey:EnrollmentID"`
}

func (Course) TableName() string {
	return "courses"
}

func (Enrollment) TableName() string {
	return "enrollments"
}
