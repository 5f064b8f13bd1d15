package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

func newAssessmentService(t *testing.T) (*fakeRepository, AssessmentService, *models.Course) {
	t.Helper()
	repo := newFakeRepository()
	repo.seedUser("teacher-1", models.RoleTeacher)
	repo.seedUser("student-1", models.RoleStudent)
	course := repo.seedCourse("teacher-1")
	repo.seedEnrollment(course.ID, "student-1")
	service := NewAssessmentService(repo, nil, newTestLogger(), validator.New())
	return repo, service, course
}

func TestAssessmentCreate_Defaults(t *testing.T) {
	_, service, course := newAssessmentService(t)

	created, err := service.Create(context.Background(), course.ID, CreateAssessmentRequest{
		Title: "Midterm",
		Grade: 10,
	}, "teacher-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Type != models.TypeQuiz {
		t.Errorf("Type = %q, want default %q", created.Type, models.TypeQuiz)
	}
	if created.CreatedBy != "teacher-1" {
		t.Errorf("CreatedBy = %q", created.CreatedBy)
	}
}

func TestAssessmentCreate_RequiresCourseOwner(t *testing.T) {
	repo, service, course := newAssessmentService(t)
	repo.seedUser("teacher-2", models.RoleTeacher)

	_, err := service.Create(context.Background(), course.ID, CreateAssessmentRequest{
		Title: "Midterm",
		Grade: 10,
	}, "teacher-2")
	if !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestAssessmentCreate_DynamicSettingsNeedContext(t *testing.T) {
	_, service, course := newAssessmentService(t)

	_, err := service.Create(context.Background(), course.ID, CreateAssessmentRequest{
		Title:               "Midterm",
		Grade:               10,
		DynamicMCQCount:     5,
		DynamicMCQGradeEach: 1,
	}, "teacher-1")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error without generation context, got %v", err)
	}
}

func TestAssessmentCreate_DynamicShareMustFitCap(t *testing.T) {
	_, service, course := newAssessmentService(t)
	material := "material"

	_, err := service.Create(context.Background(), course.ID, CreateAssessmentRequest{
		Title:               "Midterm",
		Grade:               10,
		GenerationContext:   &material,
		DynamicMCQCount:     6,
		DynamicMCQGradeEach: 2, // 12 > cap of 10
	}, "teacher-1")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssessmentUpdate_CapCannotDropBelowAssigned(t *testing.T) {
	repo, service, course := newAssessmentService(t)
	ctx := context.Background()

	assessment := repo.seedAssessment(course.ID, "teacher-1", 10)
	repo.seedMCQ(assessment.ID, "2+2?", []byte(`["3","4"]`), "4", 6)

	lower := 5.0
	_, err := service.Update(ctx, assessment.ID, UpdateAssessmentRequest{Grade: &lower}, "teacher-1")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error lowering cap below assigned grades, got %v", err)
	}

	higher := 12.0
	updated, err := service.Update(ctx, assessment.ID, UpdateAssessmentRequest{Grade: &higher}, "teacher-1")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Grade != 12 {
		t.Errorf("Grade = %v, want 12", updated.Grade)
	}
}

func TestAssessmentGetByID_EnrolledStudentCanRead(t *testing.T) {
	repo, service, course := newAssessmentService(t)
	assessment := repo.seedAssessment(course.ID, "teacher-1", 10)

	if _, err := service.GetByID(context.Background(), assessment.ID, "student-1"); err != nil {
		t.Fatalf("enrolled student read error = %v", err)
	}

	repo.seedUser("student-2", models.RoleStudent)
	if _, err := service.GetByID(context.Background(), assessment.ID, "student-2"); !IsPermissionError(err) {
		t.Fatalf("expected permission error for unenrolled student, got %v", err)
	}
}
