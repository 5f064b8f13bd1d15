package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

func newCourseService(t *testing.T) (*fakeRepository, CourseService) {
	t.Helper()
	repo := newFakeRepository()
	repo.seedUser("teacher-1", models.RoleTeacher)
	repo.seedUser("student-1", models.RoleStudent)
	service := NewCourseService(repo, nil, newTestLogger(), validator.New())
	return repo, service
}

func TestCourseCreate_StudentsCannotCreate(t *testing.T) {
	_, service := newCourseService(t)

	_, err := service.Create(context.Background(), CreateCourseRequest{
		Title:       "Physics 101",
		Institution: "uni",
	}, "student-1")
	if !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestCourseEnroll(t *testing.T) {
	repo, service := newCourseService(t)
	ctx := context.Background()
	course := repo.seedCourse("teacher-1")

	enrollment, err := service.Enroll(ctx, course.ID, CreateEnrollmentRequest{StudentID: "student-1"}, "teacher-1")
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if enrollment.CourseID != course.ID || enrollment.StudentID != "student-1" {
		t.Errorf("unexpected enrollment %+v", enrollment)
	}

	// Enrolling the same student twice must be rejected.
	if _, err := service.Enroll(ctx, course.ID, CreateEnrollmentRequest{StudentID: "student-1"}, "teacher-1"); !IsDuplicateError(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCourseEnroll_OnlyStudents(t *testing.T) {
	repo, service := newCourseService(t)
	repo.seedUser("teacher-2", models.RoleTeacher)
	course := repo.seedCourse("teacher-1")

	_, err := service.Enroll(context.Background(), course.ID, CreateEnrollmentRequest{StudentID: "teacher-2"}, "teacher-1")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error enrolling a non-student, got %v", err)
	}
}

func TestCourseGetByID_AccessRules(t *testing.T) {
	repo, service := newCourseService(t)
	ctx := context.Background()
	course := repo.seedCourse("teacher-1")
	repo.seedEnrollment(course.ID, "student-1")
	repo.seedUser("student-2", models.RoleStudent)

	if _, err := service.GetByID(ctx, course.ID, "teacher-1"); err != nil {
		t.Errorf("owner read error = %v", err)
	}
	if _, err := service.GetByID(ctx, course.ID, "student-1"); err != nil {
		t.Errorf("enrolled student read error = %v", err)
	}
	if _, err := service.GetByID(ctx, course.ID, "student-2"); !IsPermissionError(err) {
		t.Errorf("expected permission error for outsider, got %v", err)
	}
}

func TestCourseUnenroll(t *testing.T) {
	repo, service := newCourseService(t)
	ctx := context.Background()
	course := repo.seedCourse("teacher-1")
	repo.seedEnrollment(course.ID, "student-1")

	if err := service.Unenroll(ctx, course.ID, "student-1", "teacher-1"); err != nil {
		t.Fatalf("Unenroll() error = %v", err)
	}
	if err := service.Unenroll(ctx, course.ID, "student-1", "teacher-1"); !IsNotFoundError(err) {
		t.Fatalf("expected not-found on second unenroll, got %v", err)
	}
}
