package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/SAP-F-2025/lms-service/internal/ai"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type questionFixture struct {
	repo       *fakeRepository
	aiClient   *fakeAIClient
	service    QuestionService
	course     *models.Course
	assessment *models.Assessment
}

func newQuestionFixture(t *testing.T) *questionFixture {
	t.Helper()

	repo := newFakeRepository()
	repo.seedUser("teacher-1", models.RoleTeacher)
	repo.seedUser("student-1", models.RoleStudent)
	course := repo.seedCourse("teacher-1")
	repo.seedEnrollment(course.ID, "student-1")
	assessment := repo.seedAssessment(course.ID, "teacher-1", 10)

	aiClient := &fakeAIClient{generated: []ai.GeneratedMCQ{
		{Text: "Gen 1", Options: []string{"a", "b", "c", "d"}, AnswerKey: "b"},
		{Text: "Gen 2", Options: []string{"e", "f", "g", "h"}, AnswerKey: "h"},
	}}
	service := NewQuestionService(repo, nil, newTestLogger(), validator.New(), aiClient)

	return &questionFixture{
		repo:       repo,
		aiClient:   aiClient,
		service:    service,
		course:     course,
		assessment: assessment,
	}
}

func enableGeneration(assessment *models.Assessment, count int, gradeEach float64) {
	material := "study material about gravity"
	assessment.GenerationContext = &material
	assessment.DynamicMCQCount = count
	assessment.DynamicMCQGradeEach = gradeEach
}

func TestGetQuestionsForStudent_GeneratesOnFirstAccess(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()
	enableGeneration(f.assessment, 2, 1.5)

	resp, err := f.service.GetQuestionsForStudent(ctx, f.assessment.ID, "student-1")
	if err != nil {
		t.Fatalf("GetQuestionsForStudent() error = %v", err)
	}
	if len(resp.DynamicMCQ) != 2 {
		t.Fatalf("generated questions = %d, want 2", len(resp.DynamicMCQ))
	}
	for i, q := range resp.DynamicMCQ {
		if q.Seq != i+1 {
			t.Errorf("question %d Seq = %d, want %d", i, q.Seq, i+1)
		}
		if q.Grade != 1.5 {
			t.Errorf("question %d Grade = %v, want 1.5", i, q.Grade)
		}
		if q.StudentID != "student-1" {
			t.Errorf("question %d StudentID = %q", i, q.StudentID)
		}
	}
	if f.aiClient.calls() != 1 {
		t.Errorf("generator calls = %d, want 1", f.aiClient.calls())
	}
}

func TestGetQuestionsForStudent_ReusesStoredBatch(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()
	enableGeneration(f.assessment, 2, 1)

	first, err := f.service.GetQuestionsForStudent(ctx, f.assessment.ID, "student-1")
	if err != nil {
		t.Fatalf("first access error = %v", err)
	}
	second, err := f.service.GetQuestionsForStudent(ctx, f.assessment.ID, "student-1")
	if err != nil {
		t.Fatalf("second access error = %v", err)
	}

	if f.aiClient.calls() != 1 {
		t.Errorf("generator calls = %d, want 1 (batch must be reused)", f.aiClient.calls())
	}
	if len(first.DynamicMCQ) != len(second.DynamicMCQ) {
		t.Fatalf("batch size changed between accesses: %d vs %d", len(first.DynamicMCQ), len(second.DynamicMCQ))
	}
	for i := range first.DynamicMCQ {
		if first.DynamicMCQ[i].ID != second.DynamicMCQ[i].ID {
			t.Errorf("question %d changed identity between accesses", i)
		}
	}
}

func TestGetQuestionsForStudent_PersonalBatches(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()
	enableGeneration(f.assessment, 2, 1)
	f.repo.seedUser("student-2", models.RoleStudent)
	f.repo.seedEnrollment(f.course.ID, "student-2")

	if _, err := f.service.GetQuestionsForStudent(ctx, f.assessment.ID, "student-1"); err != nil {
		t.Fatalf("student-1 access error = %v", err)
	}
	if _, err := f.service.GetQuestionsForStudent(ctx, f.assessment.ID, "student-2"); err != nil {
		t.Fatalf("student-2 access error = %v", err)
	}

	if f.aiClient.calls() != 2 {
		t.Errorf("generator calls = %d, want one per student", f.aiClient.calls())
	}
}

func TestGetQuestionsForStudent_GeneratorFailure(t *testing.T) {
	f := newQuestionFixture(t)
	enableGeneration(f.assessment, 2, 1)
	f.aiClient.generateErr = fmt.Errorf("model overloaded")

	_, err := f.service.GetQuestionsForStudent(context.Background(), f.assessment.ID, "student-1")
	if !IsExternalServiceError(err) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestGetQuestionsForStudent_NotEnrolled(t *testing.T) {
	f := newQuestionFixture(t)
	f.repo.seedUser("student-9", models.RoleStudent)

	_, err := f.service.GetQuestionsForStudent(context.Background(), f.assessment.ID, "student-9")
	if !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestAddMCQ_GradeBudgetEnforced(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()

	req := CreateMCQQuestionRequest{
		Text:      "2+2?",
		Options:   []string{"3", "4"},
		AnswerKey: "4",
		Grade:     6,
	}
	if _, err := f.service.AddMCQ(ctx, f.assessment.ID, req, "teacher-1"); err != nil {
		t.Fatalf("first AddMCQ() error = %v", err)
	}

	// 6 of 10 are spent; another 6 must not fit.
	_, err := f.service.AddMCQ(ctx, f.assessment.ID, req, "teacher-1")
	if err == nil {
		t.Fatal("expected grade budget rejection")
	}
	errs := asValidationErrors(t, err)
	if !errs.HasErrors() {
		t.Fatal("expected validation errors")
	}
}

func TestAddMCQ_BudgetCountsDynamicReservation(t *testing.T) {
	f := newQuestionFixture(t)
	enableGeneration(f.assessment, 4, 2) // reserves 8 of 10

	req := CreateMCQQuestionRequest{
		Text:      "2+2?",
		Options:   []string{"3", "4"},
		AnswerKey: "4",
		Grade:     3,
	}
	if _, err := f.service.AddMCQ(context.Background(), f.assessment.ID, req, "teacher-1"); err == nil {
		t.Fatal("expected rejection: static grade plus reserved dynamic share exceeds the cap")
	}
}

func TestAddMCQ_AnswerKeyMustBeAnOption(t *testing.T) {
	f := newQuestionFixture(t)

	req := CreateMCQQuestionRequest{
		Text:      "2+2?",
		Options:   []string{"3", "4"},
		AnswerKey: "5",
		Grade:     2,
	}
	_, err := f.service.AddMCQ(context.Background(), f.assessment.ID, req, "teacher-1")
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddQuestion_RequiresOwner(t *testing.T) {
	f := newQuestionFixture(t)
	f.repo.seedUser("teacher-2", models.RoleTeacher)

	req := CreateMCQQuestionRequest{
		Text:      "2+2?",
		Options:   []string{"3", "4"},
		AnswerKey: "4",
		Grade:     2,
	}
	_, err := f.service.AddMCQ(context.Background(), f.assessment.ID, req, "teacher-2")
	if !IsPermissionError(err) {
		t.Fatalf("expected permission error, got %v", err)
	}
}
