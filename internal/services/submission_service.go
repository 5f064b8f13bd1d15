package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/ai"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    utils.Logger
	validator *validator.Validator
	ai        ai.Client
	runner    ai.CodeRunner
	storage   storage.Provider
	scores    ScoreService
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger utils.Logger, v *validator.Validator, aiClient ai.Client, runner ai.CodeRunner, store storage.Provider, scores ScoreService) SubmissionService {
	return &submissionService{
		repo:      repo,
		db:        db,
		logger:    logger.With("service", "submission"),
		validator: v,
		ai:        aiClient,
		runner:    runner,
		storage:   store,
		scores:    scores,
	}
}

// Submit runs the whole intake pipeline: validate the answer set against the
// student's question set, claim the submission row, fan out scoring per
// question, then roll up the assessment score. The submission flag is rolled
// back on any scoring failure so the student can retry; a completed
// submission is rejected.
func (s *submissionService) Submit(ctx context.Context, assessmentID uint, studentID string, req SubmitAssessmentRequest, uploads []HandwrittenUpload) (*SubmissionResult, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if assessment.DueDate != nil && time.Now().After(*assessment.DueDate) {
		return nil, NewValidationError("due_date", "the assessment due date has passed", assessment.DueDate)
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, nil, assessment.CourseID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewPermissionError(studentID, assessmentID, "assessment", "submit", "not enrolled in the course")
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	set, err := s.repo.Question().GetQuestionSet(ctx, nil, assessmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question set: %w", err)
	}
	if set.IsEmpty() {
		return nil, NewValidationError("assessment_id", "assessment has no questions to submit against", assessmentID)
	}

	if err := s.validateAnswers(set, req, uploads); err != nil {
		return nil, err
	}

	submission, err := s.repo.Submission().GetOrCreate(ctx, nil, assessmentID, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to open submission: %w", err)
	}
	if submission.IsSubmitted {
		return nil, NewDuplicateError("submission", fmt.Sprintf("assessment %d was already submitted for enrollment %d", assessmentID, enrollment.ID))
	}

	// Claim the row before the fan-out; any failure between here and the
	// committed rollup rolls the flag back so the same student can retry
	// with the same row.
	if err := s.repo.Submission().MarkSubmitted(ctx, nil, submission.ID); err != nil {
		return nil, fmt.Errorf("failed to mark submission: %w", err)
	}

	rollup, err := s.scoreAndStore(ctx, assessment, enrollment, submission, set, req, uploads)
	if err != nil {
		if resetErr := s.repo.Submission().ResetSubmitted(ctx, nil, submission.ID); resetErr != nil {
			s.logger.Error("Failed to roll back submission flag",
				"submission_id", submission.ID, "error", resetErr)
		}
		return nil, err
	}

	s.logger.Info("Submission completed",
		"assessment_id", assessmentID, "enrollment_id", enrollment.ID,
		"submission_id", submission.ID, "total", rollup.TotalScore)

	return &SubmissionResult{Submission: submission, AssessmentScore: rollup}, nil
}

// scoreAndStore is everything that happens after the submission row is
// claimed: the scoring fan-out, persisting the answers on the row, and the
// rollup recompute. It is a single unit so the caller has one failure path
// to roll the claim back on.
func (s *submissionService) scoreAndStore(ctx context.Context, assessment *models.Assessment, enrollment *models.Enrollment, submission *models.AssessmentSubmission, set *repositories.QuestionSet, req SubmitAssessmentRequest, uploads []HandwrittenUpload) (*models.AssessmentScore, error) {
	imagePaths, err := s.scoreAll(ctx, assessment, enrollment, set, req, uploads)
	if err != nil {
		return nil, err
	}

	submission.MCQAnswers = toJSONMap(req.MCQAnswers)
	submission.CodingAnswers = toJSONMap(req.CodingAnswers)
	submission.HandwrittenAnswers = toJSONMap(imagePaths)
	submission.IsSubmitted = true
	now := nowUTC()
	submission.SubmittedAt = &now
	if err := s.repo.Submission().Update(ctx, nil, submission); err != nil {
		return nil, fmt.Errorf("failed to store submission answers: %w", err)
	}

	rollup, err := s.scores.RecomputeAssessmentScore(ctx, assessment.ID, enrollment.ID)
	if err != nil {
		return nil, err
	}
	return rollup, nil
}

func (s *submissionService) GetSubmission(ctx context.Context, assessmentID uint, studentID string) (*models.AssessmentSubmission, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	enrollment, err := s.repo.Enrollment().GetByCourseAndStudent(ctx, nil, assessment.CourseID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("enrollment", fmt.Sprintf("%d/%s", assessment.CourseID, studentID))
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	submission, err := s.repo.Submission().GetByAssessmentAndEnrollment(ctx, nil, assessmentID, enrollment.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("submission", fmt.Sprintf("%d/%d", assessmentID, enrollment.ID))
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) ListByAssessment(ctx context.Context, assessmentID uint, userID string) ([]*models.AssessmentSubmission, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if assessment.CreatedBy != userID {
		isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
		if err != nil {
			return nil, NewExternalServiceError("user directory", err)
		}
		if !isAdmin {
			return nil, NewPermissionError(userID, assessmentID, "assessment", "list submissions of", "not the assessment owner")
		}
	}

	submissions, err := s.repo.Submission().GetByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// ===== VALIDATION =====

// validateAnswers checks the answer set against the student's question set
// before anything is persisted: every choice question answered with one of
// its own options, every handwritten question covered by an upload, every
// coding question covered by non-empty code, and no answer pointing at a
// question that does not exist.
func (s *submissionService) validateAnswers(set *repositories.QuestionSet, req SubmitAssessmentRequest, uploads []HandwrittenUpload) error {
	var errs validator.ValidationErrors

	mcqKeys := make(map[string]bool, len(set.MCQ)+len(set.DynamicMCQ))
	for _, q := range set.MCQ {
		key := formatID(q.ID)
		mcqKeys[key] = true
		errs = append(errs, checkChoiceAnswer(key, q.Options, req.MCQAnswers)...)
	}
	for _, q := range set.DynamicMCQ {
		key := formatID(q.ID)
		mcqKeys[key] = true
		errs = append(errs, checkChoiceAnswer(key, q.Options, req.MCQAnswers)...)
	}
	for key := range req.MCQAnswers {
		if !mcqKeys[key] {
			errs = append(errs, validator.ValidationError{
				Field:   "mcq_answers." + key,
				Message: "no such question in this assessment",
				Value:   key,
			})
		}
	}

	uploadsByQuestion := make(map[uint]HandwrittenUpload, len(uploads))
	for _, u := range uploads {
		uploadsByQuestion[u.QuestionID] = u
	}
	handwrittenIDs := make(map[uint]bool, len(set.Handwritten))
	for _, q := range set.Handwritten {
		handwrittenIDs[q.ID] = true
		if u, ok := uploadsByQuestion[q.ID]; !ok || len(u.Data) == 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "handwritten_answers." + formatID(q.ID),
				Message: "handwritten question requires an answer image",
			})
		}
	}
	for qid := range uploadsByQuestion {
		if !handwrittenIDs[qid] {
			errs = append(errs, validator.ValidationError{
				Field:   "handwritten_answers." + formatID(qid),
				Message: "no such question in this assessment",
				Value:   qid,
			})
		}
	}

	codingKeys := make(map[string]bool, len(set.Coding))
	for _, q := range set.Coding {
		key := formatID(q.ID)
		codingKeys[key] = true
		if code, ok := req.CodingAnswers[key]; !ok || strings.TrimSpace(code) == "" {
			errs = append(errs, validator.ValidationError{
				Field:   "coding_answers." + key,
				Message: "coding question requires submitted code",
			})
		}
	}
	for key := range req.CodingAnswers {
		if !codingKeys[key] {
			errs = append(errs, validator.ValidationError{
				Field:   "coding_answers." + key,
				Message: "no such question in this assessment",
				Value:   key,
			})
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func checkChoiceAnswer(key string, rawOptions datatypes.JSON, answers map[string]string) validator.ValidationErrors {
	selected, ok := answers[key]
	if !ok {
		return validator.ValidationErrors{{
			Field:   "mcq_answers." + key,
			Message: "question must be answered",
		}}
	}

	var options []string
	if err := json.Unmarshal(rawOptions, &options); err != nil {
		return validator.ValidationErrors{{
			Field:   "mcq_answers." + key,
			Message: "question options are unreadable",
		}}
	}

	for _, option := range options {
		if option == selected {
			return nil
		}
	}
	return validator.ValidationErrors{{
		Field:   "mcq_answers." + key,
		Message: "selected answer is not one of the options",
		Value:   selected,
	}}
}

// ===== SCORING FAN-OUT =====

// scoreAll grades every question and upserts its score row. Upserts are keyed
// on (question, enrollment), so a retry after a partial failure overwrites
// instead of duplicating. Returns the stored image path per handwritten
// question.
func (s *submissionService) scoreAll(ctx context.Context, assessment *models.Assessment, enrollment *models.Enrollment, set *repositories.QuestionSet, req SubmitAssessmentRequest, uploads []HandwrittenUpload) (map[string]string, error) {
	for _, q := range set.MCQ {
		selected := req.MCQAnswers[formatID(q.ID)]
		correct := selected == q.AnswerKey
		score := &models.MCQQuestionScore{
			QuestionID:     q.ID,
			EnrollmentID:   enrollment.ID,
			AssessmentID:   assessment.ID,
			SelectedAnswer: selected,
			IsCorrect:      correct,
		}
		if correct {
			score.Score = q.Grade
		}
		if err := s.repo.Score().UpsertMCQScore(ctx, nil, score); err != nil {
			return nil, fmt.Errorf("failed to save MCQ score: %w", err)
		}
	}

	for _, q := range set.DynamicMCQ {
		selected := req.MCQAnswers[formatID(q.ID)]
		correct := selected == q.AnswerKey
		score := &models.DynamicMCQQuestionScore{
			QuestionID:     q.ID,
			EnrollmentID:   enrollment.ID,
			AssessmentID:   assessment.ID,
			SelectedAnswer: selected,
			IsCorrect:      correct,
		}
		if correct {
			score.Score = q.Grade
		}
		if err := s.repo.Score().UpsertDynamicMCQScore(ctx, nil, score); err != nil {
			return nil, fmt.Errorf("failed to save dynamic MCQ score: %w", err)
		}
	}

	uploadsByQuestion := make(map[uint]HandwrittenUpload, len(uploads))
	for _, u := range uploads {
		uploadsByQuestion[u.QuestionID] = u
	}

	imagePaths := make(map[string]string, len(set.Handwritten))
	for _, q := range set.Handwritten {
		upload := uploadsByQuestion[q.ID]

		imagePath := s.answerImagePath(assessment.ID, enrollment.ID, q.ID, upload.FileName)
		if _, err := s.storage.Upload(ctx, imagePath, bytes.NewReader(upload.Data), int64(len(upload.Data)), upload.MimeType); err != nil {
			return nil, NewExternalServiceError("file storage", err)
		}
		imagePaths[formatID(q.ID)] = imagePath

		result, err := s.ai.EvaluateHandwritten(ctx, ai.HandwrittenEval{
			QuestionText: q.Text,
			AnswerKey:    q.AnswerKey,
			Image:        upload.Data,
			MimeType:     upload.MimeType,
			MaxGrade:     q.Grade,
		})
		if err != nil {
			return nil, NewExternalServiceError("handwriting evaluator", err)
		}

		// Evaluator output is untrusted; never persist outside [0, grade].
		graded := result.Score
		if graded < 0 {
			graded = 0
		}
		if graded > q.Grade {
			graded = q.Grade
		}

		score := &models.HandwrittenQuestionScore{
			QuestionID:    q.ID,
			EnrollmentID:  enrollment.ID,
			AssessmentID:  assessment.ID,
			Score:         graded,
			Feedback:      &result.Feedback,
			ExtractedText: &result.ExtractedText,
			ImagePath:     imagePath,
		}
		if err := s.repo.Score().UpsertHandwrittenScore(ctx, nil, score); err != nil {
			return nil, fmt.Errorf("failed to save handwritten score: %w", err)
		}
	}

	for _, q := range set.Coding {
		code := req.CodingAnswers[formatID(q.ID)]

		passed, err := s.runTestCases(ctx, q, code)
		if err != nil {
			return nil, err
		}

		score := &models.CodingQuestionScore{
			QuestionID:    q.ID,
			EnrollmentID:  enrollment.ID,
			AssessmentID:  assessment.ID,
			SubmittedCode: code,
			Passed:        passed,
		}
		if passed {
			score.Score = q.Grade
		}
		if err := s.repo.Score().UpsertCodingScore(ctx, nil, score); err != nil {
			return nil, fmt.Errorf("failed to save coding score: %w", err)
		}
	}

	return imagePaths, nil
}

// runTestCases executes the submission once per test case and compares stdout
// against the expected output, ignoring trailing newlines. All cases must
// pass for the question to count.
func (s *submissionService) runTestCases(ctx context.Context, q *models.CodingQuestion, code string) (bool, error) {
	var testCases []models.CodingTestCase
	if err := json.Unmarshal(q.TestCases, &testCases); err != nil {
		return false, fmt.Errorf("failed to decode test cases for question %d: %w", q.ID, err)
	}

	for i, tc := range testCases {
		result, err := s.runner.RunCode(ctx, ai.CodeRun{
			Language: q.Language,
			Code:     code,
			Stdin:    tc.Stdin,
		})
		if err != nil {
			return false, NewExternalServiceError("code sandbox", err)
		}

		if result.TimedOut || result.ExitCode != 0 {
			s.logger.Debug("Coding test case failed",
				"question_id", q.ID, "case", i, "exit_code", result.ExitCode, "timed_out", result.TimedOut)
			return false, nil
		}
		if strings.TrimRight(result.Stdout, "\n") != strings.TrimRight(tc.ExpectedOutput, "\n") {
			return false, nil
		}
	}

	return true, nil
}

// ===== HELPERS =====

func (s *submissionService) answerImagePath(assessmentID, enrollmentID, questionID uint, fileName string) string {
	ext := path.Ext(fileName)
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("submissions/%d/%d/handwritten_%d%s", assessmentID, enrollmentID, questionID, ext)
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func toJSONMap(values map[string]string) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(values))
	for k, v := range values {
		m[k] = v
	}
	return m
}
