package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/ai"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

func newTestLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeStore is an in-memory stand-in for the Postgres repositories. It keeps
// the same not-found and duplicate-key semantics the real ones surface.
type fakeStore struct {
	mu     sync.Mutex
	nextID uint

	courses     map[uint]*models.Course
	enrollments map[uint]*models.Enrollment
	assessments map[uint]*models.Assessment

	mcqQuestions         map[uint]*models.MCQQuestion
	dynamicQuestions     map[uint]*models.DynamicMCQQuestion
	handwrittenQuestions map[uint]*models.HandwrittenQuestion
	codingQuestions      map[uint]*models.CodingQuestion

	submissions map[uint]*models.AssessmentSubmission

	mcqScores         map[string]*models.MCQQuestionScore
	dynamicScores     map[string]*models.DynamicMCQQuestionScore
	handwrittenScores map[string]*models.HandwrittenQuestionScore
	codingScores      map[string]*models.CodingQuestionScore
	assessmentScores  map[string]*models.AssessmentScore

	// ordered log of rollup operations, for asserting lock discipline
	rollupOps []string

	users map[string]*models.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		courses:              make(map[uint]*models.Course),
		enrollments:          make(map[uint]*models.Enrollment),
		assessments:          make(map[uint]*models.Assessment),
		mcqQuestions:         make(map[uint]*models.MCQQuestion),
		dynamicQuestions:     make(map[uint]*models.DynamicMCQQuestion),
		handwrittenQuestions: make(map[uint]*models.HandwrittenQuestion),
		codingQuestions:      make(map[uint]*models.CodingQuestion),
		submissions:          make(map[uint]*models.AssessmentSubmission),
		mcqScores:            make(map[string]*models.MCQQuestionScore),
		dynamicScores:        make(map[string]*models.DynamicMCQQuestionScore),
		handwrittenScores:    make(map[string]*models.HandwrittenQuestionScore),
		codingScores:         make(map[string]*models.CodingQuestionScore),
		assessmentScores:     make(map[string]*models.AssessmentScore),
		users:                make(map[string]*models.User),
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func scoreKey(a, b uint) string {
	return fmt.Sprintf("%d/%d", a, b)
}

// fakeRepository implements repositories.Repository over a fakeStore.
type fakeRepository struct {
	store *fakeStore
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{store: newFakeStore()}
}

func (r *fakeRepository) Course() repositories.CourseRepository         { return &fakeCourseRepo{r.store} }
func (r *fakeRepository) Enrollment() repositories.EnrollmentRepository { return &fakeEnrollmentRepo{r.store} }
func (r *fakeRepository) Assessment() repositories.AssessmentRepository { return &fakeAssessmentRepo{r.store} }
func (r *fakeRepository) Question() repositories.QuestionRepository     { return &fakeQuestionRepo{r.store} }
func (r *fakeRepository) Submission() repositories.SubmissionRepository { return &fakeSubmissionRepo{r.store} }
func (r *fakeRepository) Score() repositories.ScoreRepository           { return &fakeScoreRepo{r.store} }
func (r *fakeRepository) User() repositories.UserRepository             { return &fakeUserRepo{r.store} }
func (r *fakeRepository) Dashboard() repositories.DashboardRepository   { return &fakeDashboardRepo{r.store} }

func (r *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *fakeRepository) Ping(ctx context.Context) error { return nil }
func (r *fakeRepository) Close() error                   { return nil }

// ===== SEED HELPERS =====

func (r *fakeRepository) seedUser(id string, role models.UserRole) *models.User {
	user := &models.User{ID: id, FullName: id, Email: id + "@example.com", Role: role}
	r.store.users[id] = user
	return user
}

func (r *fakeRepository) seedCourse(teacherID string) *models.Course {
	course := &models.Course{ID: r.store.id(), Title: "Course", Institution: "inst", TeacherID: teacherID}
	r.store.courses[course.ID] = course
	return course
}

func (r *fakeRepository) seedEnrollment(courseID uint, studentID string) *models.Enrollment {
	enrollment := &models.Enrollment{ID: r.store.id(), CourseID: courseID, StudentID: studentID}
	r.store.enrollments[enrollment.ID] = enrollment
	return enrollment
}

func (r *fakeRepository) seedAssessment(courseID uint, createdBy string, grade float64) *models.Assessment {
	assessment := &models.Assessment{
		ID:                    r.store.id(),
		CourseID:              courseID,
		Title:                 "Assessment",
		Type:                  models.TypeQuiz,
		Grade:                 grade,
		DynamicMCQOptionCount: 4,
		DynamicMCQDifficulty:  models.DifficultyMedium,
		CreatedBy:             createdBy,
	}
	r.store.assessments[assessment.ID] = assessment
	return assessment
}

func (r *fakeRepository) seedMCQ(assessmentID uint, text string, options []byte, answer string, grade float64) *models.MCQQuestion {
	q := &models.MCQQuestion{
		ID:           r.store.id(),
		AssessmentID: assessmentID,
		Text:         text,
		Options:      options,
		AnswerKey:    answer,
		Grade:        grade,
	}
	r.store.mcqQuestions[q.ID] = q
	return q
}

func (r *fakeRepository) seedHandwritten(assessmentID uint, text string, grade float64) *models.HandwrittenQuestion {
	q := &models.HandwrittenQuestion{
		ID:           r.store.id(),
		AssessmentID: assessmentID,
		Text:         text,
		Grade:        grade,
	}
	r.store.handwrittenQuestions[q.ID] = q
	return q
}

func (r *fakeRepository) seedCoding(assessmentID uint, text, language string, testCases []byte, grade float64) *models.CodingQuestion {
	q := &models.CodingQuestion{
		ID:           r.store.id(),
		AssessmentID: assessmentID,
		Text:         text,
		Language:     language,
		TestCases:    testCases,
		Grade:        grade,
	}
	r.store.codingQuestions[q.ID] = q
	return q
}

// ===== COURSE =====

type fakeCourseRepo struct{ s *fakeStore }

func (f *fakeCourseRepo) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	course.ID = f.s.id()
	f.s.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	course, ok := f.s.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeCourseRepo) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.courses, id)
	return nil
}

func (f *fakeCourseRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Course
	for _, c := range f.s.courses {
		if filters.TeacherID != nil && c.TeacherID != *filters.TeacherID {
			continue
		}
		if filters.Institution != nil && c.Institution != *filters.Institution {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeCourseRepo) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.TeacherID = &teacherID
	return f.List(ctx, tx, filters)
}

func (f *fakeCourseRepo) GetByInstitution(ctx context.Context, tx *gorm.DB, institution string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.Institution = &institution
	return f.List(ctx, tx, filters)
}

func (f *fakeCourseRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.courses[id]
	return ok, nil
}

func (f *fakeCourseRepo) IsOwnedBy(ctx context.Context, tx *gorm.DB, id uint, teacherID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	course, ok := f.s.courses[id]
	return ok && course.TeacherID == teacherID, nil
}

// ===== ENROLLMENT =====

type fakeEnrollmentRepo struct{ s *fakeStore }

func (f *fakeEnrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, e := range f.s.enrollments {
		if e.CourseID == enrollment.CourseID && e.StudentID == enrollment.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = f.s.id()
	f.s.enrollments[enrollment.ID] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	enrollment, ok := f.s.enrollments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (f *fakeEnrollmentRepo) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.enrollments[enrollment.ID] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.enrollments, id)
	return nil
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range f.s.enrollments {
		if filters.CourseID != nil && e.CourseID != *filters.CourseID {
			continue
		}
		if filters.StudentID != nil && e.StudentID != *filters.StudentID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeEnrollmentRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error) {
	out, _, err := f.List(ctx, tx, repositories.EnrollmentFilters{CourseID: &courseID})
	return out, err
}

func (f *fakeEnrollmentRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error) {
	out, _, err := f.List(ctx, tx, repositories.EnrollmentFilters{StudentID: &studentID})
	return out, err
}

func (f *fakeEnrollmentRepo) GetByCourseAndStudent(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (*models.Enrollment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, e := range f.s.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) UpdateTotalScore(ctx context.Context, tx *gorm.DB, id uint, totalScore float64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	enrollment, ok := f.s.enrollments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	enrollment.TotalScore = totalScore
	return nil
}

func (f *fakeEnrollmentRepo) AverageAssessmentScore(ctx context.Context, tx *gorm.DB, id uint) (float64, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var sum float64
	var count int64
	for _, score := range f.s.assessmentScores {
		if score.EnrollmentID == id {
			sum += score.TotalScore
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

func (f *fakeEnrollmentRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.enrollments[id]
	return ok, nil
}

func (f *fakeEnrollmentRepo) IsEnrolled(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, e := range f.s.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

// ===== ASSESSMENT =====

type fakeAssessmentRepo struct{ s *fakeStore }

func (f *fakeAssessmentRepo) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	assessment.ID = f.s.id()
	f.s.assessments[assessment.ID] = assessment
	return nil
}

func (f *fakeAssessmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	assessment, ok := f.s.assessments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (f *fakeAssessmentRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeAssessmentRepo) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.assessments[assessment.ID] = assessment
	return nil
}

func (f *fakeAssessmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.assessments, id)
	return nil
}

func (f *fakeAssessmentRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Assessment
	for _, a := range f.s.assessments {
		if filters.CourseID != nil && a.CourseID != *filters.CourseID {
			continue
		}
		if filters.CreatedBy != nil && a.CreatedBy != *filters.CreatedBy {
			continue
		}
		if filters.Type != nil && a.Type != *filters.Type {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeAssessmentRepo) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	filters.CourseID = &courseID
	return f.List(ctx, tx, filters)
}

func (f *fakeAssessmentRepo) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	filters.CreatedBy = &creatorID
	return f.List(ctx, tx, filters)
}

func (f *fakeAssessmentRepo) AssignedGrade(ctx context.Context, tx *gorm.DB, id uint) (float64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var sum float64
	for _, q := range f.s.mcqQuestions {
		if q.AssessmentID == id {
			sum += q.Grade
		}
	}
	for _, q := range f.s.handwrittenQuestions {
		if q.AssessmentID == id {
			sum += q.Grade
		}
	}
	for _, q := range f.s.codingQuestions {
		if q.AssessmentID == id {
			sum += q.Grade
		}
	}
	return sum, nil
}

func (f *fakeAssessmentRepo) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.AssessmentStats, error) {
	return &repositories.AssessmentStats{}, nil
}

func (f *fakeAssessmentRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.assessments[id]
	return ok, nil
}

func (f *fakeAssessmentRepo) BelongsToCourse(ctx context.Context, tx *gorm.DB, id uint, courseID uint) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	assessment, ok := f.s.assessments[id]
	return ok && assessment.CourseID == courseID, nil
}

// ===== QUESTION =====

type fakeQuestionRepo struct{ s *fakeStore }

func (f *fakeQuestionRepo) CreateMCQ(ctx context.Context, tx *gorm.DB, question *models.MCQQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	question.ID = f.s.id()
	f.s.mcqQuestions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) CreateMCQBatch(ctx context.Context, tx *gorm.DB, questions []*models.MCQQuestion) error {
	for _, q := range questions {
		if err := f.CreateMCQ(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeQuestionRepo) GetMCQByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MCQQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	q, ok := f.s.mcqQuestions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) GetMCQByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.MCQQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.MCQQuestion
	for _, q := range f.s.mcqQuestions {
		if q.AssessmentID == assessmentID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeQuestionRepo) UpdateMCQ(ctx context.Context, tx *gorm.DB, question *models.MCQQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.mcqQuestions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) DeleteMCQ(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.mcqQuestions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.s.mcqQuestions, id)
	return nil
}

func (f *fakeQuestionRepo) CreateDynamicMCQBatch(ctx context.Context, tx *gorm.DB, questions []*models.DynamicMCQQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, q := range questions {
		for _, existing := range f.s.dynamicQuestions {
			if existing.AssessmentID == q.AssessmentID && existing.StudentID == q.StudentID && existing.Seq == q.Seq {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	for _, q := range questions {
		q.ID = f.s.id()
		f.s.dynamicQuestions[q.ID] = q
	}
	return nil
}

func (f *fakeQuestionRepo) GetDynamicMCQByID(ctx context.Context, tx *gorm.DB, id uint) (*models.DynamicMCQQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	q, ok := f.s.dynamicQuestions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) GetDynamicMCQByAssessmentAndStudent(ctx context.Context, tx *gorm.DB, assessmentID uint, studentID string) ([]*models.DynamicMCQQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.DynamicMCQQuestion
	for _, q := range f.s.dynamicQuestions {
		if q.AssessmentID == assessmentID && q.StudentID == studentID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f *fakeQuestionRepo) CountDynamicMCQStudents(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	students := make(map[string]bool)
	for _, q := range f.s.dynamicQuestions {
		if q.AssessmentID == assessmentID {
			students[q.StudentID] = true
		}
	}
	return int64(len(students)), nil
}

func (f *fakeQuestionRepo) DeleteDynamicMCQByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, q := range f.s.dynamicQuestions {
		if q.AssessmentID == assessmentID {
			delete(f.s.dynamicQuestions, id)
		}
	}
	return nil
}

func (f *fakeQuestionRepo) CreateHandwritten(ctx context.Context, tx *gorm.DB, question *models.HandwrittenQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	question.ID = f.s.id()
	f.s.handwrittenQuestions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) GetHandwrittenByID(ctx context.Context, tx *gorm.DB, id uint) (*models.HandwrittenQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	q, ok := f.s.handwrittenQuestions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) GetHandwrittenByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.HandwrittenQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.HandwrittenQuestion
	for _, q := range f.s.handwrittenQuestions {
		if q.AssessmentID == assessmentID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeQuestionRepo) UpdateHandwritten(ctx context.Context, tx *gorm.DB, question *models.HandwrittenQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.handwrittenQuestions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) DeleteHandwritten(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.handwrittenQuestions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.s.handwrittenQuestions, id)
	return nil
}

func (f *fakeQuestionRepo) CreateCoding(ctx context.Context, tx *gorm.DB, question *models.CodingQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	question.ID = f.s.id()
	f.s.codingQuestions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) GetCodingByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CodingQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	q, ok := f.s.codingQuestions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) GetCodingByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.CodingQuestion, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.CodingQuestion
	for _, q := range f.s.codingQuestions {
		if q.AssessmentID == assessmentID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeQuestionRepo) UpdateCoding(ctx context.Context, tx *gorm.DB, question *models.CodingQuestion) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.codingQuestions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) DeleteCoding(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.codingQuestions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.s.codingQuestions, id)
	return nil
}

func (f *fakeQuestionRepo) GetQuestionSet(ctx context.Context, tx *gorm.DB, assessmentID uint, studentID string) (*repositories.QuestionSet, error) {
	mcq, _ := f.GetMCQByAssessment(ctx, tx, assessmentID)
	dynamic, _ := f.GetDynamicMCQByAssessmentAndStudent(ctx, tx, assessmentID, studentID)
	handwritten, _ := f.GetHandwrittenByAssessment(ctx, tx, assessmentID)
	coding, _ := f.GetCodingByAssessment(ctx, tx, assessmentID)
	return &repositories.QuestionSet{
		MCQ:         mcq,
		DynamicMCQ:  dynamic,
		Handwritten: handwritten,
		Coding:      coding,
	}, nil
}

func (f *fakeQuestionRepo) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error) {
	mcq, _ := f.GetMCQByAssessment(ctx, tx, assessmentID)
	handwritten, _ := f.GetHandwrittenByAssessment(ctx, tx, assessmentID)
	coding, _ := f.GetCodingByAssessment(ctx, tx, assessmentID)
	return int64(len(mcq) + len(handwritten) + len(coding)), nil
}

// ===== SUBMISSION =====

type fakeSubmissionRepo struct{ s *fakeStore }

func (f *fakeSubmissionRepo) Create(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.submissions {
		if existing.AssessmentID == submission.AssessmentID && existing.EnrollmentID == submission.EnrollmentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = f.s.id()
	f.s.submissions[submission.ID] = submission
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentSubmission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	submission, ok := f.s.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, tx *gorm.DB, submission *models.AssessmentSubmission) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.submissions[submission.ID] = submission
	return nil
}

func (f *fakeSubmissionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.submissions, id)
	return nil
}

func (f *fakeSubmissionRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentSubmission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.submissions {
		if existing.AssessmentID == assessmentID && existing.EnrollmentID == enrollmentID {
			return existing, nil
		}
	}
	submission := &models.AssessmentSubmission{
		ID:           f.s.id(),
		AssessmentID: assessmentID,
		EnrollmentID: enrollmentID,
	}
	f.s.submissions[submission.ID] = submission
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByAssessmentAndEnrollment(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentSubmission, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.submissions {
		if existing.AssessmentID == assessmentID && existing.EnrollmentID == enrollmentID {
			return existing, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.AssessmentSubmission, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.AssessmentSubmission
	for _, s := range f.s.submissions {
		if filters.AssessmentID != nil && s.AssessmentID != *filters.AssessmentID {
			continue
		}
		if filters.EnrollmentID != nil && s.EnrollmentID != *filters.EnrollmentID {
			continue
		}
		if filters.IsSubmitted != nil && s.IsSubmitted != *filters.IsSubmitted {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeSubmissionRepo) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentSubmission, error) {
	out, _, err := f.List(ctx, tx, repositories.SubmissionFilters{AssessmentID: &assessmentID})
	return out, err
}

func (f *fakeSubmissionRepo) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.AssessmentSubmission, error) {
	out, _, err := f.List(ctx, tx, repositories.SubmissionFilters{EnrollmentID: &enrollmentID})
	return out, err
}

func (f *fakeSubmissionRepo) MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	submission, ok := f.s.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := nowUTC()
	submission.IsSubmitted = true
	submission.SubmittedAt = &now
	return nil
}

func (f *fakeSubmissionRepo) ResetSubmitted(ctx context.Context, tx *gorm.DB, id uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	submission, ok := f.s.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.IsSubmitted = false
	submission.SubmittedAt = nil
	return nil
}

func (f *fakeSubmissionRepo) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint, submittedOnly bool) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var count int64
	for _, s := range f.s.submissions {
		if s.AssessmentID != assessmentID {
			continue
		}
		if submittedOnly && !s.IsSubmitted {
			continue
		}
		count++
	}
	return count, nil
}

// ===== SCORE =====

type fakeScoreRepo struct{ s *fakeStore }

func (f *fakeScoreRepo) UpsertMCQScore(ctx context.Context, tx *gorm.DB, score *models.MCQQuestionScore) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.mcqScores[scoreKey(score.QuestionID, score.EnrollmentID)] = score
	return nil
}

func (f *fakeScoreRepo) UpsertDynamicMCQScore(ctx context.Context, tx *gorm.DB, score *models.DynamicMCQQuestionScore) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.dynamicScores[scoreKey(score.QuestionID, score.EnrollmentID)] = score
	return nil
}

func (f *fakeScoreRepo) UpsertHandwrittenScore(ctx context.Context, tx *gorm.DB, score *models.HandwrittenQuestionScore) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if score.ID == 0 {
		score.ID = f.s.id()
	}
	f.s.handwrittenScores[scoreKey(score.QuestionID, score.EnrollmentID)] = score
	return nil
}

func (f *fakeScoreRepo) UpsertCodingScore(ctx context.Context, tx *gorm.DB, score *models.CodingQuestionScore) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.codingScores[scoreKey(score.QuestionID, score.EnrollmentID)] = score
	return nil
}

func (f *fakeScoreRepo) GetMCQScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.MCQQuestionScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.MCQQuestionScore
	for _, score := range f.s.mcqScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeScoreRepo) GetDynamicMCQScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.DynamicMCQQuestionScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.DynamicMCQQuestionScore
	for _, score := range f.s.dynamicScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeScoreRepo) GetHandwrittenScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.HandwrittenQuestionScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.HandwrittenQuestionScore
	for _, score := range f.s.handwrittenScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeScoreRepo) GetCodingScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) ([]*models.CodingQuestionScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.CodingQuestionScore
	for _, score := range f.s.codingScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeScoreRepo) LockScorePair(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.rollupOps = append(f.s.rollupOps, "lock:"+scoreKey(assessmentID, enrollmentID))
	return nil
}

func (f *fakeScoreRepo) SumScores(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*repositories.ScoreSums, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.rollupOps = append(f.s.rollupOps, "sum:"+scoreKey(assessmentID, enrollmentID))
	sums := &repositories.ScoreSums{}
	for _, score := range f.s.mcqScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			sums.MCQ += score.Score
		}
	}
	for _, score := range f.s.dynamicScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			sums.DynamicMCQ += score.Score
		}
	}
	for _, score := range f.s.handwrittenScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			sums.Handwritten += score.Score
		}
	}
	for _, score := range f.s.codingScores {
		if score.AssessmentID == assessmentID && score.EnrollmentID == enrollmentID {
			sums.Coding += score.Score
		}
	}
	return sums, nil
}

func (f *fakeScoreRepo) UpsertAssessmentScore(ctx context.Context, tx *gorm.DB, score *models.AssessmentScore) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	key := scoreKey(score.AssessmentID, score.EnrollmentID)
	if existing, ok := f.s.assessmentScores[key]; ok {
		existing.TotalScore = score.TotalScore
		*score = *existing
		return nil
	}
	score.ID = f.s.id()
	f.s.assessmentScores[key] = score
	return nil
}

func (f *fakeScoreRepo) GetAssessmentScore(ctx context.Context, tx *gorm.DB, assessmentID, enrollmentID uint) (*models.AssessmentScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	score, ok := f.s.assessmentScores[scoreKey(assessmentID, enrollmentID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return score, nil
}

func (f *fakeScoreRepo) GetAssessmentScoresByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.AssessmentScore
	for _, score := range f.s.assessmentScores {
		if score.AssessmentID == assessmentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrollmentID < out[j].EnrollmentID })
	return out, nil
}

func (f *fakeScoreRepo) GetAssessmentScoresByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID uint) ([]*models.AssessmentScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.AssessmentScore
	for _, score := range f.s.assessmentScores {
		if score.EnrollmentID == enrollmentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssessmentID < out[j].AssessmentID })
	return out, nil
}

func (f *fakeScoreRepo) GetHandwrittenScoreByID(ctx context.Context, tx *gorm.DB, scoreID uint) (*models.HandwrittenQuestionScore, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, score := range f.s.handwrittenScores {
		if score.ID == scoreID {
			if question, ok := f.s.handwrittenQuestions[score.QuestionID]; ok {
				score.Question = *question
			}
			return score, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeScoreRepo) UpdateHandwrittenFeedback(ctx context.Context, tx *gorm.DB, scoreID uint, value float64, feedback *string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, score := range f.s.handwrittenScores {
		if score.ID == scoreID {
			score.Score = value
			score.Feedback = feedback
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ===== USER =====

type fakeUserRepo struct{ s *fakeStore }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, user := range f.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if user, ok := f.s.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.User
	for _, user := range f.s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return f.List(ctx, filters)
}

func (f *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	_, ok := f.s.users[id]
	return ok, nil
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	user, _ := f.GetByEmail(ctx, email)
	return user != nil, nil
}

func (f *fakeUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	user, ok := f.s.users[id]
	return ok && user.Role == role, nil
}

// ===== DASHBOARD =====

type fakeDashboardRepo struct{ s *fakeStore }

func (f *fakeDashboardRepo) GetCourseStats(ctx context.Context, tx *gorm.DB, courseID uint) (*repositories.CourseStats, error) {
	return &repositories.CourseStats{}, nil
}

func (f *fakeDashboardRepo) GetGradebook(ctx context.Context, tx *gorm.DB, courseID uint) ([]*repositories.GradebookRow, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*repositories.GradebookRow
	for _, score := range f.s.assessmentScores {
		enrollment, ok := f.s.enrollments[score.EnrollmentID]
		if !ok || enrollment.CourseID != courseID {
			continue
		}
		assessment := f.s.assessments[score.AssessmentID]
		row := &repositories.GradebookRow{
			StudentID:       enrollment.StudentID,
			EnrollmentID:    enrollment.ID,
			AssessmentID:    score.AssessmentID,
			TotalScore:      score.TotalScore,
			EnrollmentTotal: enrollment.TotalScore,
		}
		if user, ok := f.s.users[enrollment.StudentID]; ok {
			row.StudentName = user.FullName
			row.StudentEmail = user.Email
		}
		if assessment != nil {
			row.AssessmentTitle = assessment.Title
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentID != out[j].StudentID {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].AssessmentID < out[j].AssessmentID
	})
	return out, nil
}

func (f *fakeDashboardRepo) GetAssessmentStats(ctx context.Context, tx *gorm.DB, assessmentID uint) (*repositories.AssessmentStats, error) {
	return &repositories.AssessmentStats{}, nil
}

func (f *fakeDashboardRepo) GetStudentProgress(ctx context.Context, tx *gorm.DB, enrollmentID uint) (*repositories.StudentProgress, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	enrollment, ok := f.s.enrollments[enrollmentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &repositories.StudentProgress{
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		TotalScore:   enrollment.TotalScore,
	}, nil
}

func (f *fakeDashboardRepo) GetStudentProgressByCourse(ctx context.Context, tx *gorm.DB, studentID string) ([]*repositories.StudentProgress, error) {
	return nil, nil
}

// ===== EXTERNAL CLIENT FAKES =====

type fakeAIClient struct {
	mu            sync.Mutex
	generateCalls int
	generated     []ai.GeneratedMCQ
	generateErr   error
	evalResult    *ai.EvalResult
	evalErr       error
}

func (f *fakeAIClient) GenerateMCQs(ctx context.Context, req ai.GenerateRequest) ([]ai.GeneratedMCQ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	if len(f.generated) >= req.Count {
		return f.generated[:req.Count], nil
	}
	return f.generated, nil
}

func (f *fakeAIClient) EvaluateHandwritten(ctx context.Context, eval ai.HandwrittenEval) (*ai.EvalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	// Returned verbatim, no sanitizing: the service is the one responsible
	// for keeping evaluator output inside the question grade.
	result := *f.evalResult
	return &result, nil
}

func (f *fakeAIClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

type fakeRunner struct {
	mu   sync.Mutex
	runs int
	run  func(ctx context.Context, run ai.CodeRun) (*ai.RunResult, error)
}

func (f *fakeRunner) RunCode(ctx context.Context, run ai.CodeRun) (*ai.RunResult, error) {
	f.mu.Lock()
	f.runs++
	fn := f.run
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, run)
	}
	return &ai.RunResult{Stdout: run.Stdin}, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.objects[objectName] = data
	return objectName, nil
}

func (f *fakeStorage) Download(ctx context.Context, objectName string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectName)
	}
	return data, nil
}

func (f *fakeStorage) Delete(ctx context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectName)
	return nil
}

func (f *fakeStorage) GetURL(objectName string) string {
	return "/media/" + objectName
}
