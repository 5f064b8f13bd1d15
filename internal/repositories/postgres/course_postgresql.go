package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create creates a new course and invalidates teacher-scoped list caches
func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := getDB(c.db, tx)
	if err := db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, fmt.Sprintf("teacher:%s:*", course.TeacherID))
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// GetByID retrieves a course by ID with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var dbCourse models.Course
		err := getDB(c.db, tx).WithContext(ctx).First(&dbCourse, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &dbCourse, nil
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

// GetByIDWithDetails retrieves a course with enrollments and assessments
func (c *CoursePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	err := getDB(c.db, tx).WithContext(ctx).
		Preload("Enrollments").
		Preload("Assessments").
		First(&course, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course details: %w", err)
	}

	course.EnrollmentCount = len(course.Enrollments)
	course.AssessmentCount = len(course.Assessments)

	return &course, nil
}

// Update updates a course and invalidates its cache
func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	db := getDB(c.db, tx)
	if err := db.WithContext(ctx).Save(course).Error; err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID)

	return nil
}

// Delete soft-deletes a course
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(c.db, tx)
	if err := db.WithContext(ctx).Delete(&models.Course{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, c.cacheManager, id)
	cache.SafeInvalidatePattern(ctx, c.cacheManager.Course, "list:*")

	return nil
}

// List retrieves courses matching the filters with a total count
func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := getDB(c.db, tx)
	query := db.WithContext(ctx).Model(&models.Course{})
	query = c.helpers.ApplyCourseFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	var courses []*models.Course
	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

// GetByTeacher retrieves courses owned by a teacher
func (c *CoursePostgreSQL) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.TeacherID = &teacherID
	return c.List(ctx, tx, filters)
}

// GetByInstitution retrieves courses of one institution
func (c *CoursePostgreSQL) GetByInstitution(ctx context.Context, tx *gorm.DB, institution string, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	filters.Institution = &institution
	return c.List(ctx, tx, filters)
}

// ExistsByID checks if a course exists
func (c *CoursePostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := getDB(c.db, tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// IsOwnedBy checks if a course belongs to a teacher
func (c *CoursePostgreSQL) IsOwnedBy(ctx context.Context, tx *gorm.DB, id uint, teacherID string) (bool, error) {
	var count int64
	err := getDB(c.db, tx).WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND teacher_id = ?", id, teacherID).
		Count(&count).Error
	return count > 0, err
}

// ===== ENROLLMENTS =====

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create creates a new enrollment
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := getDB(e.db, tx)
	if err := db.WithContext(ctx).Create(enrollment).Error; err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	cache.InvalidateCourseCache(ctx, e.cacheManager, enrollment.CourseID)

	return nil
}

// GetByID retrieves an enrollment by ID
func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := getDB(e.db, tx).WithContext(ctx).First(&enrollment, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

// Update updates an enrollment
func (e *EnrollmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := getDB(e.db, tx)
	if err := db.WithContext(ctx).Save(enrollment).Error; err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	cache.InvalidateEnrollmentCache(ctx, e.cacheManager, enrollment.ID)

	return nil
}

// Delete soft-deletes an enrollment
func (e *EnrollmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := getDB(e.db, tx)
	if err := db.WithContext(ctx).Delete(&models.Enrollment{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}
	cache.InvalidateEnrollmentCache(ctx, e.cacheManager, id)

	return nil
}

// List retrieves enrollments matching the filters with a total count
func (e *EnrollmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	db := getDB(e.db, tx)
	query := db.WithContext(ctx).Model(&models.Enrollment{})
	query = e.helpers.ApplyEnrollmentFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	var enrollments []*models.Enrollment
	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return enrollments, total, nil
}

// GetByCourse retrieves all enrollments of a course
func (e *EnrollmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := getDB(e.db, tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollments by course: %w", err)
	}
	return enrollments, nil
}

// GetByStudent retrieves all enrollments of a student
func (e *EnrollmentPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := getDB(e.db, tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollments by student: %w", err)
	}
	return enrollments, nil
}

// GetByCourseAndStudent retrieves the single enrollment of a student in a course
func (e *EnrollmentPostgreSQL) GetByCourseAndStudent(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := getDB(e.db, tx).WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

// UpdateTotalScore persists the rollup value for an enrollment
func (e *EnrollmentPostgreSQL) UpdateTotalScore(ctx context.Context, tx *gorm.DB, id uint, totalScore float64) error {
	db := getDB(e.db, tx)
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Update("total_score", totalScore).Error
	if err != nil {
		return fmt.Errorf("failed to update enrollment total score: %w", err)
	}
	cache.InvalidateEnrollmentCache(ctx, e.cacheManager, id)

	return nil
}

// AverageAssessmentScore computes the mean assessment score of one enrollment
// together with the number of scored assessments. The mean of zero rows is 0.
func (e *EnrollmentPostgreSQL) AverageAssessmentScore(ctx context.Context, tx *gorm.DB, id uint) (float64, int64, error) {
	var result struct {
		Avg   float64
		Count int64
	}
	err := getDB(e.db, tx).WithContext(ctx).
		Model(&models.AssessmentScore{}).
		Select("COALESCE(AVG(total_score), 0) AS avg, COUNT(*) AS count").
		Where("enrollment_id = ?", id).
		Scan(&result).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average assessment scores: %w", err)
	}
	return result.Avg, result.Count, nil
}

// ExistsByID checks if an enrollment exists
func (e *EnrollmentPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := getDB(e.db, tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// IsEnrolled checks if a student is enrolled in a course
func (e *EnrollmentPostgreSQL) IsEnrolled(ctx context.Context, tx *gorm.DB, courseID uint, studentID string) (bool, error) {
	var count int64
	err := getDB(e.db, tx).WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}
