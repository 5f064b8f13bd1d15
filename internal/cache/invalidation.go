package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging instead of
// failing the caller on error.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging instead of failing the caller on error.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateAssessmentCache drops cached reads tied to one assessment,
// including its question set.
func InvalidateAssessmentCache(ctx context.Context, cm *CacheManager, assessmentID uint) {
	SafeDelete(ctx, cm.Assessment,
		fmt.Sprintf("id:%d", assessmentID),
		fmt.Sprintf("details:%d", assessmentID))
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("assessment:%d:*", assessmentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("assessment:%d:*", assessmentID))
}

// InvalidateEnrollmentCache drops cached rollups after a score write.
func InvalidateEnrollmentCache(ctx context.Context, cm *CacheManager, enrollmentID uint) {
	SafeDelete(ctx, cm.Fast, fmt.Sprintf("enrollment:%d", enrollmentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("enrollment:%d:*", enrollmentID))
}

// InvalidateCourseCache drops cached course reads and its dashboard stats.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint) {
	SafeDelete(ctx, cm.Course, fmt.Sprintf("id:%d", courseID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("course:%d:*", courseID))
}
