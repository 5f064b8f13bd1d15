package repositories

import "context"

// Repository aggregates all per-entity repositories.
type Repository interface {
	// Course domain
	Course() CourseRepository
	Enrollment() EnrollmentRepository

	// Assessment domain
	Assessment() AssessmentRepository
	Question() QuestionRepository

	// Submission and scoring domain
	Submission() SubmissionRepository
	Score() ScoreRepository

	// User domain (read-only; Casdoor owns user data)
	User() UserRepository

	// Dashboard domain
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
