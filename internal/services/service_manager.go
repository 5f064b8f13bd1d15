package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/ai"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool

	Course     ServiceConfig
	Assessment ServiceConfig
	Question   ServiceConfig
	Submission ServiceConfig
	Score      ServiceConfig

	DefaultTimeout time.Duration
}

type ServiceConfig struct {
	Enabled      bool
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ServiceManagerDeps bundles the external clients the services need beyond
// the repository: AI generation/evaluation, the code sandbox, file storage
// and the score event publisher.
type ServiceManagerDeps struct {
	AI        ai.Client
	Runner    ai.CodeRunner
	Storage   storage.Provider
	Publisher events.Publisher
}

// serviceManager implements ServiceManager
type serviceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validator
	deps      ServiceManagerDeps
	config    ServiceManagerConfig

	courseService     CourseService
	assessmentService AssessmentService
	questionService   QuestionService
	submissionService SubmissionService
	scoreService      ScoreService
	dashboardService  DashboardService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger utils.Logger, v *validator.Validator, deps ServiceManagerDeps, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: v,
		deps:      deps,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger utils.Logger, v *validator.Validator, deps ServiceManagerDeps) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,

		Course:     ServiceConfig{Enabled: true, CacheEnabled: true, CacheTTL: 10 * time.Minute},
		Assessment: ServiceConfig{Enabled: true, CacheEnabled: true, CacheTTL: 5 * time.Minute},
		Question:   ServiceConfig{Enabled: true, CacheEnabled: true, CacheTTL: 10 * time.Minute},
		Submission: ServiceConfig{Enabled: true, CacheEnabled: false},
		Score:      ServiceConfig{Enabled: true, CacheEnabled: false},

		DefaultTimeout: 30 * time.Second,
	}

	return NewServiceManager(db, repo, logger, v, deps, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.initializeServices(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices(_ context.Context) error {
	if sm.config.Score.Enabled {
		sm.scoreService = NewScoreService(sm.repo, sm.db, sm.logger, sm.validator, sm.deps.Publisher)
		sm.logger.Info("Score service initialized")
	}

	if sm.config.Course.Enabled {
		sm.courseService = NewCourseService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Course service initialized")
	}

	if sm.config.Assessment.Enabled {
		sm.assessmentService = NewAssessmentService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Assessment service initialized")
	}

	if sm.config.Question.Enabled {
		sm.questionService = NewQuestionService(sm.repo, sm.db, sm.logger, sm.validator, sm.deps.AI)
		sm.logger.Info("Question service initialized")
	}

	if sm.config.Submission.Enabled {
		if sm.scoreService == nil {
			return fmt.Errorf("submission service requires the score service")
		}
		sm.submissionService = NewSubmissionService(sm.repo, sm.db, sm.logger, sm.validator, sm.deps.AI, sm.deps.Runner, sm.deps.Storage, sm.scoreService)
		sm.logger.Info("Submission service initialized")
	}

	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Dashboard service initialized")

	return nil
}

// Service getters

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.courseService == nil {
		panic("course service not enabled")
	}
	return sm.courseService
}

func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.assessmentService == nil {
		panic("assessment service not enabled")
	}
	return sm.assessmentService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.questionService == nil {
		panic("question service not enabled")
	}
	return sm.questionService
}

func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.submissionService == nil {
		panic("submission service not enabled")
	}
	return sm.submissionService
}

func (sm *serviceManager) Score() ScoreService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.scoreService == nil {
		panic("score service not enabled")
	}
	return sm.scoreService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.dashboardService
}

// Health and lifecycle

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := sm.config.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}
