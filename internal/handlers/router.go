package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type HandlerManager struct {
	courseHandler     *CourseHandler
	assessmentHandler *AssessmentHandler
	questionHandler   *QuestionHandler
	submissionHandler *SubmissionHandler
	scoreHandler      *ScoreHandler
	dashboardHandler  *DashboardHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		courseHandler:     NewCourseHandler(serviceManager.Course(), validator, logger),
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), validator, logger),
		questionHandler:   NewQuestionHandler(serviceManager.Question(), validator, logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), validator, logger),
		scoreHandler:      NewScoreHandler(serviceManager.Score(), validator, logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:    authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)
	studentOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Course routes
		courses := v1.Group("/courses")
		{
			courses.POST("", teacherOnly, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", teacherOnly, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", teacherOnly, hm.courseHandler.DeleteCourse)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)

			// Enrollment management - Teachers and Admins only
			courses.POST("/:id/enrollments", teacherOnly, hm.courseHandler.EnrollStudent)
			courses.DELETE("/:id/enrollments/:student_id", teacherOnly, hm.courseHandler.UnenrollStudent)
			courses.GET("/:id/enrollments", teacherOnly, hm.courseHandler.ListEnrollments)

			// Assessments within a course
			courses.POST("/:id/assessments", teacherOnly, hm.assessmentHandler.CreateAssessment)
			courses.GET("/:id/assessments", hm.assessmentHandler.ListCourseAssessments)

			// Dashboards
			courses.GET("/:id/stats", teacherOnly, hm.dashboardHandler.GetCourseStats)
			courses.GET("/:id/students/:student_id/progress", hm.dashboardHandler.GetStudentProgress)
			courses.GET("/:id/gradebook", teacherOnly, hm.dashboardHandler.ExportGradebook)
		}

		// Assessment routes
		assessments := v1.Group("/assessments")
		{
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.GET("/:id/details", teacherOnly, hm.assessmentHandler.GetAssessmentWithDetails)
			assessments.PUT("/:id", teacherOnly, hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", teacherOnly, hm.assessmentHandler.DeleteAssessment)

			// Question management - Teachers and Admins only
			assessments.POST("/:id/questions/mcq", teacherOnly, hm.questionHandler.AddMCQQuestion)
			assessments.POST("/:id/questions/handwritten", teacherOnly, hm.questionHandler.AddHandwrittenQuestion)
			assessments.POST("/:id/questions/coding", teacherOnly, hm.questionHandler.AddCodingQuestion)
			assessments.DELETE("/:id/questions/:kind/:question_id", teacherOnly, hm.questionHandler.DeleteQuestion)
			assessments.GET("/:id/questions/full", teacherOnly, hm.questionHandler.GetQuestionsFull)

			// Student question set; generates dynamic MCQs on first access
			assessments.GET("/:id/questions", studentOnly, hm.questionHandler.GetQuestions)

			// Submissions
			assessments.POST("/:id/submissions", studentOnly, hm.submissionHandler.SubmitAssessment)
			assessments.GET("/:id/submissions/me", studentOnly, hm.submissionHandler.GetSubmission)
			assessments.GET("/:id/submissions", teacherOnly, hm.submissionHandler.ListSubmissions)

			// Scores
			assessments.GET("/:id/scores/me", studentOnly, hm.scoreHandler.GetScoreBreakdown)
			assessments.GET("/:id/scores", teacherOnly, hm.scoreHandler.GetAssessmentScores)
			assessments.GET("/:id/stats", teacherOnly, hm.dashboardHandler.GetAssessmentStats)
		}

		// Score overrides - Teachers and Admins only
		scores := v1.Group("/scores")
		scores.Use(teacherOnly)
		{
			scores.PUT("/handwritten/:score_id", hm.scoreHandler.OverrideHandwrittenScore)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "lms-service",
		})
	})
}
