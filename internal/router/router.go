package router

import (
	"time"

	"github.com/examwizards/examwizards-backend/internal/config"
	"github.com/examwizards/examwizards-backend/internal/handler"
	"github.com/examwizards/examwizards-backend/internal/logger"
	"github.com/examwizards/examwizards-backend/internal/metrics"
	"github.com/examwizards/examwizards-backend/internal/middleware"
	"github.com/examwizards/examwizards-backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Student    *handler.StudentHandler
	Instructor *handler.InstructorHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService middleware.TokenValidator,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(
		response.RequestIDMiddleware(),
		logger.AccessLog(log),
		metrics.Middleware(),
		middleware.Brotli(),
	)

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	requireAuth := middleware.RequireAuth(authService)

	// ─── 1. Auth Group (Public login is rate limited) ──────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		authAPI.POST("/logout", requireAuth, handlers.Auth.Logout)
		authAPI.GET("/me", requireAuth, handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Session + Role) ───────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(requireAuth, middleware.RequireStudent(), middleware.NoStore())
	{
		studentAPI.GET("/courses", handlers.Student.ListCourses)
		studentAPI.GET("/courses/:course_id/exams", handlers.Student.ListCourseExams)

		studentAPI.GET("/exams", handlers.Student.ListExams)
		studentAPI.GET("/exams/summary", handlers.Student.Summary)
		studentAPI.GET("/exams/:exam_id", handlers.Student.GetExam)
		studentAPI.POST("/exams/:exam_id/start", handlers.Student.StartExam)
		studentAPI.GET("/exams/:exam_id/paper", handlers.Student.GetPaper)
		studentAPI.POST("/exams/:exam_id/submit", handlers.Student.SubmitExam)
	}

	// ─── 3. WebSocket Group (Token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService), middleware.RequireStudent())
	{
		ws.GET("/student/exams/:exam_id/status", handlers.WS.ExamStatusStream)
	}

	// ─── 4. Instructor Group (JWT + Session + Role) ────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(requireAuth, middleware.RequireInstructor())
	{
		instructorAPI.POST("/courses", handlers.Instructor.CreateCourse)
		instructorAPI.GET("/courses", handlers.Instructor.ListCourses)
		instructorAPI.POST("/courses/:course_id/enrollments", handlers.Instructor.EnrollStudent)
		instructorAPI.GET("/courses/:course_id/exams", handlers.Instructor.ListExams)
		instructorAPI.POST("/courses/:course_id/exams", handlers.Instructor.CreateExam)

		instructorAPI.PUT("/exams/:exam_id", handlers.Instructor.UpdateExam)
		instructorAPI.DELETE("/exams/:exam_id", handlers.Instructor.DeleteExam)
		instructorAPI.POST("/exams/:exam_id/questions", handlers.Instructor.AddQuestion)
		instructorAPI.GET("/exams/:exam_id/results", handlers.Instructor.ExamResults)
	}

	return router
}
