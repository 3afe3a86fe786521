package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/fpda/academy-backend/internal/http/handlers"
	httpMW "github.com/fpda/academy-backend/internal/http/middleware"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	CourseHandler      *httpH.CourseHandler
	MeHandler          *httpH.MeHandler
	ProgressHandler    *httpH.ProgressHandler
	LessonHandler      *httpH.LessonHandler
	QuizHandler        *httpH.QuizHandler
	CertificateHandler *httpH.CertificateHandler
	PaymentHandler     *httpH.PaymentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Catalog (public)
		if cfg.CourseHandler != nil {
			api.GET("/courses", cfg.CourseHandler.ListCourses)
			api.GET("/courses/:slug", cfg.CourseHandler.GetCourse)
			api.GET("/courses/:slug/stats", cfg.CourseHandler.GetCourseStats)
		}

		// Certificate verification (public)
		if cfg.CertificateHandler != nil {
			api.GET("/certificates/:id/verify", cfg.CertificateHandler.Verify)
			api.GET("/certificates/:id/image.png", cfg.CertificateHandler.Image)
		}

		// Payment provider callbacks
		if cfg.PaymentHandler != nil {
			api.POST("/webhooks/payments", cfg.PaymentHandler.Webhook)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Course (learner)
		if cfg.CourseHandler != nil {
			protected.GET("/courses/:slug/enrollment", cfg.CourseHandler.GetEnrollment)
			protected.GET("/courses/:slug/learn", cfg.CourseHandler.GetLearnerCourse)
			protected.GET("/courses/:slug/payment-link", cfg.CourseHandler.GetPaymentLink)
		}

		// Me
		if cfg.MeHandler != nil {
			protected.GET("/me/enrollments", cfg.MeHandler.ListEnrollments)
			protected.GET("/me/certificates", cfg.MeHandler.ListCertificates)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.GET("/progress/:courseId", cfg.ProgressHandler.GetCourseProgress)
		}
		if cfg.LessonHandler != nil {
			protected.POST("/lessons/:id/complete", cfg.LessonHandler.CompleteLesson)
		}

		// Quiz
		if cfg.QuizHandler != nil {
			protected.GET("/modules/:id/quiz", cfg.QuizHandler.GetModuleQuiz)
			protected.POST("/quizzes/:id/attempts", cfg.QuizHandler.SubmitAttempt)
			protected.GET("/quizzes/:id/attempts", cfg.QuizHandler.ListAttempts)
		}

		// Certificate
		if cfg.CertificateHandler != nil {
			protected.POST("/certificates/generate", cfg.CertificateHandler.Generate)
		}
	}

	return r
}
