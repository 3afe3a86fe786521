package app

import (
	apphttp "github.com/fpda/academy-backend/internal/http"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *apphttp.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(cfg.HTTPAddr, apphttp.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		CourseHandler:      handlers.Course,
		MeHandler:          handlers.Me,
		ProgressHandler:    handlers.Progress,
		LessonHandler:      handlers.Lesson,
		QuizHandler:        handlers.Quiz,
		CertificateHandler: handlers.Certificate,
		PaymentHandler:     handlers.Payment,
	})
}
