package app

import (
	httpH "github.com/fpda/academy-backend/internal/http/handlers"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Course      *httpH.CourseHandler
	Me          *httpH.MeHandler
	Progress    *httpH.ProgressHandler
	Lesson      *httpH.LessonHandler
	Quiz        *httpH.QuizHandler
	Certificate *httpH.CertificateHandler
	Payment     *httpH.PaymentHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Course:      httpH.NewCourseHandler(log, services.Catalog, services.Enrollment, services.Progress, services.Payment),
		Me:          httpH.NewMeHandler(log, services.Enrollment, services.Certificate),
		Progress:    httpH.NewProgressHandler(log, services.Progress),
		Lesson:      httpH.NewLessonHandler(log, services.Progress),
		Quiz:        httpH.NewQuizHandler(log, services.Quiz),
		Certificate: httpH.NewCertificateHandler(log, services.Certificate),
		Payment:     httpH.NewPaymentHandler(log, services.Payment),
	}
}
