package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/platform/cache"
	"github.com/fpda/academy-backend/internal/pkg/logger"
	"github.com/fpda/academy-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Catalog     services.CatalogService
	Enrollment  services.EnrollmentService
	Progress    services.ProgressService
	Certificate services.CertificateService
	Quiz        services.QuizService
	Payment     services.PaymentService
	Maintenance services.MaintenanceService
	Seed        services.SeedService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	var catalogCache services.CatalogCache
	if clients.Redis != nil {
		catalogCache = cache.NewCatalogCache(log, clients.Redis, "", cfg.CatalogCacheTTL)
	}

	renderer, err := services.NewCertificateRenderer(log, cfg.CertificateFontPath)
	if err != nil {
		return Services{}, fmt.Errorf("init certificate renderer: %w", err)
	}
	var notifier services.CertificateNotifier
	if clients.Mailer != nil {
		notifier = services.NewCertificateMailer(log, clients.Mailer, renderer, cfg.PublicBaseURL)
	}

	tx := aggregates.NewTxRunner(db)

	auth := services.NewAuthService(log, services.AuthConfig{
		Secret:   cfg.JWTSecret,
		Audience: cfg.JWTAudience,
	})
	catalog := services.NewCatalogService(db, log, cfg.StoreTimeout, repos.Course, repos.Enrollment, catalogCache)
	enrollment := services.NewEnrollmentService(db, log, cfg.StoreTimeout, repos.Course, repos.Enrollment)
	progress := services.NewProgressService(db, log, cfg.StoreTimeout, repos.CourseLesson, repos.LessonProgress, enrollment)
	certificate := services.NewCertificateService(
		db, log, cfg.StoreTimeout,
		services.CertificateConfig{Prefix: cfg.CertificatePrefix},
		repos.Course, repos.Certification, progress,
		renderer, notifier,
	)
	quiz := services.NewQuizService(tx, log, cfg.StoreTimeout, repos.Quiz, repos.QuizAttempt, enrollment)
	payment := services.NewPaymentService(
		db, log, cfg.StoreTimeout,
		services.PaymentConfig{DefaultLinkURL: cfg.PaymentLinkURL},
		repos.Course, repos.PaymentEvent, enrollment,
	)
	maintenance := services.NewMaintenanceService(db, log, cfg.StoreTimeout, repos.Certification, repos.Enrollment, progress)
	seed := services.NewSeedService(tx, log, repos.Instructor, repos.Course, repos.CourseModule, repos.CourseLesson, repos.Quiz, catalog)

	return Services{
		Auth:        auth,
		Catalog:     catalog,
		Enrollment:  enrollment,
		Progress:    progress,
		Certificate: certificate,
		Quiz:        quiz,
		Payment:     payment,
		Maintenance: maintenance,
		Seed:        seed,
	}, nil
}
