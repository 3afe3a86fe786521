package repos

import (
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/repos/billing"
	"github.com/fpda/academy-backend/internal/data/repos/catalog"
	"github.com/fpda/academy-backend/internal/data/repos/learning"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type InstructorRepo = catalog.InstructorRepo
type CourseRepo = catalog.CourseRepo
type CourseModuleRepo = catalog.CourseModuleRepo
type CourseLessonRepo = catalog.CourseLessonRepo

type EnrollmentRepo = learning.EnrollmentRepo
type LessonProgressRepo = learning.LessonProgressRepo
type CertificationRepo = learning.CertificationRepo
type QuizRepo = learning.QuizRepo
type QuizAttemptRepo = learning.QuizAttemptRepo

type PaymentEventRepo = billing.PaymentEventRepo

func NewInstructorRepo(db *gorm.DB, baseLog *logger.Logger) InstructorRepo {
	return catalog.NewInstructorRepo(db, baseLog)
}
func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return catalog.NewCourseRepo(db, baseLog)
}
func NewCourseModuleRepo(db *gorm.DB, baseLog *logger.Logger) CourseModuleRepo {
	return catalog.NewCourseModuleRepo(db, baseLog)
}
func NewCourseLessonRepo(db *gorm.DB, baseLog *logger.Logger) CourseLessonRepo {
	return catalog.NewCourseLessonRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}
func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return learning.NewLessonProgressRepo(db, baseLog)
}
func NewCertificationRepo(db *gorm.DB, baseLog *logger.Logger) CertificationRepo {
	return learning.NewCertificationRepo(db, baseLog)
}
func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return learning.NewQuizRepo(db, baseLog)
}
func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return learning.NewQuizAttemptRepo(db, baseLog)
}

func NewPaymentEventRepo(db *gorm.DB, baseLog *logger.Logger) PaymentEventRepo {
	return billing.NewPaymentEventRepo(db, baseLog)
}
