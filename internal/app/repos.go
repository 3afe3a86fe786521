package app

import (
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/repos"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type Repos struct {
	Instructor     repos.InstructorRepo
	Course         repos.CourseRepo
	CourseModule   repos.CourseModuleRepo
	CourseLesson   repos.CourseLessonRepo
	Enrollment     repos.EnrollmentRepo
	LessonProgress repos.LessonProgressRepo
	Certification  repos.CertificationRepo
	Quiz           repos.QuizRepo
	QuizAttempt    repos.QuizAttemptRepo
	PaymentEvent   repos.PaymentEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Instructor:     repos.NewInstructorRepo(db, log),
		Course:         repos.NewCourseRepo(db, log),
		CourseModule:   repos.NewCourseModuleRepo(db, log),
		CourseLesson:   repos.NewCourseLessonRepo(db, log),
		Enrollment:     repos.NewEnrollmentRepo(db, log),
		LessonProgress: repos.NewLessonProgressRepo(db, log),
		Certification:  repos.NewCertificationRepo(db, log),
		Quiz:           repos.NewQuizRepo(db, log),
		QuizAttempt:    repos.NewQuizAttemptRepo(db, log),
		PaymentEvent:   repos.NewPaymentEventRepo(db, log),
	}
}
