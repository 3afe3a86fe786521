package domain

import (
	"github.com/fpda/academy-backend/internal/domain/billing"
	"github.com/fpda/academy-backend/internal/domain/catalog"
	"github.com/fpda/academy-backend/internal/domain/learning"
)

const (
	LevelBeginner     = catalog.LevelBeginner
	LevelIntermediate = catalog.LevelIntermediate
	LevelAdvanced     = catalog.LevelAdvanced

	CertificateValidityYears = learning.CertificateValidityYears
	DefaultPassingScore      = learning.DefaultPassingScore

	QuestionMultipleChoice = learning.QuestionMultipleChoice
	QuestionTrueFalse      = learning.QuestionTrueFalse
	QuestionShortAnswer    = learning.QuestionShortAnswer
	QuestionEssay          = learning.QuestionEssay

	ProviderStripe = billing.ProviderStripe

	EventStatusReceived  = billing.EventStatusReceived
	EventStatusProcessed = billing.EventStatusProcessed
	EventStatusIgnored   = billing.EventStatusIgnored
	EventStatusRejected  = billing.EventStatusRejected
	EventStatusFailed    = billing.EventStatusFailed
)

type (
	Instructor   = catalog.Instructor
	Course       = catalog.Course
	CourseModule = catalog.CourseModule
	CourseLesson = catalog.CourseLesson

	Enrollment         = learning.Enrollment
	LessonProgress     = learning.LessonProgress
	Certification      = learning.Certification
	CourseQuiz         = learning.CourseQuiz
	QuizQuestion       = learning.QuizQuestion
	QuizQuestionOption = learning.QuizQuestionOption
	QuizAttempt        = learning.QuizAttempt

	PaymentEvent = billing.PaymentEvent
)

var (
	IsValidLevel = catalog.IsValidLevel
	IsAutoGraded = learning.IsAutoGraded
)

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Instructor{},
		&Course{},
		&CourseModule{},
		&CourseLesson{},
		&Enrollment{},
		&LessonProgress{},
		&Certification{},
		&CourseQuiz{},
		&QuizQuestion{},
		&QuizQuestionOption{},
		&QuizAttempt{},
		&PaymentEvent{},
	}
}
