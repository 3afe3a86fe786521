package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultPassingScore = 70

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionTrueFalse      = "true_false"
	QuestionShortAnswer    = "short_answer"
	QuestionEssay          = "essay"
)

// IsAutoGraded reports whether a question type is graded from its options.
func IsAutoGraded(questionType string) bool {
	return questionType == QuestionMultipleChoice || questionType == QuestionTrueFalse
}

type CourseQuiz struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID         uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	ModuleID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_quizzes_module" json:"module_id"`
	Title            string    `gorm:"column:title;not null" json:"title"`
	Description      string    `gorm:"column:description;type:text" json:"description,omitempty"`
	Instructions     string    `gorm:"column:instructions;type:text" json:"instructions,omitempty"`
	TimeLimitMinutes *int      `gorm:"column:time_limit_minutes" json:"time_limit_minutes,omitempty"`
	PassingScore     int       `gorm:"column:passing_score;not null;default:70" json:"passing_score"`
	MaxAttempts      *int      `gorm:"column:max_attempts" json:"max_attempts,omitempty"`

	Questions []*QuizQuestion `gorm:"foreignKey:QuizID;references:ID" json:"questions,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CourseQuiz) TableName() string { return "course_quizzes" }

func (q *CourseQuiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.PassingScore <= 0 {
		q.PassingScore = DefaultPassingScore
	}
	return nil
}

type QuizQuestion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID       uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	QuestionText string    `gorm:"column:question_text;type:text;not null" json:"question_text"`
	QuestionType string    `gorm:"column:question_type;not null" json:"question_type"`
	Points       int       `gorm:"column:points;not null;default:1" json:"points"`
	OrderIndex   int       `gorm:"column:order_index;not null;default:0" json:"order_index"`
	Explanation  string    `gorm:"column:explanation;type:text" json:"explanation,omitempty"`

	Options []*QuizQuestionOption `gorm:"foreignKey:QuestionID;references:ID" json:"options,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type QuizQuestionOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	OptionText string    `gorm:"column:option_text;type:text;not null" json:"option_text"`
	IsCorrect  bool      `gorm:"column:is_correct;not null" json:"is_correct"`
	OrderIndex int       `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (QuizQuestionOption) TableName() string { return "quiz_question_options" }

func (o *QuizQuestionOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type QuizAttempt struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_attempts_number,priority:1" json:"quiz_id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_attempts_number,priority:2;index" json:"user_id"`
	AttemptNumber int            `gorm:"column:attempt_number;not null;uniqueIndex:idx_quiz_attempts_number,priority:3" json:"attempt_number"`
	Score         int            `gorm:"column:score;not null" json:"score"`
	Passed        bool           `gorm:"column:passed;not null" json:"passed"`
	EarnedPoints  int            `gorm:"column:earned_points;not null" json:"earned_points"`
	TotalPoints   int            `gorm:"column:total_points;not null" json:"total_points"`
	Answers       datatypes.JSON `gorm:"column:answers" json:"answers"`
	SubmittedAt   time.Time      `gorm:"column:submitted_at;not null" json:"submitted_at"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (QuizAttempt) TableName() string { return "quiz_attempts" }

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
