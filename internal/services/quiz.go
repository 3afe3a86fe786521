package services

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	types "github.com/fpda/academy-backend/internal/domain"
	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
	"github.com/fpda/academy-backend/internal/pkg/ctxutil"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

// QuizView hides option correctness from learners.
type QuizView struct {
	ID               uuid.UUID      `json:"id"`
	CourseID         uuid.UUID      `json:"courseId"`
	ModuleID         uuid.UUID      `json:"moduleId"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	Instructions     string         `json:"instructions,omitempty"`
	TimeLimitMinutes *int           `json:"timeLimitMinutes,omitempty"`
	PassingScore     int            `json:"passingScore"`
	MaxAttempts      *int           `json:"maxAttempts,omitempty"`
	Questions        []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      uuid.UUID    `json:"id"`
	Text    string       `json:"text"`
	Type    string       `json:"type"`
	Points  int          `json:"points"`
	Options []OptionView `json:"options,omitempty"`
}

type OptionView struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

type AttemptStatus string

const (
	AttemptSubmitted         AttemptStatus = "submitted"
	AttemptQuizNotFound      AttemptStatus = "quiz_not_found"
	AttemptNotEnrolled       AttemptStatus = "not_enrolled"
	AttemptAttemptsExhausted AttemptStatus = "attempts_exhausted"
)

type QuestionResult struct {
	QuestionID  uuid.UUID `json:"questionId"`
	Correct     bool      `json:"correct"`
	Points      int       `json:"points"`
	Earned      int       `json:"earned"`
	Explanation string    `json:"explanation,omitempty"`
}

type AttemptOutcome struct {
	Status            AttemptStatus      `json:"status"`
	Attempt           *types.QuizAttempt `json:"attempt,omitempty"`
	Results           []QuestionResult   `json:"results,omitempty"`
	AttemptsRemaining *int               `json:"attemptsRemaining,omitempty"`
}

type Grade struct {
	EarnedPoints int
	TotalPoints  int
	Score        int
	Passed       bool
	Results      []QuestionResult
}

// GradeQuiz scores answers (question id -> chosen option id). Only
// multiple-choice and true/false questions can be correct; every question
// counts toward the total.
func GradeQuiz(quiz *types.CourseQuiz, answers map[uuid.UUID]uuid.UUID) Grade {
	var g Grade
	if quiz == nil {
		return g
	}
	for _, q := range quiz.Questions {
		if q == nil {
			continue
		}
		g.TotalPoints += q.Points
		res := QuestionResult{QuestionID: q.ID, Points: q.Points, Explanation: q.Explanation}
		if types.IsAutoGraded(q.QuestionType) {
			chosen, ok := answers[q.ID]
			if ok {
				for _, o := range q.Options {
					if o != nil && o.IsCorrect && o.ID == chosen {
						res.Correct = true
						break
					}
				}
			}
		}
		if res.Correct {
			res.Earned = q.Points
			g.EarnedPoints += q.Points
		}
		g.Results = append(g.Results, res)
	}
	if g.TotalPoints > 0 {
		g.Score = int(math.Round(float64(g.EarnedPoints) * 100 / float64(g.TotalPoints)))
	}
	passing := quiz.PassingScore
	if passing <= 0 {
		passing = types.DefaultPassingScore
	}
	g.Passed = g.Score >= passing
	return g
}

type QuizService interface {
	GetForModule(ctx context.Context, moduleID uuid.UUID) (*QuizView, error)
	SubmitAttempt(ctx context.Context, quizID uuid.UUID, answers map[uuid.UUID]uuid.UUID) (AttemptOutcome, error)
	ListAttempts(ctx context.Context, quizID uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizService struct {
	tx          aggregates.TxRunner
	log         *logger.Logger
	quizRepo    repos.QuizRepo
	attemptRepo repos.QuizAttemptRepo
	enrollments EnrollmentService
	timeout     storeBudget
	now         func() time.Time
}

func NewQuizService(
	tx aggregates.TxRunner,
	log *logger.Logger,
	storeTimeout time.Duration,
	quizRepo repos.QuizRepo,
	attemptRepo repos.QuizAttemptRepo,
	enrollments EnrollmentService,
) QuizService {
	return &quizService{
		tx:          tx,
		log:         log.With("service", "QuizService"),
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		enrollments: enrollments,
		timeout:     newStoreBudget(storeTimeout),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (qs *quizService) GetForModule(ctx context.Context, moduleID uuid.UUID) (*QuizView, error) {
	dbc, cancel := qs.timeout.dbc(ctx)
	defer cancel()
	quiz, err := qs.quizRepo.GetByModuleID(dbc, moduleID)
	if err != nil {
		return nil, aggregates.MapError("quiz.get_for_module", err)
	}
	if quiz == nil {
		return nil, nil
	}
	return toQuizView(quiz), nil
}

func toQuizView(q *types.CourseQuiz) *QuizView {
	v := &QuizView{
		ID:               q.ID,
		CourseID:         q.CourseID,
		ModuleID:         q.ModuleID,
		Title:            q.Title,
		Description:      q.Description,
		Instructions:     q.Instructions,
		TimeLimitMinutes: q.TimeLimitMinutes,
		PassingScore:     q.PassingScore,
		MaxAttempts:      q.MaxAttempts,
		Questions:        make([]QuestionView, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		qv := QuestionView{
			ID:     question.ID,
			Text:   question.QuestionText,
			Type:   question.QuestionType,
			Points: question.Points,
		}
		for _, o := range question.Options {
			qv.Options = append(qv.Options, OptionView{ID: o.ID, Text: o.OptionText})
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}

func (qs *quizService) SubmitAttempt(ctx context.Context, quizID uuid.UUID, answers map[uuid.UUID]uuid.UUID) (AttemptOutcome, error) {
	const op = "quiz.submit_attempt"
	learnerID := ctxutil.LearnerID(ctx)
	if learnerID == uuid.Nil {
		return AttemptOutcome{}, domainagg.Unauthorized(op)
	}

	dbc, cancel := qs.timeout.dbc(ctx)
	defer cancel()

	quiz, err := qs.quizRepo.GetByID(dbc, quizID)
	if err != nil {
		return AttemptOutcome{}, aggregates.MapError(op, err)
	}
	if quiz == nil {
		return AttemptOutcome{Status: AttemptQuizNotFound}, nil
	}
	enrolled, err := qs.enrollments.IsEnrolled(ctx, learnerID, quiz.CourseID)
	if err != nil {
		return AttemptOutcome{}, err
	}
	if !enrolled {
		return AttemptOutcome{Status: AttemptNotEnrolled}, nil
	}

	grade := GradeQuiz(quiz, answers)
	rawAnswers, err := json.Marshal(answers)
	if err != nil {
		return AttemptOutcome{}, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}

	var (
		attempt   *types.QuizAttempt
		exhausted bool
	)
	// Attempt numbers are unique per (quiz, learner); a concurrent submit
	// that takes the same number is retried once with the next one.
	err = qs.tx.InTxRetry(dbc.Ctx, 2, func(txc dbctx.Context) error {
		exhausted = false
		last, err := qs.attemptRepo.MaxAttemptNumber(txc, quiz.ID, learnerID)
		if err != nil {
			return err
		}
		if quiz.MaxAttempts != nil && *quiz.MaxAttempts > 0 && last >= *quiz.MaxAttempts {
			exhausted = true
			return nil
		}
		attempt, err = qs.attemptRepo.Create(txc, &types.QuizAttempt{
			QuizID:        quiz.ID,
			UserID:        learnerID,
			AttemptNumber: last + 1,
			Score:         grade.Score,
			Passed:        grade.Passed,
			EarnedPoints:  grade.EarnedPoints,
			TotalPoints:   grade.TotalPoints,
			Answers:       datatypes.JSON(rawAnswers),
			SubmittedAt:   qs.now(),
		})
		return err
	})
	if err == nil && exhausted {
		zero := 0
		return AttemptOutcome{Status: AttemptAttemptsExhausted, AttemptsRemaining: &zero}, nil
	}
	if err != nil {
		qs.log.Error("Quiz attempt insert failed", "quiz_id", quiz.ID, "learner_id", learnerID, "error", err)
		return AttemptOutcome{}, aggregates.MapError(op, err)
	}

	out := AttemptOutcome{Status: AttemptSubmitted, Attempt: attempt, Results: grade.Results}
	if quiz.MaxAttempts != nil && *quiz.MaxAttempts > 0 {
		left := *quiz.MaxAttempts - attempt.AttemptNumber
		if left < 0 {
			left = 0
		}
		out.AttemptsRemaining = &left
	}
	return out, nil
}

func (qs *quizService) ListAttempts(ctx context.Context, quizID uuid.UUID) ([]*types.QuizAttempt, error) {
	learnerID := ctxutil.LearnerID(ctx)
	if learnerID == uuid.Nil {
		return nil, domainagg.Unauthorized("quiz.list_attempts")
	}
	dbc, cancel := qs.timeout.dbc(ctx)
	defer cancel()
	rows, err := qs.attemptRepo.ListByQuizAndUser(dbc, quizID, learnerID)
	if err != nil {
		return nil, aggregates.MapError("quiz.list_attempts", err)
	}
	return rows, nil
}
