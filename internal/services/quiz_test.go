package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/data/repos/testutil"
	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/pointers"
)

func mcQuestion(points int) (*types.QuizQuestion, uuid.UUID, uuid.UUID) {
	right, wrong := uuid.New(), uuid.New()
	return &types.QuizQuestion{
		ID:           uuid.New(),
		QuestionType: types.QuestionMultipleChoice,
		Points:       points,
		Options: []*types.QuizQuestionOption{
			{ID: right, IsCorrect: true},
			{ID: wrong},
		},
	}, right, wrong
}

func TestGradeQuiz(t *testing.T) {
	t.Parallel()
	q1, right1, _ := mcQuestion(1)
	q2, _, wrong2 := mcQuestion(2)
	q3, right3, _ := mcQuestion(3)
	essay := &types.QuizQuestion{ID: uuid.New(), QuestionType: types.QuestionEssay, Points: 4}
	quiz := &types.CourseQuiz{PassingScore: 70, Questions: []*types.QuizQuestion{q1, q2, q3}}

	g := GradeQuiz(quiz, map[uuid.UUID]uuid.UUID{q1.ID: right1, q2.ID: wrong2, q3.ID: right3})
	if g.EarnedPoints != 4 || g.TotalPoints != 6 || g.Score != 67 || g.Passed {
		t.Fatalf("grade = %+v", g)
	}
	if len(g.Results) != 3 || !g.Results[0].Correct || g.Results[1].Correct {
		t.Fatalf("results = %+v", g.Results)
	}

	quiz.PassingScore = 60
	if g := GradeQuiz(quiz, map[uuid.UUID]uuid.UUID{q1.ID: right1, q3.ID: right3}); !g.Passed {
		t.Fatalf("67 should pass at 60: %+v", g)
	}

	quiz.Questions = append(quiz.Questions, essay)
	g = GradeQuiz(quiz, map[uuid.UUID]uuid.UUID{q1.ID: right1, q2.ID: wrong2, q3.ID: right3, essay.ID: uuid.New()})
	if g.TotalPoints != 10 || g.EarnedPoints != 4 || g.Score != 40 {
		t.Fatalf("essay should count toward the total only: %+v", g)
	}

	if g := GradeQuiz(&types.CourseQuiz{}, nil); g.Score != 0 || g.Passed {
		t.Fatalf("empty quiz grade = %+v", g)
	}
}

func TestQuizSubmitAttempts(t *testing.T) {
	env := newTestEnv(t)
	learner := uuid.New()
	ctx := learnerCtx(learner)
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Lessons: []int{1}})
	module := course.Modules[0]
	quiz := testutil.SeedQuiz(t, ctx, env.db, course.ID, module.ID, 50, pointers.Ptr(2), 1, 1)

	out, err := env.quizzes.SubmitAttempt(ctx, quiz.ID, nil)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if out.Status != AttemptNotEnrolled {
		t.Fatalf("status = %s, want %s", out.Status, AttemptNotEnrolled)
	}
	testutil.SeedEnrollment(t, ctx, env.db, learner, course.ID)

	view, err := env.quizzes.GetForModule(ctx, module.ID)
	if err != nil || view == nil {
		t.Fatalf("GetForModule: view=%v err=%v", view, err)
	}
	if len(view.Questions) != 2 || len(view.Questions[0].Options) != 2 {
		t.Fatalf("quiz view = %+v", view)
	}

	answers := map[uuid.UUID]uuid.UUID{
		quiz.Questions[0].ID: quiz.Questions[0].Options[0].ID,
		quiz.Questions[1].ID: quiz.Questions[1].Options[1].ID,
	}
	out, err = env.quizzes.SubmitAttempt(ctx, quiz.ID, answers)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if out.Status != AttemptSubmitted || out.Attempt.AttemptNumber != 1 {
		t.Fatalf("first attempt = %+v", out)
	}
	if out.Attempt.Score != 50 || !out.Attempt.Passed {
		t.Fatalf("first attempt score=%d passed=%v", out.Attempt.Score, out.Attempt.Passed)
	}
	if out.AttemptsRemaining == nil || *out.AttemptsRemaining != 1 {
		t.Fatalf("attempts remaining = %v", out.AttemptsRemaining)
	}

	out, err = env.quizzes.SubmitAttempt(ctx, quiz.ID, map[uuid.UUID]uuid.UUID{})
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if out.Attempt.AttemptNumber != 2 || out.Attempt.Score != 0 || out.Attempt.Passed {
		t.Fatalf("second attempt = %+v", out.Attempt)
	}

	out, err = env.quizzes.SubmitAttempt(ctx, quiz.ID, answers)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if out.Status != AttemptAttemptsExhausted {
		t.Fatalf("status = %s, want %s", out.Status, AttemptAttemptsExhausted)
	}

	attempts, err := env.quizzes.ListAttempts(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
}

func TestQuizNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := learnerCtx(uuid.New())

	out, err := env.quizzes.SubmitAttempt(ctx, uuid.New(), nil)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if out.Status != AttemptQuizNotFound {
		t.Fatalf("status = %s, want %s", out.Status, AttemptQuizNotFound)
	}
	view, err := env.quizzes.GetForModule(context.Background(), uuid.New())
	if err != nil || view != nil {
		t.Fatalf("GetForModule(unknown) = %v, %v", view, err)
	}
}
