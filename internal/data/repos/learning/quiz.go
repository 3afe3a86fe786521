package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type QuizRepo interface {
	// Create inserts a quiz together with its questions and options.
	Create(dbc dbctx.Context, quiz *types.CourseQuiz) (*types.CourseQuiz, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseQuiz, error)
	GetByModuleID(dbc dbctx.Context, moduleID uuid.UUID) (*types.CourseQuiz, error)
	DeleteByModuleID(dbc dbctx.Context, moduleID uuid.UUID) error
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	repoLog := baseLog.With("repo", "QuizRepo")
	return &quizRepo{db: db, log: repoLog}
}

func (r *quizRepo) Create(dbc dbctx.Context, quiz *types.CourseQuiz) (*types.CourseQuiz, error) {
	if quiz == nil {
		return nil, errors.New("quiz required")
	}
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *quizRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseQuiz, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(withQuestions(dbc.Or(r.db).WithContext(dbc.Ctx)).Where("id = ?", id))
}

func (r *quizRepo) GetByModuleID(dbc dbctx.Context, moduleID uuid.UUID) (*types.CourseQuiz, error) {
	if moduleID == uuid.Nil {
		return nil, nil
	}
	return r.first(withQuestions(dbc.Or(r.db).WithContext(dbc.Ctx)).Where("module_id = ?", moduleID))
}

func (r *quizRepo) DeleteByModuleID(dbc dbctx.Context, moduleID uuid.UUID) error {
	quiz, err := r.GetByModuleID(dbc, moduleID)
	if err != nil || quiz == nil {
		return err
	}
	t := dbc.Or(r.db).WithContext(dbc.Ctx)
	questionIDs := make([]uuid.UUID, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questionIDs = append(questionIDs, q.ID)
	}
	if len(questionIDs) > 0 {
		if err := t.Where("question_id IN ?", questionIDs).Delete(&types.QuizQuestionOption{}).Error; err != nil {
			return err
		}
		if err := t.Where("id IN ?", questionIDs).Delete(&types.QuizQuestion{}).Error; err != nil {
			return err
		}
	}
	return t.Where("id = ?", quiz.ID).Delete(&types.CourseQuiz{}).Error
}

func (r *quizRepo) first(q *gorm.DB) (*types.CourseQuiz, error) {
	var row types.CourseQuiz
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func withQuestions(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		})
}
