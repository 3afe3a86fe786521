package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type QuizAttemptRepo interface {
	Create(dbc dbctx.Context, attempt *types.QuizAttempt) (*types.QuizAttempt, error)
	CountByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) (int64, error)
	MaxAttemptNumber(dbc dbctx.Context, quizID, userID uuid.UUID) (int, error)
	ListByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	repoLog := baseLog.With("repo", "QuizAttemptRepo")
	return &quizAttemptRepo{db: db, log: repoLog}
}

func (r *quizAttemptRepo) Create(dbc dbctx.Context, attempt *types.QuizAttempt) (*types.QuizAttempt, error) {
	if attempt == nil {
		return nil, errors.New("attempt required")
	}
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *quizAttemptRepo) CountByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Count(&n).Error
	return n, err
}

func (r *quizAttemptRepo) MaxAttemptNumber(dbc dbctx.Context, quizID, userID uuid.UUID) (int, error) {
	var maxNum int
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.QuizAttempt{}).
		Select("COALESCE(MAX(attempt_number), 0)").
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Scan(&maxNum).Error
	if err != nil {
		return 0, err
	}
	return maxNum, nil
}

func (r *quizAttemptRepo) ListByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) ([]*types.QuizAttempt, error) {
	var out []*types.QuizAttempt
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("attempt_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
