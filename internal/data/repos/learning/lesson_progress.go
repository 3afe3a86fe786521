package learning

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type LessonProgressRepo interface {
	// MarkCompleted upserts the (user, lesson) row as completed. The first
	// completion timestamp is preserved.
	MarkCompleted(dbc dbctx.Context, userID, lessonID uuid.UUID, at time.Time) (*types.LessonProgress, error)
	GetByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error)
	// CountCompleted counts completed rows of userID restricted to the
	// lesson ids selected by lessonIDs.
	CountCompleted(dbc dbctx.Context, userID uuid.UUID, lessonIDs *gorm.DB) (int64, error)
	CompletedLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs *gorm.DB) ([]uuid.UUID, error)
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	repoLog := baseLog.With("repo", "LessonProgressRepo")
	return &lessonProgressRepo{db: db, log: repoLog}
}

func (r *lessonProgressRepo) MarkCompleted(dbc dbctx.Context, userID, lessonID uuid.UUID, at time.Time) (*types.LessonProgress, error) {
	if userID == uuid.Nil || lessonID == uuid.Nil {
		return nil, errors.New("user id and lesson id required")
	}
	row := &types.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: &at,
	}
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"completed":    true,
				"completed_at": gorm.Expr("COALESCE(lesson_progress.completed_at, excluded.completed_at)"),
				"updated_at":   at,
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByUserAndLesson(dbc, userID, lessonID)
}

func (r *lessonProgressRepo) GetByUserAndLesson(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	var row types.LessonProgress
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonProgressRepo) CountCompleted(dbc dbctx.Context, userID uuid.UUID, lessonIDs *gorm.DB) (int64, error) {
	var n int64
	if userID == uuid.Nil || lessonIDs == nil {
		return 0, nil
	}
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.LessonProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Where("lesson_id IN (?)", lessonIDs).
		Count(&n).Error
	return n, err
}

func (r *lessonProgressRepo) CompletedLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs *gorm.DB) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if userID == uuid.Nil || lessonIDs == nil {
		return ids, nil
	}
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.LessonProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Where("lesson_id IN (?)", lessonIDs).
		Order("completed_at ASC").
		Pluck("lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
