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

type EnrollmentRepo interface {
	// CreateIfAbsent inserts row unless an enrollment for (user, course)
	// already exists. created is false on the conflict path.
	CreateIfAbsent(dbc dbctx.Context, row *types.Enrollment) (created bool, err error)
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error)
	UpdateProgress(dbc dbctx.Context, userID, courseID uuid.UUID, pct int, at time.Time) (int64, error)
	MarkCompleted(dbc dbctx.Context, userID, courseID uuid.UUID, at time.Time) (int64, error)
	CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
	CountCompletedByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
	// ListAfter pages through all enrollments by id for maintenance sweeps.
	ListAfter(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]*types.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) CreateIfAbsent(dbc dbctx.Context, row *types.Enrollment) (bool, error) {
	if row == nil {
		return false, errors.New("enrollment required")
	}
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *enrollmentRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *enrollmentRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) UpdateProgress(dbc dbctx.Context, userID, courseID uuid.UUID, pct int, at time.Time) (int64, error) {
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{
			"progress_percentage": pct,
			"updated_at":          at,
		})
	return res.RowsAffected, res.Error
}

// MarkCompleted keeps the first completion timestamp on repeated calls.
func (r *enrollmentRepo) MarkCompleted(dbc dbctx.Context, userID, courseID uuid.UUID, at time.Time) (int64, error) {
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{
			"completed_at":        gorm.Expr("COALESCE(completed_at, ?)", at),
			"progress_percentage": 100,
			"updated_at":          at,
		})
	return res.RowsAffected, res.Error
}

func (r *enrollmentRepo) CountByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

func (r *enrollmentRepo) CountCompletedByCourse(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("course_id = ? AND completed_at IS NOT NULL", courseID).
		Count(&n).Error
	return n, err
}

func (r *enrollmentRepo) ListAfter(dbc dbctx.Context, afterID uuid.UUID, limit int) ([]*types.Enrollment, error) {
	if limit <= 0 {
		limit = 200
	}
	q := dbc.Or(r.db).WithContext(dbc.Ctx).Order("id ASC").Limit(limit)
	if afterID != uuid.Nil {
		q = q.Where("id > ?", afterID)
	}
	var out []*types.Enrollment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
