package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type CourseLessonRepo interface {
	Create(dbc dbctx.Context, lessons []*types.CourseLesson) ([]*types.CourseLesson, error)
	Save(dbc dbctx.Context, lesson *types.CourseLesson) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseLesson, error)
	GetByModuleID(dbc dbctx.Context, moduleID uuid.UUID) ([]*types.CourseLesson, error)
	// CourseIDForLesson resolves the course owning a lesson; uuid.Nil when
	// the lesson does not exist.
	CourseIDForLesson(dbc dbctx.Context, lessonID uuid.UUID) (uuid.UUID, error)
	// ListIDsByCourseID materializes CourseLessonIDs. Request paths use the
	// subquery; the slice form is for tests and ops tooling.
	ListIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int64, error)
	// CourseLessonIDs is a subquery selecting the lesson ids of a course.
	CourseLessonIDs(dbc dbctx.Context, courseID uuid.UUID) *gorm.DB
}

type courseLessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseLessonRepo(db *gorm.DB, baseLog *logger.Logger) CourseLessonRepo {
	repoLog := baseLog.With("repo", "CourseLessonRepo")
	return &courseLessonRepo{db: db, log: repoLog}
}

func (r *courseLessonRepo) Create(dbc dbctx.Context, lessons []*types.CourseLesson) ([]*types.CourseLesson, error) {
	t := dbc.Or(r.db)
	if len(lessons) == 0 {
		return []*types.CourseLesson{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *courseLessonRepo) Save(dbc dbctx.Context, lesson *types.CourseLesson) error {
	if lesson == nil {
		return nil
	}
	return dbc.Or(r.db).WithContext(dbc.Ctx).Save(lesson).Error
}

func (r *courseLessonRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.Or(r.db).WithContext(dbc.Ctx).Where("id = ?", id).Delete(&types.CourseLesson{}).Error
}

func (r *courseLessonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseLesson, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CourseLesson
	err := dbc.Or(r.db).WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *courseLessonRepo) GetByModuleID(dbc dbctx.Context, moduleID uuid.UUID) ([]*types.CourseLesson, error) {
	var out []*types.CourseLesson
	if moduleID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("module_id = ?", moduleID).
		Order("order_index ASC").Order("created_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseLessonRepo) CourseIDForLesson(dbc dbctx.Context, lessonID uuid.UUID) (uuid.UUID, error) {
	if lessonID == uuid.Nil {
		return uuid.Nil, nil
	}
	var ids []uuid.UUID
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.CourseModule{}).
		Joins("JOIN course_lessons ON course_lessons.module_id = course_modules.id").
		Where("course_lessons.id = ?", lessonID).
		Limit(1).
		Pluck("course_modules.course_id", &ids).Error; err != nil {
		return uuid.Nil, err
	}
	if len(ids) == 0 {
		return uuid.Nil, nil
	}
	return ids[0], nil
}

func (r *courseLessonRepo) ListIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if courseID == uuid.Nil {
		return ids, nil
	}
	if err := r.CourseLessonIDs(dbc, courseID).Pluck("course_lessons.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *courseLessonRepo) CountByCourseID(dbc dbctx.Context, courseID uuid.UUID) (int64, error) {
	var n int64
	if courseID == uuid.Nil {
		return 0, nil
	}
	if err := r.CourseLessonIDs(dbc, courseID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *courseLessonRepo) CourseLessonIDs(dbc dbctx.Context, courseID uuid.UUID) *gorm.DB {
	return dbc.Or(r.db).
		Session(&gorm.Session{NewDB: true}).
		WithContext(dbc.Ctx).
		Model(&types.CourseLesson{}).
		Select("course_lessons.id").
		Joins("JOIN course_modules ON course_modules.id = course_lessons.module_id").
		Where("course_modules.course_id = ?", courseID)
}
