package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

// CourseRepo reads and writes courses. Single-row getters return (nil, nil)
// when nothing matches.
type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	UpsertBySlug(dbc dbctx.Context, course *types.Course) (*types.Course, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Course, error)
	GetTreeByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetTreeBySlug(dbc dbctx.Context, slug string) (*types.Course, error)
	ListPublished(dbc dbctx.Context, level string) ([]*types.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	t := dbc.Or(r.db)
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Omit(clause.Associations).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) UpsertBySlug(dbc dbctx.Context, course *types.Course) (*types.Course, error) {
	t := dbc.Or(r.db)
	if course == nil {
		return nil, errors.New("course required")
	}
	err := t.WithContext(dbc.Ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title",
				"description",
				"long_description",
				"thumbnail_url",
				"price",
				"duration_hours",
				"level",
				"is_published",
				"certification_included",
				"payment_link_url",
				"instructor_id",
				"updated_at",
			}),
		}).
		Create(course).Error
	if err != nil {
		return nil, err
	}
	// The conflict path keeps the stored id, so re-read it.
	return r.GetBySlug(dbc, course.Slug)
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(dbc.Or(r.db).WithContext(dbc.Ctx).Where("id = ?", id))
}

func (r *courseRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Course, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	return r.first(dbc.Or(r.db).WithContext(dbc.Ctx).Where("slug = ?", slug))
}

func (r *courseRepo) GetTreeByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.first(withTree(dbc.Or(r.db).WithContext(dbc.Ctx)).Where("id = ?", id))
}

func (r *courseRepo) GetTreeBySlug(dbc dbctx.Context, slug string) (*types.Course, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	return r.first(withTree(dbc.Or(r.db).WithContext(dbc.Ctx)).Where("slug = ?", slug))
}

func (r *courseRepo) ListPublished(dbc dbctx.Context, level string) ([]*types.Course, error) {
	q := dbc.Or(r.db).WithContext(dbc.Ctx).
		Preload("Instructor").
		Where("is_published = ?", true)
	if level = strings.ToLower(strings.TrimSpace(level)); level != "" {
		q = q.Where("level = ?", level)
	}
	var out []*types.Course
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) first(q *gorm.DB) (*types.Course, error) {
	var course types.Course
	if err := q.First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

// withTree preloads the instructor and the module/lesson tree ordered by
// order_index, breaking ties by creation time and then id.
func withTree(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Instructor").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("created_at ASC").Order("id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("created_at ASC").Order("id ASC")
		})
}
