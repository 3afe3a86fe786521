package catalog

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type CourseModuleRepo interface {
	Create(dbc dbctx.Context, modules []*types.CourseModule) ([]*types.CourseModule, error)
	Save(dbc dbctx.Context, module *types.CourseModule) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseModule, error)
	GetByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseModule, error)
}

type courseModuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseModuleRepo(db *gorm.DB, baseLog *logger.Logger) CourseModuleRepo {
	repoLog := baseLog.With("repo", "CourseModuleRepo")
	return &courseModuleRepo{db: db, log: repoLog}
}

func (r *courseModuleRepo) Create(dbc dbctx.Context, modules []*types.CourseModule) ([]*types.CourseModule, error) {
	t := dbc.Or(r.db)
	if len(modules) == 0 {
		return []*types.CourseModule{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Omit(clause.Associations).Create(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *courseModuleRepo) Save(dbc dbctx.Context, module *types.CourseModule) error {
	if module == nil {
		return nil
	}
	return dbc.Or(r.db).WithContext(dbc.Ctx).Omit(clause.Associations).Save(module).Error
}

func (r *courseModuleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CourseModule, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.CourseModule
	err := dbc.Or(r.db).WithContext(dbc.Ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *courseModuleRepo) GetByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.CourseModule, error) {
	var out []*types.CourseModule
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC").Order("created_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
