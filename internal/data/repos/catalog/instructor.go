package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

type InstructorRepo interface {
	Create(dbc dbctx.Context, rows []*types.Instructor) ([]*types.Instructor, error)
	Save(dbc dbctx.Context, row *types.Instructor) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Instructor, error)
	GetByName(dbc dbctx.Context, name string) (*types.Instructor, error)
}

type instructorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInstructorRepo(db *gorm.DB, baseLog *logger.Logger) InstructorRepo {
	repoLog := baseLog.With("repo", "InstructorRepo")
	return &instructorRepo{db: db, log: repoLog}
}

func (r *instructorRepo) Create(dbc dbctx.Context, rows []*types.Instructor) ([]*types.Instructor, error) {
	t := dbc.Or(r.db)
	if len(rows) == 0 {
		return []*types.Instructor{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *instructorRepo) Save(dbc dbctx.Context, row *types.Instructor) error {
	if row == nil {
		return nil
	}
	return dbc.Or(r.db).WithContext(dbc.Ctx).Save(row).Error
}

func (r *instructorRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Instructor, error) {
	t := dbc.Or(r.db)
	var out []*types.Instructor
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *instructorRepo) GetByName(dbc dbctx.Context, name string) (*types.Instructor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var row types.Instructor
	err := dbc.Or(r.db).WithContext(dbc.Ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
