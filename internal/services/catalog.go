package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/data/aggregates"
	"github.com/fpda/academy-backend/internal/data/repos"
	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/dbctx"
	"github.com/fpda/academy-backend/internal/pkg/logger"
)

// CatalogCache stores course trees by slug. A miss is (nil, false, nil).
type CatalogCache interface {
	GetCourse(ctx context.Context, slug string) (*types.Course, bool, error)
	SetCourse(ctx context.Context, course *types.Course) error
	DeleteCourse(ctx context.Context, slug string) error
}

// CourseLookup is the catalog answer for a single course. Found=false is a
// normal outcome.
type CourseLookup struct {
	Course *types.Course
	Found  bool
}

type CourseStats struct {
	Students  int64 `json:"students"`
	Completed int64 `json:"completed"`
}

type CatalogService interface {
	ListPublished(ctx context.Context, level string) ([]*types.Course, error)
	GetBySlug(ctx context.Context, slug string) (CourseLookup, error)
	GetByID(ctx context.Context, id uuid.UUID) (CourseLookup, error)
	Stats(ctx context.Context, courseID uuid.UUID) (CourseStats, error)
	Invalidate(ctx context.Context, slug string)
}

type catalogService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	cache          CatalogCache
	timeout        storeBudget
}

// NewCatalogService builds the catalog reader. cache may be nil.
func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	storeTimeout time.Duration,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	cache CatalogCache,
) CatalogService {
	return &catalogService{
		db:             db,
		log:            log.With("service", "CatalogService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		cache:          cache,
		timeout:        newStoreBudget(storeTimeout),
	}
}

func (cs *catalogService) ListPublished(ctx context.Context, level string) ([]*types.Course, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level != "" && !types.IsValidLevel(level) {
		return nil, aggregates.MapError("catalog.list", aggregates.ValidationError("unknown level "+level))
	}
	dbc, cancel := cs.timeout.dbc(ctx)
	defer cancel()
	courses, err := cs.courseRepo.ListPublished(dbc, level)
	if err != nil {
		return nil, aggregates.MapError("catalog.list", err)
	}
	return courses, nil
}

func (cs *catalogService) GetBySlug(ctx context.Context, slug string) (CourseLookup, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return CourseLookup{}, nil
	}
	if cs.cache != nil {
		if c, ok, err := cs.cache.GetCourse(ctx, slug); err != nil {
			cs.log.Warn("Catalog cache read failed", "slug", slug, "error", err)
		} else if ok {
			return CourseLookup{Course: c, Found: true}, nil
		}
	}

	dbc, cancel := cs.timeout.dbc(ctx)
	defer cancel()
	course, err := cs.courseRepo.GetTreeBySlug(dbc, slug)
	if err != nil {
		return CourseLookup{}, aggregates.MapError("catalog.get_by_slug", err)
	}
	if course == nil {
		return CourseLookup{}, nil
	}
	if cs.cache != nil {
		if err := cs.cache.SetCourse(ctx, course); err != nil {
			cs.log.Warn("Catalog cache write failed", "slug", slug, "error", err)
		}
	}
	return CourseLookup{Course: course, Found: true}, nil
}

func (cs *catalogService) GetByID(ctx context.Context, id uuid.UUID) (CourseLookup, error) {
	if id == uuid.Nil {
		return CourseLookup{}, nil
	}
	dbc, cancel := cs.timeout.dbc(ctx)
	defer cancel()
	course, err := cs.courseRepo.GetTreeByID(dbc, id)
	if err != nil {
		return CourseLookup{}, aggregates.MapError("catalog.get_by_id", err)
	}
	if course == nil {
		return CourseLookup{}, nil
	}
	return CourseLookup{Course: course, Found: true}, nil
}

// Stats counts enrollments and completions concurrently. Not cached.
func (cs *catalogService) Stats(ctx context.Context, courseID uuid.UUID) (CourseStats, error) {
	ctx, span := startSpan(ctx, "catalog.stats", attribute.String("course_id", courseID.String()))
	var out CourseStats
	dbc, cancel := cs.timeout.dbc(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(dbc.Ctx)
	g.Go(func() error {
		n, err := cs.enrollmentRepo.CountByCourse(dbctx.New(gctx), courseID)
		out.Students = n
		return err
	})
	g.Go(func() error {
		n, err := cs.enrollmentRepo.CountCompletedByCourse(dbctx.New(gctx), courseID)
		out.Completed = n
		return err
	})
	err := g.Wait()
	endSpan(span, err)
	if err != nil {
		return CourseStats{}, aggregates.MapError("catalog.stats", err)
	}
	return out, nil
}

func (cs *catalogService) Invalidate(ctx context.Context, slug string) {
	if cs.cache == nil || strings.TrimSpace(slug) == "" {
		return
	}
	if err := cs.cache.DeleteCourse(ctx, slug); err != nil {
		cs.log.Warn("Catalog cache invalidation failed", "slug", slug, "error", err)
	}
}

// PublicView copies course with the content and video of non-preview lessons
// removed.
func PublicView(course *types.Course) *types.Course {
	if course == nil {
		return nil
	}
	out := *course
	out.Modules = make([]*types.CourseModule, 0, len(course.Modules))
	for _, m := range course.Modules {
		if m == nil {
			continue
		}
		mc := *m
		mc.Lessons = make([]*types.CourseLesson, 0, len(m.Lessons))
		for _, l := range m.Lessons {
			if l == nil {
				continue
			}
			lc := *l
			if !lc.IsFreePreview {
				lc.Content = ""
				lc.VideoURL = ""
			}
			mc.Lessons = append(mc.Lessons, &lc)
		}
		out.Modules = append(out.Modules, &mc)
	}
	return &out
}
