package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/fpda/academy-backend/internal/data/repos/testutil"
	types "github.com/fpda/academy-backend/internal/domain"
	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
)

type memoryCatalogCache struct {
	mu      sync.Mutex
	courses map[string]*types.Course
	hits    int
}

func newMemoryCatalogCache() *memoryCatalogCache {
	return &memoryCatalogCache{courses: map[string]*types.Course{}}
}

func (m *memoryCatalogCache) GetCourse(_ context.Context, slug string) (*types.Course, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[slug]
	if ok {
		m.hits++
	}
	return c, ok, nil
}

func (m *memoryCatalogCache) SetCourse(_ context.Context, course *types.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[course.Slug] = course
	return nil
}

func (m *memoryCatalogCache) DeleteCourse(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.courses, slug)
	return nil
}

func TestCatalogGetBySlugUsesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := newMemoryCatalogCache()
	svc := NewCatalogService(env.db, env.log, 0, env.courseRepo, env.enrollmentRepo, cache)
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Lessons: []int{2, 1}})

	first, err := svc.GetBySlug(ctx, course.Slug)
	if err != nil || !first.Found {
		t.Fatalf("GetBySlug: %+v %v", first, err)
	}
	if first.Course.LessonCount() != 3 {
		t.Fatalf("lesson count = %d, want 3", first.Course.LessonCount())
	}
	second, err := svc.GetBySlug(ctx, course.Slug)
	if err != nil || !second.Found {
		t.Fatalf("GetBySlug: %+v %v", second, err)
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", cache.hits)
	}

	svc.Invalidate(ctx, course.Slug)
	if _, ok, _ := cache.GetCourse(ctx, course.Slug); ok {
		t.Fatalf("course still cached after Invalidate")
	}

	missing, err := svc.GetBySlug(ctx, "no-such-course")
	if err != nil || missing.Found {
		t.Fatalf("GetBySlug(unknown) = %+v %v", missing, err)
	}
}

func TestCatalogListPublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	advanced := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Level: types.LevelAdvanced})
	testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Level: types.LevelAdvanced, Unpublished: true})

	list, err := env.catalog.ListPublished(ctx, "ADVANCED")
	if err != nil {
		t.Fatalf("ListPublished: %v", err)
	}
	found := false
	for _, c := range list {
		if !c.IsPublished || c.Level != types.LevelAdvanced {
			t.Fatalf("unexpected course in listing: %+v", c)
		}
		if c.ID == advanced.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("published course missing from listing")
	}

	if _, err := env.catalog.ListPublished(ctx, "expert"); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCatalogStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	course := testutil.SeedCourse(t, ctx, env.db, testutil.CourseSeed{Lessons: []int{1}})
	done := uuid.New()
	testutil.SeedEnrollment(t, ctx, env.db, done, course.ID)
	testutil.SeedEnrollment(t, ctx, env.db, uuid.New(), course.ID)
	if err := env.enrollments.MarkCompleted(ctx, done, course.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	stats, err := env.catalog.Stats(ctx, course.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Students != 2 || stats.Completed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPublicViewHidesLockedLessons(t *testing.T) {
	t.Parallel()
	course := &types.Course{
		Title: "c",
		Modules: []*types.CourseModule{{
			Lessons: []*types.CourseLesson{
				{Title: "free", Content: "body", VideoURL: "v1", IsFreePreview: true},
				{Title: "locked", Content: "body", VideoURL: "v2"},
			},
		}},
	}
	view := PublicView(course)
	free, locked := view.Modules[0].Lessons[0], view.Modules[0].Lessons[1]
	if free.Content != "body" || free.VideoURL != "v1" {
		t.Fatalf("free preview stripped: %+v", free)
	}
	if locked.Content != "" || locked.VideoURL != "" || locked.Title != "locked" {
		t.Fatalf("locked lesson leaked: %+v", locked)
	}
	if course.Modules[0].Lessons[1].Content != "body" {
		t.Fatalf("PublicView mutated its input")
	}
}
