package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/fpda/academy-backend/internal/domain"
	"github.com/fpda/academy-backend/internal/pkg/pointers"
)

// CourseSeed shapes SeedCourse. Lessons lists the lesson count per module.
type CourseSeed struct {
	Title       string
	Slug        string
	Level       string
	Unpublished bool
	Lessons     []int
	Instructor  *types.Instructor
}

func SeedInstructor(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Instructor {
	tb.Helper()
	in := &types.Instructor{
		Name:  name,
		Title: "Lead Doula Educator",
		Bio:   "bio",
	}
	if err := tx.WithContext(ctx).Create(in).Error; err != nil {
		tb.Fatalf("seed instructor: %v", err)
	}
	return in
}

// SeedCourse creates a course and its module/lesson tree. Modules and
// lessons are numbered from zero in creation order.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, seed CourseSeed) *types.Course {
	tb.Helper()
	slug := seed.Slug
	if slug == "" {
		slug = "course-" + uuid.NewString()[:8]
	}
	title := seed.Title
	if title == "" {
		title = "Course " + slug
	}
	level := seed.Level
	if level == "" {
		level = types.LevelBeginner
	}
	c := &types.Course{
		Title:                 title,
		Slug:                  slug,
		Description:           "description",
		Price:                 499,
		DurationHours:         12,
		Level:                 level,
		IsPublished:           !seed.Unpublished,
		CertificationIncluded: true,
	}
	if seed.Instructor != nil {
		c.InstructorID = pointers.Ptr(seed.Instructor.ID)
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	for mi, lessonCount := range seed.Lessons {
		m := &types.CourseModule{
			CourseID:   c.ID,
			Title:      fmt.Sprintf("Module %d", mi+1),
			OrderIndex: mi,
		}
		if err := tx.WithContext(ctx).Create(m).Error; err != nil {
			tb.Fatalf("seed module: %v", err)
		}
		for li := 0; li < lessonCount; li++ {
			l := &types.CourseLesson{
				ModuleID:        m.ID,
				Title:           fmt.Sprintf("Lesson %d.%d", mi+1, li+1),
				Content:         "content",
				VideoURL:        "https://video.example.com/" + uuid.NewString(),
				DurationMinutes: 15,
				OrderIndex:      li,
				IsFreePreview:   mi == 0 && li == 0,
			}
			if err := tx.WithContext(ctx).Create(l).Error; err != nil {
				tb.Fatalf("seed lesson: %v", err)
			}
			m.Lessons = append(m.Lessons, l)
		}
		c.Modules = append(c.Modules, m)
	}
	return c
}

// LessonIDs flattens the seeded lesson ids in tree order.
func LessonIDs(c *types.Course) []uuid.UUID {
	var out []uuid.UUID
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			out = append(out, l.ID)
		}
	}
	return out
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{UserID: userID, CourseID: courseID}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

// SeedQuiz creates a quiz on module with one multiple-choice question per
// entry of points; the first option of each question is the correct one.
func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, moduleID uuid.UUID, passingScore int, maxAttempts *int, points ...int) *types.CourseQuiz {
	tb.Helper()
	q := &types.CourseQuiz{
		CourseID:     courseID,
		ModuleID:     moduleID,
		Title:        "Module quiz",
		PassingScore: passingScore,
		MaxAttempts:  maxAttempts,
	}
	for i, p := range points {
		q.Questions = append(q.Questions, &types.QuizQuestion{
			QuestionText: fmt.Sprintf("Question %d", i+1),
			QuestionType: types.QuestionMultipleChoice,
			Points:       p,
			OrderIndex:   i,
			Options: []*types.QuizQuestionOption{
				{OptionText: "right", IsCorrect: true, OrderIndex: 0},
				{OptionText: "wrong", IsCorrect: false, OrderIndex: 1},
			},
		})
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}
